package domain

import (
	"net"
	"strconv"
	"time"
)

type ProcessStatus string

const (
	ProcessRunning   ProcessStatus = "running"
	ProcessPaused    ProcessStatus = "paused"
	ProcessStopped   ProcessStatus = "stopped"
	ProcessMigrating ProcessStatus = "migrating"
)

func (s ProcessStatus) Valid() bool {
	switch s {
	case ProcessRunning, ProcessPaused, ProcessStopped, ProcessMigrating:
		return true
	}
	return false
}

type Process struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Status    ProcessStatus `json:"status"`
	ServerID  *string       `json:"server_id"`
	StateData *string       `json:"state_data"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// MigrationID is the in-flight migration guard; empty when none.
	MigrationID string `json:"-"`
	// ResumeStatus is the status restored when the in-flight migration ends
	// in failure.
	ResumeStatus ProcessStatus `json:"-"`
}

func (p *Process) OnServer(serverID string) bool {
	return p.ServerID != nil && *p.ServerID == serverID
}

func (p *Process) Migrating() bool {
	return p.MigrationID != ""
}

// ProcessPatch carries the fields a Store update merges. ServerID set to a
// pointer to "" unassigns the process. ClearMigration resets the guard;
// ClearStateData nulls state_data.
type ProcessPatch struct {
	Type           *string
	Status         *ProcessStatus
	ServerID       *string
	StateData      *string
	MigrationID    *string
	ResumeStatus   *ProcessStatus
	ClearMigration bool
	ClearStateData bool
}

func (p ProcessPatch) Empty() bool {
	return p.Type == nil && p.Status == nil && p.ServerID == nil && p.StateData == nil &&
		p.MigrationID == nil && p.ResumeStatus == nil && !p.ClearMigration && !p.ClearStateData
}

type ProcessWithServer struct {
	Process
	Server *Server `json:"server"`
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func StringPtr(s string) *string {
	return &s
}
