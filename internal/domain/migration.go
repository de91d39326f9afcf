package domain

import "time"

type MigrationStatus string

const (
	MigrationPending    MigrationStatus = "pending"
	MigrationInProgress MigrationStatus = "in_progress"
	MigrationCompleted  MigrationStatus = "completed"
	MigrationFailed     MigrationStatus = "failed"
)

func (s MigrationStatus) Terminal() bool {
	return s == MigrationCompleted || s == MigrationFailed
}

// Migration moves one process between two servers. ProcessID, SourceServerID
// and TargetServerID never change once the record exists.
type Migration struct {
	ID             string          `json:"id"`
	ProcessID      string          `json:"process_id"`
	SourceServerID string          `json:"source_server_id"`
	TargetServerID string          `json:"target_server_id"`
	Status         MigrationStatus `json:"status"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at"`
	ErrorMessage   *string         `json:"error_message"`
	// Seq is assigned by the store on create and grows with every insert.
	Seq int64 `json:"-"`
}

type MigrationPatch struct {
	Status       *MigrationStatus
	CompletedAt  *time.Time
	ErrorMessage *string
}

type MigrationWithDetails struct {
	Migration
	Process      *Process `json:"process"`
	SourceServer *Server  `json:"source_server"`
	TargetServer *Server  `json:"target_server"`
}

type Overview struct {
	TotalProcesses   int    `json:"totalProcesses"`
	ActiveMigrations int    `json:"activeMigrations"`
	ServerNodes      int    `json:"serverNodes"`
	SuccessRate      string `json:"successRate"`
}
