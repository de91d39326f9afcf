package domain

import "time"

type ServerStatus string

const (
	ServerOnline    ServerStatus = "online"
	ServerOffline   ServerStatus = "offline"
	ServerMigrating ServerStatus = "migrating"
)

func (s ServerStatus) Valid() bool {
	switch s {
	case ServerOnline, ServerOffline, ServerMigrating:
		return true
	}
	return false
}

type ServerRole string

const (
	RolePrimary   ServerRole = "primary"
	RoleSecondary ServerRole = "secondary"
)

func (r ServerRole) Valid() bool {
	return r == RolePrimary || r == RoleSecondary
}

type Server struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Host         string       `json:"host"`
	Port         int          `json:"port"`
	Status       ServerStatus `json:"status"`
	CPUUsage     int          `json:"cpu_usage"`
	MemoryUsage  string       `json:"memory_usage"`
	ProcessCount int          `json:"process_count"`
	Role         ServerRole   `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Address is the host:port of the server's process agent.
func (s *Server) Address() string {
	return joinHostPort(s.Host, s.Port)
}

// ServerPatch carries the mutable server fields. ProcessCount is absent on
// purpose: only the coordinator moves it, through SetProcessCount.
type ServerPatch struct {
	Name        *string
	Host        *string
	Port        *int
	Status      *ServerStatus
	CPUUsage    *int
	MemoryUsage *string
	Role        *ServerRole
}

func (p ServerPatch) Empty() bool {
	return p.Name == nil && p.Host == nil && p.Port == nil && p.Status == nil &&
		p.CPUUsage == nil && p.MemoryUsage == nil && p.Role == nil
}

type ServerStats struct {
	CPU    float64 `json:"cpu"`
	Memory uint64  `json:"memory"`
}
