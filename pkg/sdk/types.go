package sdk

import "time"

type Server struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	Status       string    `json:"status"`
	CPUUsage     int       `json:"cpu_usage"`
	MemoryUsage  string    `json:"memory_usage"`
	ProcessCount int       `json:"process_count"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Process struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	ServerID  *string   `json:"server_id"`
	StateData *string   `json:"state_data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProcessWithServer struct {
	Process
	Server *Server `json:"server"`
}

type Migration struct {
	ID             string     `json:"id"`
	ProcessID      string     `json:"process_id"`
	SourceServerID string     `json:"source_server_id"`
	TargetServerID string     `json:"target_server_id"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	ErrorMessage   *string    `json:"error_message"`
}

type MigrationWithDetails struct {
	Migration
	Process      *Process `json:"process"`
	SourceServer *Server  `json:"source_server"`
	TargetServer *Server  `json:"target_server"`
}

type LogEntry struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Component *string   `json:"component"`
	Timestamp time.Time `json:"timestamp"`
}

type Overview struct {
	TotalProcesses   int    `json:"totalProcesses"`
	ActiveMigrations int    `json:"activeMigrations"`
	ServerNodes      int    `json:"serverNodes"`
	SuccessRate      string `json:"successRate"`
}

type CreateServerRequest struct {
	Name        string `json:"name"`
	Host        string `json:"host,omitempty"`
	Port        int    `json:"port,omitempty"`
	Status      string `json:"status,omitempty"`
	Role        string `json:"role,omitempty"`
	CPUUsage    int    `json:"cpu_usage,omitempty"`
	MemoryUsage string `json:"memory_usage,omitempty"`
}

type UpdateServerRequest struct {
	Name        *string `json:"name,omitempty"`
	Host        *string `json:"host,omitempty"`
	Port        *int    `json:"port,omitempty"`
	Status      *string `json:"status,omitempty"`
	Role        *string `json:"role,omitempty"`
	CPUUsage    *int    `json:"cpu_usage,omitempty"`
	MemoryUsage *string `json:"memory_usage,omitempty"`
}

type CreateProcessRequest struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Status    string  `json:"status,omitempty"`
	ServerID  *string `json:"server_id,omitempty"`
	StateData *string `json:"state_data,omitempty"`
}

// UpdateProcessRequest sends only the set fields. ServerID pointing at ""
// unassigns the process.
type UpdateProcessRequest struct {
	Type      *string `json:"type,omitempty"`
	Status    *string `json:"status,omitempty"`
	ServerID  *string `json:"server_id,omitempty"`
	StateData *string `json:"state_data,omitempty"`
}

type InitiateMigrationRequest struct {
	ProcessID      string `json:"process_id"`
	SourceServerID string `json:"source_server_id,omitempty"`
	TargetServerID string `json:"target_server_id"`
}

type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
