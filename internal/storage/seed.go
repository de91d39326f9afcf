package storage

import (
	"fmt"
	"time"

	"shuttle/internal/domain"
)

type seedServer struct {
	id     string
	name   string
	port   int
	cpu    int
	memory string
	role   domain.ServerRole
}

var defaultServers = []seedServer{
	{id: "server-a", name: "Server-A", port: 50051, cpu: 45, memory: "2.1GB", role: domain.RolePrimary},
	{id: "server-b", name: "Server-B", port: 50052, cpu: 28, memory: "1.4GB", role: domain.RoleSecondary},
	{id: "server-c", name: "Server-C", port: 50053, cpu: 15, memory: "0.8GB", role: domain.RoleSecondary},
	{id: "server-d", name: "Server-D", port: 50054, cpu: 62, memory: "3.2GB", role: domain.RoleSecondary},
	{id: "server-e", name: "Server-E", port: 50055, cpu: 8, memory: "0.3GB", role: domain.RoleSecondary},
}

var defaultProcesses = []domain.Process{
	{ID: "task-123", Type: "Compute Task", Status: domain.ProcessRunning, ServerID: domain.StringPtr("server-a")},
	{ID: "task-789", Type: "Data Processing", Status: domain.ProcessRunning, ServerID: domain.StringPtr("server-b")},
	{ID: "task-101", Type: "Batch Job", Status: domain.ProcessPaused, ServerID: domain.StringPtr("server-c")},
}

// Seed installs the demo fleet into an empty store. Process counts are derived
// from the seeded processes so every server starts with the right count.
func Seed(store domain.Store) (bool, error) {
	existing, err := store.ListServers()
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	counts := make(map[string]int)
	for _, p := range defaultProcesses {
		if p.ServerID != nil {
			counts[*p.ServerID]++
		}
	}

	now := time.Now()
	for _, s := range defaultServers {
		srv := &domain.Server{
			ID:           s.id,
			Name:         s.name,
			Host:         "localhost",
			Port:         s.port,
			Status:       domain.ServerOnline,
			CPUUsage:     s.cpu,
			MemoryUsage:  s.memory,
			ProcessCount: counts[s.id],
			Role:         s.role,
			CreatedAt:    now,
		}
		if err := store.CreateServer(srv); err != nil {
			return false, fmt.Errorf("error seeding server %s: %w", s.id, err)
		}
	}

	for _, p := range defaultProcesses {
		proc := p
		proc.ServerID = domain.StringPtr(*p.ServerID)
		if err := store.CreateProcess(&proc); err != nil {
			return false, fmt.Errorf("error seeding process %s: %w", p.ID, err)
		}
	}
	return true, nil
}
