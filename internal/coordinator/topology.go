package coordinator

import (
	"fmt"

	"shuttle/internal/domain"
	"shuttle/internal/errs"
)

func (c *Coordinator) ListProcesses() ([]domain.ProcessWithServer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	processes, err := c.store.ListProcesses()
	if err != nil {
		return nil, c.storeErr("list processes", err)
	}
	servers, err := c.serverIndex()
	if err != nil {
		return nil, err
	}

	views := make([]domain.ProcessWithServer, 0, len(processes))
	for _, p := range processes {
		view := domain.ProcessWithServer{Process: p}
		if p.ServerID != nil {
			view.Server = servers[*p.ServerID]
		}
		views = append(views, view)
	}
	return views, nil
}

// ListMigrations returns every migration with its process and servers,
// newest first.
func (c *Coordinator) ListMigrations() ([]domain.MigrationWithDetails, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	migrations, err := c.store.ListMigrations()
	if err != nil {
		return nil, c.storeErr("list migrations", err)
	}
	servers, err := c.serverIndex()
	if err != nil {
		return nil, err
	}
	processes, err := c.store.ListProcesses()
	if err != nil {
		return nil, c.storeErr("list processes", err)
	}
	byID := make(map[string]*domain.Process, len(processes))
	for i := range processes {
		byID[processes[i].ID] = &processes[i]
	}

	views := make([]domain.MigrationWithDetails, 0, len(migrations))
	for _, m := range migrations {
		views = append(views, domain.MigrationWithDetails{
			Migration:    m,
			Process:      byID[m.ProcessID],
			SourceServer: servers[m.SourceServerID],
			TargetServer: servers[m.TargetServerID],
		})
	}
	return views, nil
}

func (c *Coordinator) GetMigration(id string) (*domain.MigrationWithDetails, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, err := c.store.GetMigration(id)
	if err != nil {
		return nil, c.storeErr("get migration", err)
	}
	if m == nil {
		return nil, errs.NotFound("migration", id)
	}

	view := &domain.MigrationWithDetails{Migration: *m}
	if view.Process, err = c.store.GetProcess(m.ProcessID); err != nil {
		return nil, c.storeErr("get process", err)
	}
	if view.SourceServer, err = c.store.GetServer(m.SourceServerID); err != nil {
		return nil, c.storeErr("get server", err)
	}
	if view.TargetServer, err = c.store.GetServer(m.TargetServerID); err != nil {
		return nil, c.storeErr("get server", err)
	}
	return view, nil
}

func (c *Coordinator) Overview() (*domain.Overview, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	processes, err := c.store.ListProcesses()
	if err != nil {
		return nil, c.storeErr("list processes", err)
	}
	servers, err := c.store.ListServers()
	if err != nil {
		return nil, c.storeErr("list servers", err)
	}
	migrations, err := c.store.ListMigrations()
	if err != nil {
		return nil, c.storeErr("list migrations", err)
	}

	ov := &domain.Overview{TotalProcesses: len(processes)}
	for _, srv := range servers {
		if srv.Status == domain.ServerOnline {
			ov.ServerNodes++
		}
	}
	var completed, failed int
	for _, m := range migrations {
		switch m.Status {
		case domain.MigrationInProgress:
			ov.ActiveMigrations++
		case domain.MigrationCompleted:
			completed++
		case domain.MigrationFailed:
			failed++
		}
	}
	ov.SuccessRate = SuccessRate(completed, failed)
	return ov, nil
}

// SuccessRate formats completed/(completed+failed) as a percentage with one
// decimal. With nothing terminal yet it is 100.0%.
func SuccessRate(completed, failed int) string {
	total := completed + failed
	if total == 0 {
		return "100.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(completed)*100/float64(total))
}

func (c *Coordinator) serverIndex() (map[string]*domain.Server, error) {
	servers, err := c.store.ListServers()
	if err != nil {
		return nil, c.storeErr("list servers", err)
	}
	index := make(map[string]*domain.Server, len(servers))
	for i := range servers {
		index[servers[i].ID] = &servers[i]
	}
	return index, nil
}

// joinProcess expects the read lock to be held.
func (c *Coordinator) joinProcess(p domain.Process) (*domain.ProcessWithServer, error) {
	view := &domain.ProcessWithServer{Process: p}
	if p.ServerID != nil {
		srv, err := c.store.GetServer(*p.ServerID)
		if err != nil {
			return nil, c.storeErr("get server", err)
		}
		view.Server = srv
	}
	return view, nil
}
