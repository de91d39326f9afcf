package coordinator

import (
	"context"
	"fmt"
	"strings"

	"shuttle/internal/domain"
	"shuttle/internal/errs"
	"shuttle/internal/transfer"

	"go.uber.org/zap"
)

type ServerSpec struct {
	Name        string
	Host        string
	Port        int
	Status      domain.ServerStatus
	Role        domain.ServerRole
	CPUUsage    int
	MemoryUsage string
}

type ProcessSpec struct {
	ID        string
	Type      string
	Status    domain.ProcessStatus
	ServerID  *string
	StateData *string
}

// ProcessUpdate holds the client-settable process fields. ServerID set to ""
// unassigns the process.
type ProcessUpdate struct {
	Type      *string
	Status    *domain.ProcessStatus
	ServerID  *string
	StateData *string
}

// HealthReport is one probe result for a server.
type HealthReport struct {
	Online      bool
	CPUUsage    *int
	MemoryUsage *string
}

func (c *Coordinator) ListServers() ([]domain.Server, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	servers, err := c.store.ListServers()
	if err != nil {
		return nil, c.storeErr("list servers", err)
	}
	return servers, nil
}

func (c *Coordinator) GetServer(id string) (*domain.Server, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	srv, err := c.store.GetServer(id)
	if err != nil {
		return nil, c.storeErr("get server", err)
	}
	if srv == nil {
		return nil, errs.NotFound("server", id)
	}
	return srv, nil
}

func (c *Coordinator) CreateServer(spec ServerSpec) (*domain.Server, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, errs.Validation("server name is required")
	}
	if spec.Status == "" {
		spec.Status = domain.ServerOffline
	}
	if spec.Role == "" {
		spec.Role = domain.RoleSecondary
	}
	if spec.MemoryUsage == "" {
		spec.MemoryUsage = "0GB"
	}
	if err := validateServerFields(spec.Port, spec.Status, spec.Role, spec.CPUUsage); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	srv := &domain.Server{
		ID:          c.newID(),
		Name:        spec.Name,
		Host:        spec.Host,
		Port:        spec.Port,
		Status:      spec.Status,
		CPUUsage:    spec.CPUUsage,
		MemoryUsage: spec.MemoryUsage,
		Role:        spec.Role,
		CreatedAt:   c.now(),
	}
	if err := c.store.CreateServer(srv); err != nil {
		return nil, c.storeErr("create server", err)
	}
	c.sink.Info(component, "Server %s registered at %s", srv.Name, srv.Address())
	return srv, nil
}

func (c *Coordinator) UpdateServer(id string, patch domain.ServerPatch) (*domain.Server, error) {
	if patch.Empty() {
		return nil, errs.Validation("no fields to update")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, errs.Validation("server name is required")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, errs.Validation("invalid server status %q", *patch.Status)
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, errs.Validation("invalid server role %q", *patch.Role)
	}
	if patch.Port != nil && (*patch.Port < 0 || *patch.Port > 65535) {
		return nil, errs.Validation("port %d out of range", *patch.Port)
	}
	if patch.CPUUsage != nil && (*patch.CPUUsage < 0 || *patch.CPUUsage > 100) {
		return nil, errs.Validation("cpu_usage %d out of range", *patch.CPUUsage)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateServerLocked(id, patch)
}

func (c *Coordinator) updateServerLocked(id string, patch domain.ServerPatch) (*domain.Server, error) {
	before, err := c.store.GetServer(id)
	if err != nil {
		return nil, c.storeErr("get server", err)
	}
	if before == nil {
		return nil, errs.NotFound("server", id)
	}

	srv, err := c.store.UpdateServer(id, patch)
	if err != nil {
		return nil, c.storeErr("update server", err)
	}
	if srv == nil {
		return nil, errs.NotFound("server", id)
	}

	if before.Status != srv.Status {
		if srv.Status == domain.ServerOffline {
			c.sink.Warn(component, "Server %s is offline", srv.Name)
		} else {
			c.sink.Info(component, "Server %s is %s", srv.Name, srv.Status)
		}
	}
	return srv, nil
}

func (c *Coordinator) DeleteServer(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	srv, err := c.store.GetServer(id)
	if err != nil {
		return c.storeErr("get server", err)
	}
	if srv == nil {
		return errs.NotFound("server", id)
	}
	if _, err := c.store.DeleteServer(id); err != nil {
		return c.storeErr("delete server", err)
	}
	c.sink.Info(component, "Server %s removed", srv.Name)
	return nil
}

// ReportHealth folds a probe result into the server record. Only status
// transitions are logged.
func (c *Coordinator) ReportHealth(id string, report HealthReport) (*domain.Server, error) {
	status := domain.ServerOffline
	if report.Online {
		status = domain.ServerOnline
	}
	patch := domain.ServerPatch{Status: &status}
	if report.Online {
		patch.CPUUsage = report.CPUUsage
		patch.MemoryUsage = report.MemoryUsage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateServerLocked(id, patch)
}

func (c *Coordinator) GetProcess(id string) (*domain.ProcessWithServer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, err := c.store.GetProcess(id)
	if err != nil {
		return nil, c.storeErr("get process", err)
	}
	if p == nil {
		return nil, errs.NotFound("process", id)
	}
	return c.joinProcess(*p)
}

func (c *Coordinator) CreateProcess(ctx context.Context, spec ProcessSpec) (*domain.Process, error) {
	p, srv, err := c.createProcess(spec)
	if err != nil {
		return nil, err
	}
	if srv != nil {
		c.launch(ctx, *srv, *p)
	}
	return p, nil
}

func (c *Coordinator) createProcess(spec ProcessSpec) (*domain.Process, *domain.Server, error) {
	if strings.TrimSpace(spec.ID) == "" {
		return nil, nil, errs.Validation("process id is required")
	}
	if strings.TrimSpace(spec.Type) == "" {
		return nil, nil, errs.Validation("process type is required")
	}
	if spec.Status == "" {
		spec.Status = domain.ProcessStopped
	}
	if !spec.Status.Valid() {
		return nil, nil, errs.Validation("invalid process status %q", spec.Status)
	}
	if spec.Status == domain.ProcessMigrating {
		return nil, nil, errs.Validation("status migrating is reserved for migrations")
	}
	if spec.ServerID != nil && *spec.ServerID == "" {
		spec.ServerID = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.store.GetProcess(spec.ID)
	if err != nil {
		return nil, nil, c.storeErr("get process", err)
	}
	if existing != nil {
		return nil, nil, errs.Validation("process %s already exists", spec.ID)
	}

	var srv *domain.Server
	if spec.ServerID != nil {
		srv, err = c.store.GetServer(*spec.ServerID)
		if err != nil {
			return nil, nil, c.storeErr("get server", err)
		}
		if srv == nil {
			return nil, nil, errs.Validation("server %s does not exist", *spec.ServerID)
		}
	}

	p := &domain.Process{
		ID:        spec.ID,
		Type:      spec.Type,
		Status:    spec.Status,
		ServerID:  spec.ServerID,
		StateData: spec.StateData,
	}

	var j journal
	if err := c.store.CreateProcess(p); err != nil {
		return nil, nil, c.storeErr("create process", err)
	}
	j.push(func() error {
		_, err := c.store.DeleteProcess(p.ID)
		return err
	})
	if srv != nil {
		if err := c.adjustCount(&j, srv.ID, 1); err != nil {
			_ = j.rollback(c.log)
			return nil, nil, err
		}
		c.sink.Info(component, "Process %s created on %s", p.ID, srv.ID)
	} else {
		c.sink.Info(component, "Process %s created unassigned", p.ID)
	}
	return p, srv, nil
}

// launch starts a freshly assigned process on its host when the transferer
// drives real agents. A failed launch leaves the record in place.
func (c *Coordinator) launch(ctx context.Context, srv domain.Server, p domain.Process) {
	l, ok := c.transfer.(transfer.Launcher)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := l.Launch(ctx, srv, p); err != nil {
		c.log.Warn("launch failed", zap.String("process", p.ID), zap.String("server", srv.ID), zap.Error(err))
		c.sink.Warn(component, "Process %s could not be started on %s: %s", p.ID, srv.ID, errs.Message(err))
	}
}

func (c *Coordinator) UpdateProcess(id string, upd ProcessUpdate) (*domain.Process, error) {
	if upd.Type == nil && upd.Status == nil && upd.ServerID == nil && upd.StateData == nil {
		return nil, errs.Validation("no fields to update")
	}
	if upd.Type != nil && strings.TrimSpace(*upd.Type) == "" {
		return nil, errs.Validation("process type is required")
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, errs.Validation("invalid process status %q", *upd.Status)
		}
		if *upd.Status == domain.ProcessMigrating {
			return nil, errs.Validation("status migrating is reserved for migrations")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.store.GetProcess(id)
	if err != nil {
		return nil, c.storeErr("get process", err)
	}
	if p == nil {
		return nil, errs.NotFound("process", id)
	}
	if p.Migrating() {
		return nil, errs.Validation("process %s is migrating", id)
	}

	var j journal
	var changes []string
	patch := domain.ProcessPatch{Type: upd.Type, Status: upd.Status, StateData: upd.StateData}
	if upd.Type != nil {
		changes = append(changes, "type="+*upd.Type)
	}
	if upd.Status != nil {
		changes = append(changes, "status="+string(*upd.Status))
	}
	if upd.StateData != nil {
		changes = append(changes, "state_data")
	}

	if upd.ServerID != nil {
		from := ""
		if p.ServerID != nil {
			from = *p.ServerID
		}
		to := *upd.ServerID
		if to != from {
			if to != "" {
				srv, err := c.store.GetServer(to)
				if err != nil {
					return nil, c.storeErr("get server", err)
				}
				if srv == nil {
					return nil, errs.Validation("server %s does not exist", to)
				}
				if err := c.adjustCount(&j, to, 1); err != nil {
					return nil, err
				}
			}
			if from != "" {
				if err := c.adjustCount(&j, from, -1); err != nil {
					_ = j.rollback(c.log)
					return nil, err
				}
			}
			patch.ServerID = upd.ServerID
			if to == "" {
				changes = append(changes, "server=none")
			} else {
				changes = append(changes, "server="+to)
			}
		}
	}

	updated, err := c.store.UpdateProcess(id, patch)
	if err != nil || updated == nil {
		_ = j.rollback(c.log)
		if err == nil {
			return nil, errs.NotFound("process", id)
		}
		return nil, c.storeErr("update process", err)
	}
	if len(changes) > 0 {
		c.sink.Info(component, "Process %s updated: %s", id, strings.Join(changes, ", "))
	}
	return updated, nil
}

func (c *Coordinator) DeleteProcess(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.store.GetProcess(id)
	if err != nil {
		return c.storeErr("get process", err)
	}
	if p == nil {
		return errs.NotFound("process", id)
	}
	if p.Migrating() {
		return errs.Validation("process %s is migrating", id)
	}

	var j journal
	if p.ServerID != nil {
		if err := c.adjustCount(&j, *p.ServerID, -1); err != nil {
			return err
		}
	}
	if _, err := c.store.DeleteProcess(id); err != nil {
		_ = j.rollback(c.log)
		return c.storeErr("delete process", err)
	}
	c.sink.Info(component, "Process %s deleted", id)
	return nil
}

// adjustCount moves a server's process_count by delta and journals the
// inverse. A count that would go negative means the counter already drifted.
func (c *Coordinator) adjustCount(j *journal, serverID string, delta int) error {
	srv, err := c.store.GetServer(serverID)
	if err != nil {
		return c.storeErr("get server", err)
	}
	if srv == nil {
		return errs.Internal(fmt.Sprintf("server %s vanished", serverID), nil)
	}
	next := srv.ProcessCount + delta
	if next < 0 {
		return errs.Internal(fmt.Sprintf("process count of %s would drop below zero", serverID), nil)
	}
	if err := c.store.SetProcessCount(serverID, next); err != nil {
		return c.storeErr("set process count", err)
	}
	prev := srv.ProcessCount
	j.push(func() error { return c.store.SetProcessCount(serverID, prev) })
	return nil
}

func validateServerFields(port int, status domain.ServerStatus, role domain.ServerRole, cpu int) error {
	if port < 0 || port > 65535 {
		return errs.Validation("port %d out of range", port)
	}
	if !status.Valid() {
		return errs.Validation("invalid server status %q", status)
	}
	if !role.Valid() {
		return errs.Validation("invalid server role %q", role)
	}
	if cpu < 0 || cpu > 100 {
		return errs.Validation("cpu_usage %d out of range", cpu)
	}
	return nil
}
