package storage

import (
	"sort"
	"sync"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/errs"
)

// MemStore keeps every record in process memory. Returned records are
// copies; callers never alias store state.
type MemStore struct {
	mu         sync.RWMutex
	servers    map[string]*domain.Server
	processes  map[string]*domain.Process
	migrations map[string]*domain.Migration
	seq        int64
	now        func() time.Time
}

var _ domain.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		servers:    make(map[string]*domain.Server),
		processes:  make(map[string]*domain.Process),
		migrations: make(map[string]*domain.Migration),
		now:        time.Now,
	}
}

func (s *MemStore) ListServers() ([]domain.Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	servers := make([]domain.Server, 0, len(s.servers))
	for _, srv := range s.servers {
		servers = append(servers, *srv)
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].ID < servers[j].ID })
	return servers, nil
}

func (s *MemStore) GetServer(id string) (*domain.Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	srv, ok := s.servers[id]
	if !ok {
		return nil, nil
	}
	c := *srv
	return &c, nil
}

func (s *MemStore) CreateServer(srv *domain.Server) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.servers[srv.ID]; ok {
		return errs.Validation("server %s already exists", srv.ID)
	}
	for _, other := range s.servers {
		if other.Name == srv.Name {
			return errs.Validation("server name %q is already taken", srv.Name)
		}
	}
	if srv.CreatedAt.IsZero() {
		srv.CreatedAt = s.now()
	}
	c := *srv
	s.servers[srv.ID] = &c
	return nil
}

func (s *MemStore) UpdateServer(id string, patch domain.ServerPatch) (*domain.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	srv, ok := s.servers[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		for _, other := range s.servers {
			if other.ID != id && other.Name == *patch.Name {
				return nil, errs.Validation("server name %q is already taken", *patch.Name)
			}
		}
	}
	updated := *srv
	applyServerPatch(&updated, patch)
	s.servers[id] = &updated
	c := updated
	return &c, nil
}

func (s *MemStore) SetProcessCount(id string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	srv, ok := s.servers[id]
	if !ok {
		return errs.NotFound("server", id)
	}
	if count < 0 {
		return errs.Internal("negative process count", nil)
	}
	updated := *srv
	updated.ProcessCount = count
	s.servers[id] = &updated
	return nil
}

func (s *MemStore) DeleteServer(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.servers[id]; !ok {
		return false, nil
	}
	for _, p := range s.processes {
		if p.OnServer(id) {
			return false, errs.Validation("server %s still hosts process %s", id, p.ID)
		}
	}
	for _, m := range s.migrations {
		if !m.Status.Terminal() && (m.SourceServerID == id || m.TargetServerID == id) {
			return false, errs.Validation("server %s is referenced by open migration %s", id, m.ID)
		}
	}
	delete(s.servers, id)
	return true, nil
}

func (s *MemStore) ListProcesses() ([]domain.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	processes := make([]domain.Process, 0, len(s.processes))
	for _, p := range s.processes {
		processes = append(processes, cloneProcess(p))
	}
	sort.Slice(processes, func(i, j int) bool { return processes[i].ID < processes[j].ID })
	return processes, nil
}

func (s *MemStore) GetProcess(id string) (*domain.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.processes[id]
	if !ok {
		return nil, nil
	}
	c := cloneProcess(p)
	return &c, nil
}

func (s *MemStore) CreateProcess(p *domain.Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processes[p.ID]; ok {
		return errs.Validation("process %s already exists", p.ID)
	}
	if p.ServerID != nil {
		if _, ok := s.servers[*p.ServerID]; !ok {
			return errs.Validation("server %s does not exist", *p.ServerID)
		}
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	c := cloneProcess(p)
	s.processes[p.ID] = &c
	return nil
}

func (s *MemStore) UpdateProcess(id string, patch domain.ProcessPatch) (*domain.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.processes[id]
	if !ok {
		return nil, nil
	}
	if patch.ServerID != nil && *patch.ServerID != "" {
		if _, ok := s.servers[*patch.ServerID]; !ok {
			return nil, errs.Validation("server %s does not exist", *patch.ServerID)
		}
	}
	updated := cloneProcess(p)
	applyProcessPatch(&updated, patch)
	updated.UpdatedAt = s.now()
	s.processes[id] = &updated
	c := cloneProcess(&updated)
	return &c, nil
}

func (s *MemStore) DeleteProcess(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processes[id]; !ok {
		return false, nil
	}
	for _, m := range s.migrations {
		if !m.Status.Terminal() && m.ProcessID == id {
			return false, errs.Validation("process %s is referenced by open migration %s", id, m.ID)
		}
	}
	delete(s.processes, id)
	return true, nil
}

func (s *MemStore) ListMigrations() ([]domain.Migration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	migrations := make([]domain.Migration, 0, len(s.migrations))
	for _, m := range s.migrations {
		migrations = append(migrations, cloneMigration(m))
	}
	sortMigrations(migrations)
	return migrations, nil
}

func (s *MemStore) GetMigration(id string) (*domain.Migration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.migrations[id]
	if !ok {
		return nil, nil
	}
	c := cloneMigration(m)
	return &c, nil
}

func (s *MemStore) CreateMigration(m *domain.Migration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.migrations[m.ID]; ok {
		return errs.Validation("migration %s already exists", m.ID)
	}
	if _, ok := s.processes[m.ProcessID]; !ok {
		return errs.Validation("process %s does not exist", m.ProcessID)
	}
	for _, id := range []string{m.SourceServerID, m.TargetServerID} {
		if _, ok := s.servers[id]; !ok {
			return errs.Validation("server %s does not exist", id)
		}
	}
	if m.StartedAt.IsZero() {
		m.StartedAt = s.now()
	}
	s.seq++
	m.Seq = s.seq
	c := cloneMigration(m)
	s.migrations[m.ID] = &c
	return nil
}

func (s *MemStore) UpdateMigration(id string, patch domain.MigrationPatch) (*domain.Migration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.migrations[id]
	if !ok {
		return nil, nil
	}
	updated := cloneMigration(m)
	applyMigrationPatch(&updated, patch)
	s.migrations[id] = &updated
	c := cloneMigration(&updated)
	return &c, nil
}

func (s *MemStore) DeleteMigration(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.migrations[id]; !ok {
		return false, nil
	}
	delete(s.migrations, id)
	return true, nil
}
