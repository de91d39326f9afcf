package storage

import (
	"errors"
	"fmt"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/errs"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Server struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"uniqueIndex"`
	Host         string
	Port         int
	Status       string
	CPUUsage     int
	MemoryUsage  string
	ProcessCount int
	Role         string
	CreatedAt    time.Time
}

func (Server) TableName() string { return "servers" }

type Process struct {
	ID           string `gorm:"primaryKey"`
	Type         string
	Status       string
	ServerID     *string `gorm:"index"`
	StateData    *string
	MigrationID  string
	ResumeStatus string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Process) TableName() string { return "processes" }

type Migration struct {
	ID             string `gorm:"primaryKey"`
	ProcessID      string `gorm:"index"`
	SourceServerID string `gorm:"index"`
	TargetServerID string `gorm:"index"`
	Status         string `gorm:"index"`
	StartedAt      time.Time
	CompletedAt    *time.Time
	ErrorMessage   *string
	Seq            int64 `gorm:"index"`
}

func (Migration) TableName() string { return "migrations" }

// terminalStatuses are the migration states that no longer pin their
// process or servers.
var terminalStatuses = []string{string(domain.MigrationCompleted), string(domain.MigrationFailed)}

// GormStore persists the four tables in sqlite. Referential checks run inside
// the same transaction as the write they guard.
type GormStore struct {
	db *gorm.DB
}

var _ domain.Store = (*GormStore)(nil)

func NewGormStore(path string, log *zap.Logger) (*GormStore, error) {
	newLogger := gormlogger.New(
		zap.NewStdLog(log.Named("gorm")),
		gormlogger.Config{
			IgnoreRecordNotFoundError: true,
			LogLevel:                  gormlogger.Error,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer; one connection avoids SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&Server{}, &Process{}, &Migration{})
	if err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) ListServers() ([]domain.Server, error) {
	var rows []Server
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error listing servers: %w", err)
	}

	servers := make([]domain.Server, 0, len(rows))
	for _, row := range rows {
		servers = append(servers, row.toDomain())
	}
	return servers, nil
}

func (s *GormStore) GetServer(id string) (*domain.Server, error) {
	return getServer(s.db, id)
}

func getServer(db *gorm.DB, id string) (*domain.Server, error) {
	var row Server
	result := db.First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying server: %w", result.Error)
	}
	srv := row.toDomain()
	return &srv, nil
}

func (s *GormStore) CreateServer(srv *domain.Server) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Server{}).Where("id = ? OR name = ?", srv.ID, srv.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.Validation("server %s (%q) already exists", srv.ID, srv.Name)
		}
		if srv.CreatedAt.IsZero() {
			srv.CreatedAt = time.Now()
		}
		return tx.Create(serverRow(srv)).Error
	})
}

func (s *GormStore) UpdateServer(id string, patch domain.ServerPatch) (*domain.Server, error) {
	var updated *domain.Server
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := getServer(tx, id)
		if err != nil || current == nil {
			return err
		}
		if patch.Name != nil {
			var count int64
			if err := tx.Model(&Server{}).Where("name = ? AND id <> ?", *patch.Name, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errs.Validation("server name %q is already taken", *patch.Name)
			}
		}
		applyServerPatch(current, patch)
		if err := tx.Model(&Server{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name":         current.Name,
			"host":         current.Host,
			"port":         current.Port,
			"status":       string(current.Status),
			"cpu_usage":    current.CPUUsage,
			"memory_usage": current.MemoryUsage,
			"role":         string(current.Role),
		}).Error; err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *GormStore) SetProcessCount(id string, count int) error {
	if count < 0 {
		return errs.Internal("negative process count", nil)
	}
	result := s.db.Model(&Server{}).Where("id = ?", id).Update("process_count", count)
	if result.Error != nil {
		return fmt.Errorf("error updating process count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("server", id)
	}
	return nil
}

func (s *GormStore) DeleteServer(id string) (bool, error) {
	deleted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&Process{}).Where("server_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return errs.Validation("server %s still hosts %d processes", id, refs)
		}
		err := tx.Model(&Migration{}).
			Where("source_server_id = ? OR target_server_id = ?", id, id).
			Where("status NOT IN ?", terminalStatuses).
			Count(&refs).Error
		if err != nil {
			return err
		}
		if refs > 0 {
			return errs.Validation("server %s is referenced by %d open migrations", id, refs)
		}
		result := tx.Delete(&Server{}, "id = ?", id)
		deleted = result.RowsAffected > 0
		return result.Error
	})
	return deleted, err
}

func (s *GormStore) ListProcesses() ([]domain.Process, error) {
	var rows []Process
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error listing processes: %w", err)
	}

	processes := make([]domain.Process, 0, len(rows))
	for _, row := range rows {
		processes = append(processes, row.toDomain())
	}
	return processes, nil
}

func (s *GormStore) GetProcess(id string) (*domain.Process, error) {
	return getProcess(s.db, id)
}

func getProcess(db *gorm.DB, id string) (*domain.Process, error) {
	var row Process
	result := db.First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying process: %w", result.Error)
	}
	p := row.toDomain()
	return &p, nil
}

func (s *GormStore) CreateProcess(p *domain.Process) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := getProcess(tx, p.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errs.Validation("process %s already exists", p.ID)
		}
		if p.ServerID != nil {
			if err := requireServer(tx, *p.ServerID); err != nil {
				return err
			}
		}
		now := time.Now()
		p.CreatedAt = now
		p.UpdatedAt = now
		return tx.Create(processRow(p)).Error
	})
}

func (s *GormStore) UpdateProcess(id string, patch domain.ProcessPatch) (*domain.Process, error) {
	var updated *domain.Process
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := getProcess(tx, id)
		if err != nil || current == nil {
			return err
		}
		if patch.ServerID != nil && *patch.ServerID != "" {
			if err := requireServer(tx, *patch.ServerID); err != nil {
				return err
			}
		}
		applyProcessPatch(current, patch)
		current.UpdatedAt = time.Now()
		if err := tx.Model(&Process{}).Where("id = ?", id).Updates(map[string]interface{}{
			"type":          current.Type,
			"status":        string(current.Status),
			"server_id":     current.ServerID,
			"state_data":    current.StateData,
			"migration_id":  current.MigrationID,
			"resume_status": string(current.ResumeStatus),
			"updated_at":    current.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *GormStore) DeleteProcess(id string) (bool, error) {
	deleted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var refs int64
		err := tx.Model(&Migration{}).
			Where("process_id = ?", id).
			Where("status NOT IN ?", terminalStatuses).
			Count(&refs).Error
		if err != nil {
			return err
		}
		if refs > 0 {
			return errs.Validation("process %s is referenced by %d open migrations", id, refs)
		}
		result := tx.Delete(&Process{}, "id = ?", id)
		deleted = result.RowsAffected > 0
		return result.Error
	})
	if err != nil && !errs.IsValidation(err) {
		return false, fmt.Errorf("error deleting process: %w", err)
	}
	return deleted, err
}

func (s *GormStore) ListMigrations() ([]domain.Migration, error) {
	var rows []Migration
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error listing migrations: %w", err)
	}

	migrations := make([]domain.Migration, 0, len(rows))
	for _, row := range rows {
		migrations = append(migrations, row.toDomain())
	}
	sortMigrations(migrations)
	return migrations, nil
}

func (s *GormStore) GetMigration(id string) (*domain.Migration, error) {
	var row Migration
	result := s.db.First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying migration: %w", result.Error)
	}
	m := row.toDomain()
	return &m, nil
}

func (s *GormStore) CreateMigration(m *domain.Migration) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		p, err := getProcess(tx, m.ProcessID)
		if err != nil {
			return err
		}
		if p == nil {
			return errs.Validation("process %s does not exist", m.ProcessID)
		}
		for _, id := range []string{m.SourceServerID, m.TargetServerID} {
			if err := requireServer(tx, id); err != nil {
				return err
			}
		}
		if m.StartedAt.IsZero() {
			m.StartedAt = time.Now()
		}
		var last int64
		if err := tx.Model(&Migration{}).Select("COALESCE(MAX(seq), 0)").Scan(&last).Error; err != nil {
			return err
		}
		m.Seq = last + 1
		return tx.Create(migrationRow(m)).Error
	})
}

func (s *GormStore) UpdateMigration(id string, patch domain.MigrationPatch) (*domain.Migration, error) {
	updates := make(map[string]interface{})
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}
	if patch.CompletedAt != nil {
		updates["completed_at"] = *patch.CompletedAt
	}
	if patch.ErrorMessage != nil {
		updates["error_message"] = *patch.ErrorMessage
	}
	if len(updates) > 0 {
		if err := s.db.Model(&Migration{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("error updating migration: %w", err)
		}
	}
	return s.GetMigration(id)
}

func (s *GormStore) DeleteMigration(id string) (bool, error) {
	result := s.db.Delete(&Migration{}, "id = ?", id)
	if result.Error != nil {
		return false, fmt.Errorf("error deleting migration: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func requireServer(tx *gorm.DB, id string) error {
	srv, err := getServer(tx, id)
	if err != nil {
		return err
	}
	if srv == nil {
		return errs.Validation("server %s does not exist", id)
	}
	return nil
}

func serverRow(srv *domain.Server) *Server {
	return &Server{
		ID:           srv.ID,
		Name:         srv.Name,
		Host:         srv.Host,
		Port:         srv.Port,
		Status:       string(srv.Status),
		CPUUsage:     srv.CPUUsage,
		MemoryUsage:  srv.MemoryUsage,
		ProcessCount: srv.ProcessCount,
		Role:         string(srv.Role),
		CreatedAt:    srv.CreatedAt,
	}
}

func (r Server) toDomain() domain.Server {
	return domain.Server{
		ID:           r.ID,
		Name:         r.Name,
		Host:         r.Host,
		Port:         r.Port,
		Status:       domain.ServerStatus(r.Status),
		CPUUsage:     r.CPUUsage,
		MemoryUsage:  r.MemoryUsage,
		ProcessCount: r.ProcessCount,
		Role:         domain.ServerRole(r.Role),
		CreatedAt:    r.CreatedAt,
	}
}

func processRow(p *domain.Process) *Process {
	return &Process{
		ID:           p.ID,
		Type:         p.Type,
		Status:       string(p.Status),
		ServerID:     p.ServerID,
		StateData:    p.StateData,
		MigrationID:  p.MigrationID,
		ResumeStatus: string(p.ResumeStatus),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (r Process) toDomain() domain.Process {
	return domain.Process{
		ID:           r.ID,
		Type:         r.Type,
		Status:       domain.ProcessStatus(r.Status),
		ServerID:     r.ServerID,
		StateData:    r.StateData,
		MigrationID:  r.MigrationID,
		ResumeStatus: domain.ProcessStatus(r.ResumeStatus),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func migrationRow(m *domain.Migration) *Migration {
	return &Migration{
		ID:             m.ID,
		ProcessID:      m.ProcessID,
		SourceServerID: m.SourceServerID,
		TargetServerID: m.TargetServerID,
		Status:         string(m.Status),
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
		ErrorMessage:   m.ErrorMessage,
		Seq:            m.Seq,
	}
}

func (r Migration) toDomain() domain.Migration {
	return domain.Migration{
		ID:             r.ID,
		ProcessID:      r.ProcessID,
		SourceServerID: r.SourceServerID,
		TargetServerID: r.TargetServerID,
		Status:         domain.MigrationStatus(r.Status),
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
		ErrorMessage:   r.ErrorMessage,
		Seq:            r.Seq,
	}
}
