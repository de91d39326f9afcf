package storage

import (
	"sort"

	"shuttle/internal/domain"
)

func applyServerPatch(srv *domain.Server, patch domain.ServerPatch) {
	if patch.Name != nil {
		srv.Name = *patch.Name
	}
	if patch.Host != nil {
		srv.Host = *patch.Host
	}
	if patch.Port != nil {
		srv.Port = *patch.Port
	}
	if patch.Status != nil {
		srv.Status = *patch.Status
	}
	if patch.CPUUsage != nil {
		srv.CPUUsage = *patch.CPUUsage
	}
	if patch.MemoryUsage != nil {
		srv.MemoryUsage = *patch.MemoryUsage
	}
	if patch.Role != nil {
		srv.Role = *patch.Role
	}
}

func applyProcessPatch(p *domain.Process, patch domain.ProcessPatch) {
	if patch.Type != nil {
		p.Type = *patch.Type
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.ServerID != nil {
		if *patch.ServerID == "" {
			p.ServerID = nil
		} else {
			p.ServerID = domain.StringPtr(*patch.ServerID)
		}
	}
	if patch.ClearStateData {
		p.StateData = nil
	}
	if patch.StateData != nil {
		p.StateData = domain.StringPtr(*patch.StateData)
	}
	if patch.ClearMigration {
		p.MigrationID = ""
		p.ResumeStatus = ""
	}
	if patch.MigrationID != nil {
		p.MigrationID = *patch.MigrationID
	}
	if patch.ResumeStatus != nil {
		p.ResumeStatus = *patch.ResumeStatus
	}
}

func applyMigrationPatch(m *domain.Migration, patch domain.MigrationPatch) {
	if patch.Status != nil {
		m.Status = *patch.Status
	}
	if patch.CompletedAt != nil {
		t := *patch.CompletedAt
		m.CompletedAt = &t
	}
	if patch.ErrorMessage != nil {
		m.ErrorMessage = domain.StringPtr(*patch.ErrorMessage)
	}
}

func cloneProcess(p *domain.Process) domain.Process {
	c := *p
	if p.ServerID != nil {
		c.ServerID = domain.StringPtr(*p.ServerID)
	}
	if p.StateData != nil {
		c.StateData = domain.StringPtr(*p.StateData)
	}
	return c
}

func cloneMigration(m *domain.Migration) domain.Migration {
	c := *m
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		c.CompletedAt = &t
	}
	if m.ErrorMessage != nil {
		c.ErrorMessage = domain.StringPtr(*m.ErrorMessage)
	}
	return c
}

// sortMigrations orders newest first. Equal start times fall back to
// insertion order.
func sortMigrations(migrations []domain.Migration) {
	sort.SliceStable(migrations, func(i, j int) bool {
		if migrations[i].StartedAt.Equal(migrations[j].StartedAt) {
			return migrations[i].Seq > migrations[j].Seq
		}
		return migrations[i].StartedAt.After(migrations[j].StartedAt)
	})
}
