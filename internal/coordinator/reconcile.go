package coordinator

import (
	"shuttle/internal/domain"

	"go.uber.org/zap"
)

const interruptedMessage = "interrupted by coordinator restart"

// Reconcile fails every migration a previous run left non-terminal and
// releases its process. It must run before the coordinator serves requests.
// Process counts are untouched since an interrupted migration never moved
// them.
func (c *Coordinator) Reconcile() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	migrations, err := c.store.ListMigrations()
	if err != nil {
		return 0, c.storeErr("list migrations", err)
	}

	open := make(map[string]bool)
	failed := 0
	for _, m := range migrations {
		if m.Status.Terminal() {
			continue
		}
		open[m.ProcessID] = true

		var j journal
		p, err := c.store.GetProcess(m.ProcessID)
		if err != nil {
			return failed, c.storeErr("get process", err)
		}
		if p != nil && (p.MigrationID == m.ID || p.Status == domain.ProcessMigrating) {
			if err := c.releaseProcess(&j, *p); err != nil {
				return failed, c.storeErr("release process", err)
			}
		}

		status := domain.MigrationFailed
		msg := interruptedMessage
		now := c.now()
		if _, err := c.store.UpdateMigration(m.ID, domain.MigrationPatch{
			Status:       &status,
			CompletedAt:  &now,
			ErrorMessage: &msg,
		}); err != nil {
			_ = j.rollback(c.log)
			return failed, c.storeErr("fail migration", err)
		}
		failed++
		c.sink.Warn(component, "Migration %s for process %s was %s", m.ID, m.ProcessID, interruptedMessage)
	}

	// A process marked migrating with no open migration behind it.
	processes, err := c.store.ListProcesses()
	if err != nil {
		return failed, c.storeErr("list processes", err)
	}
	for _, p := range processes {
		if open[p.ID] || (p.Status != domain.ProcessMigrating && !p.Migrating()) {
			continue
		}
		var j journal
		if err := c.releaseProcess(&j, p); err != nil {
			return failed, c.storeErr("release process", err)
		}
		c.sink.Warn(component, "Process %s was left migrating and has been restored", p.ID)
	}

	if failed > 0 {
		c.log.Warn("reconciled interrupted migrations", zap.Int("count", failed))
	}
	return failed, nil
}
