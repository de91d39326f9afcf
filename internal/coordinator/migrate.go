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

// Initiate admits a migration of processID from sourceID to targetID and
// returns it in_progress. The transfer runs in the background; Wait blocks
// until it ends.
func (c *Coordinator) Initiate(processID, sourceID, targetID string) (*domain.Migration, error) {
	if strings.TrimSpace(processID) == "" {
		return nil, errs.Validation("process id is required")
	}
	if sourceID == targetID {
		return nil, errs.Validation("source and target server must differ")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errs.Validation("coordinator is shutting down")
	}
	req, err := c.admit(processID, sourceID, targetID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	m := &domain.Migration{
		ID:             c.newID(),
		ProcessID:      processID,
		SourceServerID: sourceID,
		TargetServerID: targetID,
		Status:         domain.MigrationPending,
		StartedAt:      now,
	}

	var j journal
	if err := c.store.CreateMigration(m); err != nil {
		return nil, c.storeErr("create migration", err)
	}
	j.push(func() error {
		_, err := c.store.DeleteMigration(m.ID)
		return err
	})

	inProgress := domain.MigrationInProgress
	if _, err := c.store.UpdateMigration(m.ID, domain.MigrationPatch{Status: &inProgress}); err != nil {
		_ = j.rollback(c.log)
		return nil, c.storeErr("start migration", err)
	}
	m.Status = inProgress

	migrating := domain.ProcessMigrating
	resume := req.Process.Status
	if _, err := c.store.UpdateProcess(processID, domain.ProcessPatch{
		Status:       &migrating,
		MigrationID:  &m.ID,
		ResumeStatus: &resume,
	}); err != nil {
		_ = j.rollback(c.log)
		return nil, c.storeErr("mark process migrating", err)
	}

	req.MigrationID = m.ID
	c.sink.Info(component, "Migration initiated for process %s", processID)
	c.log.Info("migration admitted",
		zap.String("migration", m.ID),
		zap.String("process", processID),
		zap.String("source", sourceID),
		zap.String("target", targetID))

	c.wg.Add(1)
	go c.execute(*m, req)

	return m, nil
}

// admit checks a migration request against the current topology. The write
// lock must be held so the in-flight guard cannot change underneath.
func (c *Coordinator) admit(processID, sourceID, targetID string) (transfer.Request, error) {
	p, err := c.store.GetProcess(processID)
	if err != nil {
		return transfer.Request{}, c.storeErr("get process", err)
	}
	if p == nil {
		return transfer.Request{}, errs.Validation("process %s does not exist", processID)
	}
	if p.Migrating() || p.Status == domain.ProcessMigrating {
		return transfer.Request{}, errs.Validation("process %s already has a migration in flight", processID)
	}
	if !p.OnServer(sourceID) {
		return transfer.Request{}, errs.Validation("process %s is not on server %s", processID, sourceID)
	}

	source, err := c.requireOnline(sourceID, "source")
	if err != nil {
		return transfer.Request{}, err
	}
	target, err := c.requireOnline(targetID, "target")
	if err != nil {
		return transfer.Request{}, err
	}
	return transfer.Request{Process: *p, Source: *source, Target: *target}, nil
}

func (c *Coordinator) requireOnline(id, role string) (*domain.Server, error) {
	srv, err := c.store.GetServer(id)
	if err != nil {
		return nil, c.storeErr("get server", err)
	}
	if srv == nil {
		return nil, errs.Validation("%s server %s does not exist", role, id)
	}
	if srv.Status != domain.ServerOnline {
		return nil, errs.Validation("%s server %s is %s", role, id, srv.Status)
	}
	return srv, nil
}

func (c *Coordinator) execute(m domain.Migration, req transfer.Request) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	// Once the transfer reports success the process lives on the target, so
	// a deadline that expires afterwards does not fail the migration.
	res, err := c.runTransfer(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		err = c.complete(m, res)
		if err == nil {
			return
		}
	}
	c.fail(m, err)
}

func (c *Coordinator) runTransfer(ctx context.Context, req transfer.Request) (res transfer.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.Internal("transfer panicked", fmt.Errorf("%v", r))
		}
	}()
	res, err = c.transfer.Transfer(ctx, req)
	if err != nil && errs.KindOf(err) == errs.KindInternal {
		err = errs.Transfer("transfer failed", err)
	}
	return res, err
}

// complete applies the success batch: reassign the process, move the counts,
// then close the migration. Any store error rolls the batch back.
func (c *Coordinator) complete(m domain.Migration, res transfer.Result) error {
	p, err := c.store.GetProcess(m.ProcessID)
	if err != nil {
		return c.storeErr("get process", err)
	}
	if p == nil || p.MigrationID != m.ID {
		return errs.Internal(fmt.Sprintf("process %s lost its migration guard", m.ProcessID), nil)
	}
	if _, err := c.requireOnline(m.TargetServerID, "target"); err != nil {
		if errs.IsValidation(err) {
			return errs.Transfer(fmt.Sprintf("target server %s is no longer online", m.TargetServerID), nil)
		}
		return err
	}

	var j journal
	running := domain.ProcessRunning
	patch := domain.ProcessPatch{
		Status:         &running,
		ServerID:       domain.StringPtr(m.TargetServerID),
		StateData:      res.StateData,
		ClearMigration: true,
	}
	if _, err := c.store.UpdateProcess(p.ID, patch); err != nil {
		return c.storeErr("reassign process", err)
	}
	prev := *p
	j.push(func() error {
		undo := domain.ProcessPatch{
			Status:       &prev.Status,
			ServerID:     domain.StringPtr(m.SourceServerID),
			MigrationID:  &prev.MigrationID,
			ResumeStatus: &prev.ResumeStatus,
		}
		if prev.StateData != nil {
			undo.StateData = prev.StateData
		} else {
			undo.ClearStateData = true
		}
		_, err := c.store.UpdateProcess(prev.ID, undo)
		return err
	})

	if err := c.adjustCount(&j, m.SourceServerID, -1); err != nil {
		_ = j.rollback(c.log)
		return err
	}
	if err := c.adjustCount(&j, m.TargetServerID, 1); err != nil {
		_ = j.rollback(c.log)
		return err
	}

	completed := domain.MigrationCompleted
	now := c.now()
	if _, err := c.store.UpdateMigration(m.ID, domain.MigrationPatch{Status: &completed, CompletedAt: &now}); err != nil {
		_ = j.rollback(c.log)
		return c.storeErr("complete migration", err)
	}

	c.sink.Info(component, "Migration completed successfully for process %s", m.ProcessID)
	c.log.Info("migration completed", zap.String("migration", m.ID), zap.String("process", m.ProcessID))
	return nil
}

// fail closes the migration as failed and gives the process back its
// pre-migration status. If either record cannot be written both are left
// as they were: migration in_progress, process migrating. Reconcile closes
// such pairs on the next start.
func (c *Coordinator) fail(m domain.Migration, cause error) {
	msg := errs.Message(cause)

	var j journal
	p, err := c.store.GetProcess(m.ProcessID)
	if err != nil {
		c.leaveOpen(m, "failed to load migrating process", c.storeErr("get process", err))
		return
	}
	if p != nil && p.MigrationID == m.ID {
		if err := c.releaseProcess(&j, *p); err != nil {
			_ = j.rollback(c.log)
			c.leaveOpen(m, "failed to restore process status", c.storeErr("restore process", err))
			return
		}
	}

	failed := domain.MigrationFailed
	now := c.now()
	if _, err := c.store.UpdateMigration(m.ID, domain.MigrationPatch{
		Status:       &failed,
		CompletedAt:  &now,
		ErrorMessage: &msg,
	}); err != nil {
		_ = j.rollback(c.log)
		c.leaveOpen(m, "failed to record migration failure", c.storeErr("fail migration", err))
		return
	}

	c.sink.Error(component, "Migration failed for process %s: %s", m.ProcessID, msg)
	c.log.Error("migration failed",
		zap.String("migration", m.ID),
		zap.String("process", m.ProcessID),
		zap.String("kind", string(errs.KindOf(cause))),
		zap.Error(cause))
}

func (c *Coordinator) leaveOpen(m domain.Migration, what string, err error) {
	c.log.Error(what, zap.String("migration", m.ID), zap.Error(err))
	c.sink.Error(component, "Migration %s could not be closed: %s", m.ID, errs.Message(err))
}

// releaseProcess restores the pre-migration status and clears the guard.
func (c *Coordinator) releaseProcess(j *journal, p domain.Process) error {
	status := p.ResumeStatus
	if status == "" || status == domain.ProcessMigrating {
		status = domain.ProcessRunning
	}
	if _, err := c.store.UpdateProcess(p.ID, domain.ProcessPatch{Status: &status, ClearMigration: true}); err != nil {
		return err
	}
	j.push(func() error {
		_, err := c.store.UpdateProcess(p.ID, domain.ProcessPatch{
			Status:       &p.Status,
			MigrationID:  &p.MigrationID,
			ResumeStatus: &p.ResumeStatus,
		})
		return err
	})
	return nil
}
