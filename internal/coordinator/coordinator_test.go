package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/errs"
	"shuttle/internal/logsink"
	"shuttle/internal/storage"
	"shuttle/internal/transfer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gate is a Transferer that blocks until the test releases it.
type gate struct {
	started chan transfer.Request
	release chan error
}

func newGate() *gate {
	return &gate{started: make(chan transfer.Request, 32), release: make(chan error, 32)}
}

func (g *gate) Transfer(ctx context.Context, req transfer.Request) (transfer.Result, error) {
	g.started <- req
	select {
	case err := <-g.release:
		return transfer.Result{}, err
	case <-ctx.Done():
		return transfer.Result{}, errs.Transfer("transfer did not finish in time", ctx.Err())
	}
}

func newCoordinator(t *testing.T, store domain.Store, tr transfer.Transferer, timeout time.Duration) *Coordinator {
	t.Helper()
	if store == nil {
		mem := storage.NewMemStore()
		_, err := storage.Seed(mem)
		require.NoError(t, err)
		store = mem
	}
	c := New(store, logsink.New(logsink.DefaultCapacity, nil), tr, Options{Timeout: timeout})
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func assertInvariants(t *testing.T, c *Coordinator) {
	t.Helper()
	servers, err := c.store.ListServers()
	require.NoError(t, err)
	processes, err := c.store.ListProcesses()
	require.NoError(t, err)
	migrations, err := c.store.ListMigrations()
	require.NoError(t, err)

	hosted := make(map[string]int)
	for _, p := range processes {
		if p.ServerID != nil {
			hosted[*p.ServerID]++
		}
	}
	for _, srv := range servers {
		assert.Equal(t, hosted[srv.ID], srv.ProcessCount, "process_count of %s", srv.ID)
	}

	open := make(map[string]int)
	for _, m := range migrations {
		assert.NotEqual(t, m.SourceServerID, m.TargetServerID)
		if !m.Status.Terminal() {
			open[m.ProcessID]++
		}
	}
	for _, p := range processes {
		assert.LessOrEqual(t, open[p.ID], 1)
		assert.Equal(t, open[p.ID] == 1, p.Status == domain.ProcessMigrating, "process %s", p.ID)
	}
}

func countLogs(c *Coordinator, level domain.LogLevel, message string) int {
	n := 0
	for _, e := range c.Logs(logsink.DefaultCapacity) {
		if e.Level == level && e.Message == message {
			n++
		}
	}
	return n
}

func serverCount(t *testing.T, c *Coordinator, id string) int {
	t.Helper()
	srv, err := c.GetServer(id)
	require.NoError(t, err)
	return srv.ProcessCount
}

func TestInitiate_Success(t *testing.T) {
	g := newGate()
	c := newCoordinator(t, nil, g, time.Minute)

	m, err := c.Initiate("task-123", "server-a", "server-d")
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationInProgress, m.Status)
	assert.Nil(t, m.CompletedAt)

	req := <-g.started
	assert.Equal(t, m.ID, req.MigrationID)
	assert.Equal(t, "server-a", req.Source.ID)
	assert.Equal(t, "server-d", req.Target.ID)

	p, err := c.GetProcess("task-123")
	require.NoError(t, err)
	assert.Equal(t, domain.ProcessMigrating, p.Status)
	ov, err := c.Overview()
	require.NoError(t, err)
	assert.Equal(t, 1, ov.ActiveMigrations)
	assertInvariants(t, c)

	g.release <- nil
	c.Wait()

	p, err = c.GetProcess("task-123")
	require.NoError(t, err)
	assert.Equal(t, domain.ProcessRunning, p.Status)
	require.NotNil(t, p.ServerID)
	assert.Equal(t, "server-d", *p.ServerID)
	assert.Equal(t, "server-d", p.Server.ID)

	got, err := c.GetMigration(m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Nil(t, got.ErrorMessage)

	assert.Equal(t, 0, serverCount(t, c, "server-a"))
	assert.Equal(t, 1, serverCount(t, c, "server-d"))
	assert.Equal(t, 1, countLogs(c, domain.LevelInfo, "Migration initiated for process task-123"))
	assert.Equal(t, 1, countLogs(c, domain.LevelInfo, "Migration completed successfully for process task-123"))
	assertInvariants(t, c)
}

func TestInitiate_TransferFailure(t *testing.T) {
	g := newGate()
	c := newCoordinator(t, nil, g, time.Minute)

	m, err := c.Initiate("task-101", "server-c", "server-e")
	require.NoError(t, err)
	<-g.started
	g.release <- errs.Transfer("link down", nil)
	c.Wait()

	got, err := c.GetMigration(m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "link down", *got.ErrorMessage)
	assert.NotNil(t, got.CompletedAt)

	p, err := c.GetProcess("task-101")
	require.NoError(t, err)
	assert.Equal(t, "server-c", *p.ServerID)
	assert.Equal(t, domain.ProcessPaused, p.Status, "status reverts to the pre-migration value")

	assert.Equal(t, 1, serverCount(t, c, "server-c"))
	assert.Equal(t, 0, serverCount(t, c, "server-e"))
	assert.Equal(t, 1, countLogs(c, domain.LevelError, "Migration failed for process task-101: link down"))
	assertInvariants(t, c)
}

func TestInitiate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(c *Coordinator)
		process string
		source  string
		target  string
	}{
		{name: "same server", process: "task-123", source: "server-a", target: "server-a"},
		{name: "unknown process", process: "task-999", source: "server-a", target: "server-b"},
		{name: "empty process", process: "", source: "server-a", target: "server-b"},
		{name: "unknown target", process: "task-123", source: "server-a", target: "server-z"},
		{name: "process elsewhere", process: "task-123", source: "server-b", target: "server-c"},
		{
			name: "source offline",
			prepare: func(c *Coordinator) {
				_, _ = c.ReportHealth("server-a", HealthReport{Online: false})
			},
			process: "task-123", source: "server-a", target: "server-b",
		},
		{
			name: "target offline",
			prepare: func(c *Coordinator) {
				_, _ = c.ReportHealth("server-b", HealthReport{Online: false})
			},
			process: "task-123", source: "server-a", target: "server-b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCoordinator(t, nil, newGate(), time.Minute)
			if tt.prepare != nil {
				tt.prepare(c)
			}
			m, err := c.Initiate(tt.process, tt.source, tt.target)
			assert.Nil(t, m)
			assert.True(t, errs.IsValidation(err), "got %v", err)

			migrations, err := c.ListMigrations()
			require.NoError(t, err)
			assert.Empty(t, migrations)
			assertInvariants(t, c)
		})
	}
}

func TestInitiate_RejectsSecondInFlight(t *testing.T) {
	g := newGate()
	c := newCoordinator(t, nil, g, time.Minute)

	first, err := c.Initiate("task-123", "server-a", "server-b")
	require.NoError(t, err)
	<-g.started

	_, err = c.Initiate("task-123", "server-a", "server-c")
	assert.True(t, errs.IsValidation(err))

	got, err := c.GetMigration(first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationInProgress, got.Status)
	assert.Equal(t, "server-b", got.TargetServerID)

	migrations, err := c.ListMigrations()
	require.NoError(t, err)
	assert.Len(t, migrations, 1)

	g.release <- nil
	c.Wait()
	assertInvariants(t, c)
}

func TestInitiate_ConcurrentAdmission(t *testing.T) {
	g := newGate()
	c := newCoordinator(t, nil, g, time.Minute)

	var admitted, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Initiate("task-789", "server-b", "server-c")
			if err == nil {
				admitted.Add(1)
			} else if errs.IsValidation(err) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
	assert.Equal(t, int32(15), rejected.Load())

	g.release <- nil
	c.Wait()
	assert.Equal(t, 1, serverCount(t, c, "server-c"))
	assertInvariants(t, c)
}

func TestInitiate_Timeout(t *testing.T) {
	c := newCoordinator(t, nil, newGate(), 20*time.Millisecond)

	m, err := c.Initiate("task-123", "server-a", "server-b")
	require.NoError(t, err)
	c.Wait()

	got, err := c.GetMigration(m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Contains(t, *got.ErrorMessage, "did not finish in time")
	assert.Equal(t, "server-a", *got.Process.ServerID)
	assertInvariants(t, c)
}

func TestInitiate_TargetWentOffline(t *testing.T) {
	g := newGate()
	c := newCoordinator(t, nil, g, time.Minute)

	m, err := c.Initiate("task-123", "server-a", "server-d")
	require.NoError(t, err)
	<-g.started

	_, err = c.ReportHealth("server-d", HealthReport{Online: false})
	require.NoError(t, err)
	g.release <- nil
	c.Wait()

	got, err := c.GetMigration(m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationFailed, got.Status)
	assert.Equal(t, "target server server-d is no longer online", *got.ErrorMessage)
	assert.Equal(t, "server-a", *got.Process.ServerID)
	assert.Equal(t, 1, serverCount(t, c, "server-a"))
	assert.Equal(t, 0, serverCount(t, c, "server-d"))
	assertInvariants(t, c)
}

func TestInitiate_TransferPanic(t *testing.T) {
	tr := transfer.Func(func(ctx context.Context, req transfer.Request) (transfer.Result, error) {
		panic("agent exploded")
	})
	c := newCoordinator(t, nil, tr, time.Minute)

	m, err := c.Initiate("task-123", "server-a", "server-b")
	require.NoError(t, err)
	c.Wait()

	got, err := c.GetMigration(m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationFailed, got.Status)
	assert.Contains(t, *got.ErrorMessage, "agent exploded")
	assertInvariants(t, c)
}

func TestInitiate_StoresTransferredState(t *testing.T) {
	tr := transfer.Func(func(ctx context.Context, req transfer.Request) (transfer.Result, error) {
		return transfer.Result{StateData: domain.StringPtr("c25hcHNob3Q=")}, nil
	})
	c := newCoordinator(t, nil, tr, time.Minute)

	_, err := c.Initiate("task-123", "server-a", "server-b")
	require.NoError(t, err)
	c.Wait()

	p, err := c.GetProcess("task-123")
	require.NoError(t, err)
	require.NotNil(t, p.StateData)
	assert.Equal(t, "c25hcHNob3Q=", *p.StateData)
}

// flakyStore fails SetProcessCount for one server once armed.
type flakyStore struct {
	domain.Store
	failOn string
	armed  atomic.Bool
}

func (s *flakyStore) SetProcessCount(id string, count int) error {
	if s.armed.Load() && id == s.failOn {
		return errors.New("disk full")
	}
	return s.Store.SetProcessCount(id, count)
}

func TestInitiate_CompletionRollsBack(t *testing.T) {
	mem := storage.NewMemStore()
	_, err := storage.Seed(mem)
	require.NoError(t, err)
	store := &flakyStore{Store: mem, failOn: "server-d"}

	g := newGate()
	c := newCoordinator(t, store, g, time.Minute)

	m, err := c.Initiate("task-123", "server-a", "server-d")
	require.NoError(t, err)
	<-g.started
	store.armed.Store(true)
	g.release <- nil
	c.Wait()

	got, err := c.GetMigration(m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationFailed, got.Status)
	assert.Contains(t, *got.ErrorMessage, "disk full")

	p, err := c.GetProcess("task-123")
	require.NoError(t, err)
	assert.Equal(t, "server-a", *p.ServerID)
	assert.Equal(t, domain.ProcessRunning, p.Status)
	assert.Equal(t, 1, serverCount(t, c, "server-a"))
	assert.Equal(t, 0, serverCount(t, c, "server-d"))
	assertInvariants(t, c)
}

// stuckReleaseStore refuses to clear a process's migration guard once armed.
type stuckReleaseStore struct {
	domain.Store
	armed atomic.Bool
}

func (s *stuckReleaseStore) UpdateProcess(id string, patch domain.ProcessPatch) (*domain.Process, error) {
	if s.armed.Load() && patch.ClearMigration {
		return nil, errors.New("database is locked")
	}
	return s.Store.UpdateProcess(id, patch)
}

func TestInitiate_FailureKeepsPairOpenWhenReleaseFails(t *testing.T) {
	mem := storage.NewMemStore()
	_, err := storage.Seed(mem)
	require.NoError(t, err)
	store := &stuckReleaseStore{Store: mem}

	g := newGate()
	c := newCoordinator(t, store, g, time.Minute)

	m, err := c.Initiate("task-101", "server-c", "server-e")
	require.NoError(t, err)
	<-g.started
	store.armed.Store(true)
	g.release <- errs.Transfer("link down", nil)
	c.Wait()

	got, err := c.GetMigration(m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationInProgress, got.Status)
	assert.Nil(t, got.CompletedAt)
	require.NotNil(t, got.Process)
	assert.Equal(t, domain.ProcessMigrating, got.Process.Status)
	assert.Equal(t, m.ID, got.Process.MigrationID)
	assert.Zero(t, countLogs(c, domain.LevelError, "Migration failed for process task-101: link down"))
	assertInvariants(t, c)

	store.armed.Store(false)
	n, err := c.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = c.GetMigration(m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationFailed, got.Status)
	assert.Equal(t, domain.ProcessPaused, got.Process.Status)
	assert.Equal(t, "server-c", *got.Process.ServerID)
	assertInvariants(t, c)
}

func TestInitiate_LateDeadlineAfterSuccessfulTransfer(t *testing.T) {
	// The transfer returns success only after its deadline has passed.
	tr := transfer.Func(func(ctx context.Context, req transfer.Request) (transfer.Result, error) {
		<-ctx.Done()
		return transfer.Result{}, nil
	})
	c := newCoordinator(t, nil, tr, 20*time.Millisecond)

	m, err := c.Initiate("task-123", "server-a", "server-b")
	require.NoError(t, err)
	c.Wait()

	got, err := c.GetMigration(m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationCompleted, got.Status)
	assert.Nil(t, got.ErrorMessage)
	assert.Equal(t, "server-b", *got.Process.ServerID)
	assert.Equal(t, 0, serverCount(t, c, "server-a"))
	assert.Equal(t, 2, serverCount(t, c, "server-b"))
	assertInvariants(t, c)
}

func TestInitiate_RejectedAfterClose(t *testing.T) {
	c := newCoordinator(t, nil, newGate(), time.Minute)
	before, err := c.store.ListMigrations()
	require.NoError(t, err)

	require.NoError(t, c.Close(context.Background()))

	_, err = c.Initiate("task-123", "server-a", "server-b")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Contains(t, errs.Message(err), "shutting down")

	after, err := c.store.ListMigrations()
	require.NoError(t, err)
	assert.Len(t, after, len(before))

	p, err := c.GetProcess("task-123")
	require.NoError(t, err)
	assert.Equal(t, domain.ProcessRunning, p.Status)
	assertInvariants(t, c)
}

func TestInitiate_ReadersSeeWholeBatches(t *testing.T) {
	g := newGate()
	c := newCoordinator(t, nil, g, time.Minute)

	m, err := c.Initiate("task-123", "server-a", "server-b")
	require.NoError(t, err)
	<-g.started

	stop := make(chan struct{})
	done := make(chan struct{})
	var torn atomic.Int32
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			view, err := c.GetMigration(m.ID)
			if err != nil {
				torn.Add(1)
				return
			}
			onTarget := *view.Process.ServerID == "server-b"
			if (view.Status == domain.MigrationCompleted) != onTarget {
				torn.Add(1)
			}
			if view.Status == domain.MigrationCompleted &&
				(view.SourceServer.ProcessCount != 0 || view.TargetServer.ProcessCount != 2) {
				torn.Add(1)
			}
		}
	}()

	g.release <- nil
	c.Wait()
	close(stop)
	<-done
	assert.Zero(t, torn.Load())
}

func TestOverview_SuccessRate(t *testing.T) {
	assert.Equal(t, "100.0%", SuccessRate(0, 0))
	assert.Equal(t, "50.0%", SuccessRate(1, 1))
	assert.Equal(t, "66.7%", SuccessRate(2, 1))
	assert.Equal(t, "0.0%", SuccessRate(0, 3))

	g := newGate()
	c := newCoordinator(t, nil, g, time.Minute)

	ov, err := c.Overview()
	require.NoError(t, err)
	assert.Equal(t, "100.0%", ov.SuccessRate)
	assert.Equal(t, 3, ov.TotalProcesses)
	assert.Equal(t, 5, ov.ServerNodes)

	_, err = c.Initiate("task-123", "server-a", "server-d")
	require.NoError(t, err)
	<-g.started
	g.release <- nil
	c.Wait()

	_, err = c.Initiate("task-789", "server-b", "server-d")
	require.NoError(t, err)
	<-g.started
	g.release <- errs.Transfer("refused", nil)
	c.Wait()

	ov, err = c.Overview()
	require.NoError(t, err)
	assert.Equal(t, "50.0%", ov.SuccessRate)
	assert.Equal(t, 0, ov.ActiveMigrations)
}

func TestTopology_Views(t *testing.T) {
	c := newCoordinator(t, nil, newGate(), time.Minute)

	_, err := c.CreateProcess(context.Background(), ProcessSpec{ID: "loose", Type: "Idle"})
	require.NoError(t, err)

	views, err := c.ListProcesses()
	require.NoError(t, err)
	require.Len(t, views, 4)
	byID := make(map[string]domain.ProcessWithServer)
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.Nil(t, byID["loose"].Server)
	require.NotNil(t, byID["task-789"].Server)
	assert.Equal(t, "server-b", byID["task-789"].Server.ID)

	_, err = c.GetMigration("nope")
	assert.True(t, errs.IsNotFound(err))
}

func TestProcesses_Lifecycle(t *testing.T) {
	g := newGate()
	c := newCoordinator(t, nil, g, time.Minute)
	ctx := context.Background()

	p, err := c.CreateProcess(ctx, ProcessSpec{ID: "job-1", Type: "Render", ServerID: domain.StringPtr("server-e")})
	require.NoError(t, err)
	assert.Equal(t, domain.ProcessStopped, p.Status)
	assert.Equal(t, 1, serverCount(t, c, "server-e"))
	assert.Equal(t, 1, countLogs(c, domain.LevelInfo, "Process job-1 created on server-e"))

	_, err = c.CreateProcess(ctx, ProcessSpec{ID: "job-1", Type: "Render"})
	assert.True(t, errs.IsValidation(err))
	_, err = c.CreateProcess(ctx, ProcessSpec{ID: "job-2", Type: "Render", Status: domain.ProcessMigrating})
	assert.True(t, errs.IsValidation(err))
	_, err = c.CreateProcess(ctx, ProcessSpec{ID: "job-3", Type: "Render", ServerID: domain.StringPtr("server-z")})
	assert.True(t, errs.IsValidation(err))

	running := domain.ProcessRunning
	p, err = c.UpdateProcess("job-1", ProcessUpdate{Status: &running, ServerID: domain.StringPtr("server-d")})
	require.NoError(t, err)
	assert.Equal(t, domain.ProcessRunning, p.Status)
	assert.Equal(t, 0, serverCount(t, c, "server-e"))
	assert.Equal(t, 1, serverCount(t, c, "server-d"))
	assert.Equal(t, 1, countLogs(c, domain.LevelInfo, "Process job-1 updated: status=running, server=server-d"))

	p, err = c.UpdateProcess("job-1", ProcessUpdate{ServerID: domain.StringPtr("")})
	require.NoError(t, err)
	assert.Nil(t, p.ServerID)
	assert.Equal(t, 0, serverCount(t, c, "server-d"))

	migrating := domain.ProcessMigrating
	_, err = c.UpdateProcess("job-1", ProcessUpdate{Status: &migrating})
	assert.True(t, errs.IsValidation(err))
	_, err = c.UpdateProcess("nope", ProcessUpdate{Status: &running})
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, c.DeleteProcess("job-1"))
	assert.True(t, errs.IsNotFound(c.DeleteProcess("job-1")))
	assert.Equal(t, 1, countLogs(c, domain.LevelInfo, "Process job-1 deleted"))

	_, err = c.Initiate("task-123", "server-a", "server-b")
	require.NoError(t, err)
	<-g.started
	_, err = c.UpdateProcess("task-123", ProcessUpdate{Status: &running})
	assert.True(t, errs.IsValidation(err))
	assert.True(t, errs.IsValidation(c.DeleteProcess("task-123")))
	g.release <- nil
	c.Wait()

	require.NoError(t, c.DeleteProcess("task-123"))
	assert.Equal(t, 1, serverCount(t, c, "server-b"))
	assertInvariants(t, c)
}

func TestServers_Lifecycle(t *testing.T) {
	c := newCoordinator(t, nil, newGate(), time.Minute)

	srv, err := c.CreateServer(ServerSpec{Name: "Server-F", Host: "10.0.0.6", Port: 50056})
	require.NoError(t, err)
	assert.NotEmpty(t, srv.ID)
	assert.Equal(t, domain.ServerOffline, srv.Status)
	assert.Equal(t, domain.RoleSecondary, srv.Role)
	assert.Equal(t, "0GB", srv.MemoryUsage)
	assert.Zero(t, srv.ProcessCount)

	_, err = c.CreateServer(ServerSpec{Name: "Server-F"})
	assert.True(t, errs.IsValidation(err))
	_, err = c.CreateServer(ServerSpec{Name: "Server-G", Port: 70000})
	assert.True(t, errs.IsValidation(err))

	cpu := 33
	mem := "1.2GB"
	srv, err = c.ReportHealth(srv.ID, HealthReport{Online: true, CPUUsage: &cpu, MemoryUsage: &mem})
	require.NoError(t, err)
	assert.Equal(t, domain.ServerOnline, srv.Status)
	assert.Equal(t, 33, srv.CPUUsage)
	assert.Equal(t, 1, countLogs(c, domain.LevelInfo, "Server Server-F is online"))

	_, err = c.ReportHealth(srv.ID, HealthReport{Online: false})
	require.NoError(t, err)
	assert.Equal(t, 1, countLogs(c, domain.LevelWarn, "Server Server-F is offline"))

	_, err = c.UpdateServer(srv.ID, domain.ServerPatch{})
	assert.True(t, errs.IsValidation(err))

	assert.True(t, errs.IsValidation(c.DeleteServer("server-a")), "server still hosts task-123")
	require.NoError(t, c.DeleteServer(srv.ID))
	_, err = c.GetServer(srv.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestReconcile(t *testing.T) {
	mem := storage.NewMemStore()
	_, err := storage.Seed(mem)
	require.NoError(t, err)

	stale := &domain.Migration{
		ID:             "m-stale",
		ProcessID:      "task-101",
		SourceServerID: "server-c",
		TargetServerID: "server-d",
		Status:         domain.MigrationInProgress,
	}
	require.NoError(t, mem.CreateMigration(stale))
	migrating := domain.ProcessMigrating
	paused := domain.ProcessPaused
	_, err = mem.UpdateProcess("task-101", domain.ProcessPatch{
		Status:       &migrating,
		MigrationID:  &stale.ID,
		ResumeStatus: &paused,
	})
	require.NoError(t, err)

	c := newCoordinator(t, mem, newGate(), time.Minute)
	n, err := c.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := c.GetMigration("m-stale")
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationFailed, got.Status)
	assert.Equal(t, "interrupted by coordinator restart", *got.ErrorMessage)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, domain.ProcessPaused, got.Process.Status)
	assert.Equal(t, "server-c", *got.Process.ServerID)
	assertInvariants(t, c)

	n, err = c.Reconcile()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClearLogs(t *testing.T) {
	c := newCoordinator(t, nil, newGate(), time.Minute)
	_, err := c.CreateProcess(context.Background(), ProcessSpec{ID: "job-1", Type: "Render"})
	require.NoError(t, err)

	entry := c.ClearLogs()
	assert.Equal(t, "System logs cleared", entry.Message)
	logs := c.Logs(0)
	require.Len(t, logs, 1)
	assert.Equal(t, entry.ID, logs[0].ID)
}
