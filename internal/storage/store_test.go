package storage

import (
	"path/filepath"
	"testing"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func stores(t *testing.T) map[string]domain.Store {
	t.Helper()
	gs, err := NewGormStore(filepath.Join(t.TempDir(), "shuttle.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = gs.Close() })
	return map[string]domain.Store{
		"memory": NewMemStore(),
		"gorm":   gs,
	}
}

func newServer(id string) *domain.Server {
	return &domain.Server{
		ID:     id,
		Name:   "srv-" + id,
		Host:   "localhost",
		Port:   50051,
		Status: domain.ServerOnline,
		Role:   domain.RoleSecondary,
	}
}

func TestStore_Servers(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.CreateServer(newServer("a")))
			require.NoError(t, store.CreateServer(newServer("b")))

			dup := newServer("c")
			dup.Name = "srv-a"
			assert.True(t, errs.IsValidation(store.CreateServer(dup)))

			got, err := store.GetServer("a")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "srv-a", got.Name)
			assert.False(t, got.CreatedAt.IsZero())

			missing, err := store.GetServer("zzz")
			require.NoError(t, err)
			assert.Nil(t, missing)

			status := domain.ServerOffline
			cpu := 71
			updated, err := store.UpdateServer("a", domain.ServerPatch{Status: &status, CPUUsage: &cpu})
			require.NoError(t, err)
			assert.Equal(t, domain.ServerOffline, updated.Status)
			assert.Equal(t, 71, updated.CPUUsage)
			assert.Equal(t, "srv-a", updated.Name)

			taken := "srv-b"
			_, err = store.UpdateServer("a", domain.ServerPatch{Name: &taken})
			assert.True(t, errs.IsValidation(err))

			none, err := store.UpdateServer("zzz", domain.ServerPatch{Status: &status})
			require.NoError(t, err)
			assert.Nil(t, none)

			require.NoError(t, store.SetProcessCount("b", 3))
			b, err := store.GetServer("b")
			require.NoError(t, err)
			assert.Equal(t, 3, b.ProcessCount)
			assert.True(t, errs.IsNotFound(store.SetProcessCount("zzz", 1)))

			servers, err := store.ListServers()
			require.NoError(t, err)
			assert.Len(t, servers, 2)
			assert.Equal(t, "a", servers[0].ID)
		})
	}
}

func TestStore_ProcessReferentialIntegrity(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.CreateServer(newServer("a")))

			orphan := &domain.Process{ID: "p0", Type: "batch", Status: domain.ProcessRunning, ServerID: domain.StringPtr("nope")}
			assert.True(t, errs.IsValidation(store.CreateProcess(orphan)))

			p := &domain.Process{ID: "p1", Type: "batch", Status: domain.ProcessRunning, ServerID: domain.StringPtr("a")}
			require.NoError(t, store.CreateProcess(p))
			assert.True(t, errs.IsValidation(store.CreateProcess(p)))

			_, err := store.UpdateProcess("p1", domain.ProcessPatch{ServerID: domain.StringPtr("nope")})
			assert.True(t, errs.IsValidation(err))

			_, err = store.DeleteServer("a")
			assert.True(t, errs.IsValidation(err))

			before, err := store.GetProcess("p1")
			require.NoError(t, err)
			time.Sleep(5 * time.Millisecond)

			paused := domain.ProcessPaused
			updated, err := store.UpdateProcess("p1", domain.ProcessPatch{Status: &paused, StateData: domain.StringPtr("blob")})
			require.NoError(t, err)
			assert.Equal(t, domain.ProcessPaused, updated.Status)
			require.NotNil(t, updated.StateData)
			assert.Equal(t, "blob", *updated.StateData)
			assert.True(t, updated.UpdatedAt.After(before.UpdatedAt))

			unassigned, err := store.UpdateProcess("p1", domain.ProcessPatch{ServerID: domain.StringPtr("")})
			require.NoError(t, err)
			assert.Nil(t, unassigned.ServerID)

			ok, err := store.DeleteProcess("p1")
			require.NoError(t, err)
			assert.True(t, ok)
			ok, err = store.DeleteProcess("p1")
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = store.DeleteServer("a")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestStore_Migrations(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.CreateServer(newServer("a")))
			require.NoError(t, store.CreateServer(newServer("b")))
			require.NoError(t, store.CreateProcess(&domain.Process{ID: "p1", Type: "batch", Status: domain.ProcessRunning, ServerID: domain.StringPtr("a")}))

			bad := &domain.Migration{ID: "m0", ProcessID: "ghost", SourceServerID: "a", TargetServerID: "b", Status: domain.MigrationPending}
			assert.True(t, errs.IsValidation(store.CreateMigration(bad)))

			base := time.Now()
			first := &domain.Migration{ID: "m1", ProcessID: "p1", SourceServerID: "a", TargetServerID: "b", Status: domain.MigrationPending, StartedAt: base}
			second := &domain.Migration{ID: "m2", ProcessID: "p1", SourceServerID: "b", TargetServerID: "a", Status: domain.MigrationPending, StartedAt: base.Add(time.Second)}
			require.NoError(t, store.CreateMigration(first))
			require.NoError(t, store.CreateMigration(second))

			failed := domain.MigrationFailed
			done := base.Add(2 * time.Second)
			msg := "target unreachable"
			m, err := store.UpdateMigration("m1", domain.MigrationPatch{Status: &failed, CompletedAt: &done, ErrorMessage: &msg})
			require.NoError(t, err)
			assert.Equal(t, domain.MigrationFailed, m.Status)
			require.NotNil(t, m.CompletedAt)
			require.NotNil(t, m.ErrorMessage)
			assert.Equal(t, msg, *m.ErrorMessage)
			assert.Equal(t, "p1", m.ProcessID)

			list, err := store.ListMigrations()
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "m2", list[0].ID)
			assert.Equal(t, "m1", list[1].ID)

			_, err = store.DeleteServer("b")
			assert.True(t, errs.IsValidation(err))
		})
	}
}

func TestStore_DeleteWithMigrationHistory(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.CreateServer(newServer("a")))
			require.NoError(t, store.CreateServer(newServer("b")))
			require.NoError(t, store.CreateProcess(&domain.Process{ID: "p1", Type: "batch", Status: domain.ProcessRunning, ServerID: domain.StringPtr("b")}))
			m := &domain.Migration{ID: "m1", ProcessID: "p1", SourceServerID: "a", TargetServerID: "b", Status: domain.MigrationInProgress}
			require.NoError(t, store.CreateMigration(m))

			_, err := store.DeleteProcess("p1")
			assert.True(t, errs.IsValidation(err), "open migration pins its process")
			_, err = store.DeleteServer("a")
			assert.True(t, errs.IsValidation(err), "open migration pins its source")

			completed := domain.MigrationCompleted
			_, err = store.UpdateMigration("m1", domain.MigrationPatch{Status: &completed})
			require.NoError(t, err)

			ok, err := store.DeleteProcess("p1")
			require.NoError(t, err)
			assert.True(t, ok)
			ok, err = store.DeleteServer("a")
			require.NoError(t, err)
			assert.True(t, ok)
			ok, err = store.DeleteServer("b")
			require.NoError(t, err)
			assert.True(t, ok)

			kept, err := store.GetMigration("m1")
			require.NoError(t, err)
			require.NotNil(t, kept)
			assert.Equal(t, "p1", kept.ProcessID)
			assert.Equal(t, domain.MigrationCompleted, kept.Status)
		})
	}
}

func TestStore_MigrationsSameStartTime(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.CreateServer(newServer("a")))
			require.NoError(t, store.CreateServer(newServer("b")))
			require.NoError(t, store.CreateProcess(&domain.Process{ID: "p1", Type: "batch", Status: domain.ProcessRunning, ServerID: domain.StringPtr("a")}))

			at := time.Now().Truncate(time.Second)
			ids := []string{"ffff", "0000", "8888", "1111"}
			for _, id := range ids {
				require.NoError(t, store.CreateMigration(&domain.Migration{
					ID: id, ProcessID: "p1", SourceServerID: "a", TargetServerID: "b",
					Status: domain.MigrationFailed, StartedAt: at,
				}))
			}

			list, err := store.ListMigrations()
			require.NoError(t, err)
			require.Len(t, list, len(ids))
			for i, m := range list {
				assert.Equal(t, ids[len(ids)-1-i], m.ID, "position %d", i)
			}
		})
	}
}

func TestSeed(t *testing.T) {
	store := NewMemStore()
	seeded, err := Seed(store)
	require.NoError(t, err)
	assert.True(t, seeded)

	servers, err := store.ListServers()
	require.NoError(t, err)
	require.Len(t, servers, 5)

	processes, err := store.ListProcesses()
	require.NoError(t, err)
	counts := make(map[string]int)
	for _, p := range processes {
		counts[*p.ServerID]++
	}
	for _, s := range servers {
		assert.Equal(t, counts[s.ID], s.ProcessCount, s.ID)
	}

	seeded, err = Seed(store)
	require.NoError(t, err)
	assert.False(t, seeded)
}
