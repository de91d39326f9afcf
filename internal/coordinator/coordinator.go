// Package coordinator owns the fleet topology and the migration state
// machine. Every multi-record mutation runs under the coordinator write lock
// and readers take the read lock, so a reader sees either the state before a
// batch or the state after it, never a half-applied one.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/errs"
	"shuttle/internal/logsink"
	"shuttle/internal/transfer"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 30 * time.Second

	component = "coordinator"
)

type Options struct {
	// Timeout bounds the execution phase of one migration.
	Timeout time.Duration
	Log     *zap.Logger
}

type Coordinator struct {
	store    domain.Store
	sink     *logsink.Sink
	transfer transfer.Transferer
	log      *zap.Logger
	timeout  time.Duration
	now      func() time.Time
	newID    func() string

	mu     sync.RWMutex
	wg     sync.WaitGroup
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

func New(store domain.Store, sink *logsink.Sink, tr transfer.Transferer, opts Options) *Coordinator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		store:    store,
		sink:     sink,
		transfer: tr,
		log:      opts.Log,
		timeout:  opts.Timeout,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Wait blocks until every admitted migration has reached a terminal state.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close stops admitting migrations, waits for in-flight executions until ctx
// is done, then aborts the rest. Aborted migrations end as failed.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		<-done
		return ctx.Err()
	}
}

func (c *Coordinator) Logs(limit int) []domain.LogEntry {
	return c.sink.List(limit)
}

func (c *Coordinator) ClearLogs() domain.LogEntry {
	return c.sink.Clear(component)
}

// storeErr keeps kinded store errors and marks everything else internal.
func (c *Coordinator) storeErr(op string, err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return e
	}
	c.log.Error("store operation failed", zap.String("op", op), zap.Error(err))
	return errs.Internal(op, err)
}
