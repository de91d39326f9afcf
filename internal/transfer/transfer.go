// Package transfer moves a process's state from its source server to its
// target server. The coordinator calls a Transferer once per migration, off
// the caller's path, under a context bounded by the migration timeout.
package transfer

import (
	"context"

	"shuttle/internal/domain"
)

type Request struct {
	MigrationID string
	Process     domain.Process
	Source      domain.Server
	Target      domain.Server
}

type Result struct {
	// StateData is the process state as it landed on the target. Nil keeps
	// the process's current state_data.
	StateData *string
}

type Transferer interface {
	Transfer(ctx context.Context, req Request) (Result, error)
}

// Launcher is implemented by transferers that can also start a process on a
// server when the process is first assigned there.
type Launcher interface {
	Launch(ctx context.Context, srv domain.Server, p domain.Process) error
}

type Func func(ctx context.Context, req Request) (Result, error)

func (f Func) Transfer(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
