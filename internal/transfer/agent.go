package transfer

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"shuttle/internal/agent"
	"shuttle/internal/domain"
	"shuttle/internal/errs"
	"shuttle/internal/logsink"

	"go.uber.org/zap"
)

const forgetTimeout = 5 * time.Second

// Agent runs the pause/resume protocol against the process agents of the
// two servers: pause on the source yields the state, resume on the target
// installs it. A failed resume puts the process back on the source. Each
// protocol call is traced to the sink at PROTOCOL level when one is set.
type Agent struct {
	httpClient *http.Client
	scheme     string
	sink       *logsink.Sink
	log        *zap.Logger
}

var (
	_ Transferer = (*Agent)(nil)
	_ Launcher   = (*Agent)(nil)
)

func NewAgent(timeout time.Duration, sink *logsink.Sink, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{
		httpClient: &http.Client{Timeout: timeout},
		scheme:     "http",
		sink:       sink,
		log:        log,
	}
}

func (a *Agent) trace(format string, args ...any) {
	if a.sink != nil {
		a.sink.Append(domain.LevelProtocol, fmt.Sprintf(format, args...), "transfer")
	}
}

func (a *Agent) client(srv domain.Server) *agent.Client {
	return agent.NewClient(fmt.Sprintf("%s://%s", a.scheme, srv.Address()), a.httpClient)
}

func (a *Agent) Transfer(ctx context.Context, req Request) (Result, error) {
	source := a.client(req.Source)
	target := a.client(req.Target)

	a.trace("PauseProcess(%s) -> %s", req.Process.ID, req.Source.Address())
	state, err := source.Pause(ctx, req.Process.ID)
	if err != nil {
		return Result{}, errs.Transfer(fmt.Sprintf("pause %s on %s", req.Process.ID, req.Source.ID), err)
	}
	a.log.Debug("process paused", zap.String("process", req.Process.ID), zap.String("server", req.Source.ID), zap.Int("state_bytes", len(state.Data)))

	a.trace("ResumeProcess(%s, %d bytes) -> %s", req.Process.ID, len(state.Data), req.Target.Address())
	if _, err := target.Resume(ctx, req.Process.ID, state.Data); err != nil {
		if _, rerr := source.Resume(context.WithoutCancel(ctx), req.Process.ID, state.Data); rerr != nil {
			a.log.Error("could not resume process on source after failed transfer",
				zap.String("process", req.Process.ID), zap.String("server", req.Source.ID), zap.Error(rerr))
		}
		return Result{}, errs.Transfer(fmt.Sprintf("resume %s on %s", req.Process.ID, req.Target.ID), err)
	}
	// Past this point the target owns the process; cleanup must not depend
	// on the caller's deadline.
	forgetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), forgetTimeout)
	defer cancel()
	if err := source.Forget(forgetCtx, req.Process.ID); err != nil {
		a.log.Warn("could not remove migrated process from source", zap.String("process", req.Process.ID), zap.Error(err))
	}

	encoded := base64.StdEncoding.EncodeToString(state.Data)
	return Result{StateData: &encoded}, nil
}

func (a *Agent) Launch(ctx context.Context, srv domain.Server, p domain.Process) error {
	a.trace("StartProcess(%s) -> %s", p.ID, srv.Address())
	_, err := a.client(srv).Start(ctx, p.ID, p.Type)
	return err
}
