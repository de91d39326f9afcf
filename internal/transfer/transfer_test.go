package transfer

import (
	"context"
	"net"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"shuttle/internal/agent"
	"shuttle/internal/domain"
	"shuttle/internal/errs"
	"shuttle/internal/logsink"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func request(processID string) Request {
	return Request{
		MigrationID: "m1",
		Process:     domain.Process{ID: processID, Type: "batch", Status: domain.ProcessRunning, StateData: domain.StringPtr("s")},
		Source:      domain.Server{ID: "server-a"},
		Target:      domain.Server{ID: "server-b"},
	}
}

func TestSimulated_Transfer(t *testing.T) {
	sim := NewSimulated(0, 0)
	res, err := sim.Transfer(context.Background(), request("task-1"))
	require.NoError(t, err)
	require.NotNil(t, res.StateData)
	assert.Equal(t, "s", *res.StateData)

	sim.FailFor("task-1", true)
	_, err = sim.Transfer(context.Background(), request("task-1"))
	assert.True(t, errs.IsTransfer(err))

	sim.FailFor("task-1", false)
	_, err = sim.Transfer(context.Background(), request("task-1"))
	assert.NoError(t, err)
}

func TestSimulated_FailureRateOne(t *testing.T) {
	sim := NewSimulated(0, 1)
	_, err := sim.Transfer(context.Background(), request("task-1"))
	assert.True(t, errs.IsTransfer(err))
}

func TestSimulated_Timeout(t *testing.T) {
	sim := NewSimulated(time.Minute, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := sim.Transfer(ctx, request("task-1"))
	require.Error(t, err)
	assert.True(t, errs.IsTransfer(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func agentServer(t *testing.T, id string) (domain.Server, *agent.Client) {
	t.Helper()
	ts := httptest.NewServer(agent.NewServer(id, "127.0.0.1", 0, func() (agent.HostStats, error) {
		return agent.HostStats{}, nil
	}, zap.NewNop()).Handler())
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return domain.Server{ID: id, Host: host, Port: port, Status: domain.ServerOnline}, agent.NewClient(ts.URL, nil)
}

func TestAgent_Transfer(t *testing.T) {
	ctx := context.Background()
	source, sourceClient := agentServer(t, "server-a")
	target, targetClient := agentServer(t, "server-b")

	sink := logsink.New(10, nil)
	tr := NewAgent(time.Second, sink, zap.NewNop())
	p := domain.Process{ID: "task-1", Type: "Compute Task", Status: domain.ProcessRunning}
	require.NoError(t, tr.Launch(ctx, source, p))

	res, err := tr.Transfer(ctx, Request{MigrationID: "m1", Process: p, Source: source, Target: target})
	require.NoError(t, err)
	require.NotNil(t, res.StateData)
	assert.NotEmpty(t, *res.StateData)

	status, err := targetClient.Status(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "running", status.Status)

	_, err = sourceClient.Status(ctx, "task-1")
	assert.Error(t, err)

	trace := sink.List(0)
	require.Len(t, trace, 3)
	for _, e := range trace {
		assert.Equal(t, domain.LevelProtocol, e.Level)
	}
	assert.Contains(t, trace[0].Message, "ResumeProcess(task-1")
}

func TestAgent_TransferResumeFailureRestoresSource(t *testing.T) {
	ctx := context.Background()
	source, sourceClient := agentServer(t, "server-a")
	unreachable := domain.Server{ID: "server-x", Host: "127.0.0.1", Port: 1, Status: domain.ServerOnline}

	tr := NewAgent(time.Second, nil, zap.NewNop())
	p := domain.Process{ID: "task-1", Type: "batch", Status: domain.ProcessRunning}
	require.NoError(t, tr.Launch(ctx, source, p))

	_, err := tr.Transfer(ctx, Request{MigrationID: "m1", Process: p, Source: source, Target: unreachable})
	require.Error(t, err)
	assert.True(t, errs.IsTransfer(err))

	status, err := sourceClient.Status(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "running", status.Status)
}

func TestAgent_TransferUnknownProcess(t *testing.T) {
	source, _ := agentServer(t, "server-a")
	target, _ := agentServer(t, "server-b")
	tr := NewAgent(time.Second, nil, zap.NewNop())
	_, err := tr.Transfer(context.Background(), request("ghost"))
	assert.True(t, errs.IsTransfer(err))

	req := request("ghost")
	req.Source, req.Target = source, target
	_, err = tr.Transfer(context.Background(), req)
	assert.True(t, errs.IsTransfer(err))
}
