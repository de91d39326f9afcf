// Package health polls every server's process agent and folds the result
// into the fleet through the coordinator.
package health

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"shuttle/internal/agent"
	"shuttle/internal/coordinator"
	"shuttle/internal/domain"

	"go.uber.org/zap"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 2 * time.Second
)

// Probe asks one server how it is doing. An error means unreachable.
type Probe func(ctx context.Context, srv domain.Server) (coordinator.HealthReport, error)

// Fleet is the part of the coordinator the prober needs.
type Fleet interface {
	ListServers() ([]domain.Server, error)
	ReportHealth(id string, report coordinator.HealthReport) (*domain.Server, error)
}

type Prober struct {
	fleet    Fleet
	probe    Probe
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewProber(fleet Fleet, probe Probe, interval, timeout time.Duration, log *zap.Logger) *Prober {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Prober{fleet: fleet, probe: probe, interval: interval, timeout: timeout, log: log}
}

// AgentProbe reads the agent's /health endpoint over HTTP.
func AgentProbe(httpClient *http.Client) Probe {
	return func(ctx context.Context, srv domain.Server) (coordinator.HealthReport, error) {
		c := agent.NewClient("http://"+srv.Address(), httpClient)
		resp, err := c.Health(ctx)
		if err != nil {
			return coordinator.HealthReport{}, err
		}
		if resp.Status != "healthy" {
			return coordinator.HealthReport{}, fmt.Errorf("agent reports %q", resp.Status)
		}
		cpu := int(math.Round(resp.CPUPercent))
		if cpu > 100 {
			cpu = 100
		}
		mem := FormatGB(resp.MemoryUsed)
		return coordinator.HealthReport{Online: true, CPUUsage: &cpu, MemoryUsage: &mem}, nil
	}
}

func FormatGB(bytes uint64) string {
	return fmt.Sprintf("%.1fGB", float64(bytes)/(1<<30))
}

// Start launches the polling loop. Calling it twice is a no-op.
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

func (p *Prober) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Prober) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.ProbeAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProbeAll(ctx)
		}
	}
}

// ProbeAll checks every server once, in parallel.
func (p *Prober) ProbeAll(ctx context.Context) {
	servers, err := p.fleet.ListServers()
	if err != nil {
		p.log.Error("failed to list servers for health probe", zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	for _, srv := range servers {
		wg.Add(1)
		go func(srv domain.Server) {
			defer wg.Done()
			p.probeOne(ctx, srv)
		}(srv)
	}
	wg.Wait()
}

func (p *Prober) probeOne(ctx context.Context, srv domain.Server) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	report, err := p.probe(probeCtx, srv)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.log.Debug("health probe failed", zap.String("server", srv.ID), zap.Error(err))
		report = coordinator.HealthReport{Online: false}
	}
	if _, err := p.fleet.ReportHealth(srv.ID, report); err != nil {
		p.log.Warn("failed to record server health", zap.String("server", srv.ID), zap.Error(err))
	}
}
