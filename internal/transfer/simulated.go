package transfer

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"shuttle/internal/errs"
)

// Simulated stands in for a real transfer: it waits Delay and then succeeds,
// unless the failure policy picks this migration to fail.
type Simulated struct {
	Delay time.Duration
	// FailureRate is the probability in [0, 1] that a transfer fails.
	FailureRate float64

	mu      sync.Mutex
	failFor map[string]bool
	rnd     *rand.Rand
}

func NewSimulated(delay time.Duration, failureRate float64) *Simulated {
	return &Simulated{
		Delay:       delay,
		FailureRate: failureRate,
		failFor:     make(map[string]bool),
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FailFor forces every transfer of processID to fail until cleared.
func (s *Simulated) FailFor(processID string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fail {
		s.failFor[processID] = true
	} else {
		delete(s.failFor, processID)
	}
}

func (s *Simulated) Transfer(ctx context.Context, req Request) (Result, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, errs.Transfer("transfer did not finish in time", ctx.Err())
		case <-timer.C:
		}
	}
	if s.shouldFail(req.Process.ID) {
		return Result{}, errs.Transfer(fmt.Sprintf("simulated transfer failure from %s to %s", req.Source.ID, req.Target.ID), nil)
	}
	return Result{StateData: req.Process.StateData}, nil
}

func (s *Simulated) shouldFail(processID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[processID] {
		return true
	}
	return s.FailureRate > 0 && s.rnd.Float64() < s.FailureRate
}
