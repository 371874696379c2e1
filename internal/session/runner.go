// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kryptobaseddev/aris/pkg/types"
)

// Runner executes independent sessions concurrently through one
// orchestrator, bounded by the configured concurrency limit. The shared
// breakers and ledger inside the orchestrator are the only state the
// sessions touch in common.
type Runner struct {
	orch *Orchestrator
	sem  *semaphore.Weighted
	log  *zap.Logger
}

// Outcome pairs a request with its finished session or error.
type Outcome struct {
	Request Request
	Session *types.Session
	Err     error
}

// NewRunner bounds concurrency at the orchestrator's configured
// MaxConcurrent.
func NewRunner(orch *Orchestrator) *Runner {
	return &Runner{
		orch: orch,
		sem:  semaphore.NewWeighted(int64(orch.cfg.Session.MaxConcurrent)),
		log:  orch.log,
	}
}

// RunAll executes every request, at most MaxConcurrent at a time, and
// returns outcomes in request order.
func (r *Runner) RunAll(ctx context.Context, reqs []Request) []Outcome {
	outcomes := make([]Outcome, len(reqs))
	var wg sync.WaitGroup

	for i, req := range reqs {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			outcomes[i] = Outcome{Request: req, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			defer r.sem.Release(1)
			sess, err := r.orch.Run(ctx, req)
			outcomes[i] = Outcome{Request: req, Session: sess, Err: err}
		}(i, req)
	}

	wg.Wait()
	return outcomes
}
