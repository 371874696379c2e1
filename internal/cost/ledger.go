// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cost tracks per-session monetary spend against a budget and
// raises threshold alerts as the running total approaches the limit.
package cost

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kryptobaseddev/aris/pkg/types"
)

// alertThresholds are the budget percentages that raise an alert, in
// firing order. Each fires at most once per session.
var alertThresholds = []int{75, 90, 100}

// sessionCosts is one session's ledger entries. Hop costs are keyed by
// hop number so a retried write replaces rather than double-counts.
type sessionCosts struct {
	mu sync.Mutex

	hops  map[int]types.CostBreakdown
	total float64
	fired map[int]bool
	alerts []types.BudgetAlert
}

// Ledger accounts for hop costs across concurrent sessions. Entries
// for distinct sessions never contend; hops of one session serialize
// through that session's lock so the read-recompute-write cycle stays
// atomic if hops are ever parallelized.
type Ledger struct {
	mu       sync.Mutex
	cfg      types.CostConfig
	sessions map[string]*sessionCosts
}

// NewLedger returns an empty ledger priced by cfg.
func NewLedger(cfg types.CostConfig) *Ledger {
	cfg.Normalize()
	return &Ledger{
		cfg:      cfg,
		sessions: make(map[string]*sessionCosts),
	}
}

// round4 rounds to four decimal places so totals are reproducible
// regardless of accumulation order.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// HopCost prices a hop without recording it: searchCount searches plus
// tokenCount reasoning tokens under the ledger's linear rates.
func (l *Ledger) HopCost(searchCount, tokenCount int) float64 {
	searchCost := float64(searchCount) * l.cfg.PerSearchRate
	reasoningCost := float64(tokenCount) / 1000 * l.cfg.PerThousandTokenRate
	return round4(searchCost + reasoningCost)
}

// TrackHopCost records one hop's cost, recomputes the session total
// from all recorded hops, and evaluates budget thresholds against
// budgetLimit. The returned alert is nil unless this call crossed a
// threshold that had not fired before.
func (l *Ledger) TrackHopCost(sessionID string, hopNumber, searchCount, tokenCount int, budgetLimit float64) (types.CostBreakdown, *types.BudgetAlert, error) {
	if sessionID == "" {
		return types.CostBreakdown{}, nil, fmt.Errorf("session id is empty")
	}
	if searchCount < 0 || tokenCount < 0 {
		return types.CostBreakdown{}, nil, fmt.Errorf("negative counts: searches=%d tokens=%d", searchCount, tokenCount)
	}

	sc := l.session(sessionID)
	sc.mu.Lock()
	defer sc.mu.Unlock()

	bd := types.CostBreakdown{
		SessionID:     sessionID,
		HopNumber:     hopNumber,
		SearchCost:    round4(float64(searchCount) * l.cfg.PerSearchRate),
		ReasoningCost: round4(float64(tokenCount) / 1000 * l.cfg.PerThousandTokenRate),
	}
	bd.Total = round4(bd.SearchCost + bd.ReasoningCost)
	sc.hops[hopNumber] = bd

	// Recompute from the hop map rather than incrementing, so retried
	// or partial writes converge on the same total.
	var total float64
	for _, h := range sc.hops {
		total += h.Total
	}
	sc.total = round4(total)

	var alert *types.BudgetAlert
	if budgetLimit > 0 {
		pct := sc.total / budgetLimit * 100
		for _, threshold := range alertThresholds {
			if pct >= float64(threshold) && !sc.fired[threshold] {
				sc.fired[threshold] = true
				a := types.BudgetAlert{
					Threshold: threshold,
					Message:   fmt.Sprintf("session %s has used %d%% of its budget ($%.4f of $%.4f)", sessionID, threshold, sc.total, budgetLimit),
					Current:   sc.total,
					Limit:     budgetLimit,
				}
				sc.alerts = append(sc.alerts, a)
				alert = &a
			}
		}
	}

	return bd, alert, nil
}

// CanPerformOperation is a pure pre-check: it reports whether adding
// estimatedCost to the session's current total would stay within
// budgetLimit. It mutates nothing.
func (l *Ledger) CanPerformOperation(sessionID string, estimatedCost, budgetLimit float64) bool {
	if estimatedCost < 0 {
		return false
	}
	sc := l.session(sessionID)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return round4(sc.total+estimatedCost) <= budgetLimit
}

// Summary holds a session's accounting state for reporting.
type Summary struct {
	SessionID string
	Total     float64
	Hops      []types.CostBreakdown
	Alerts    []types.BudgetAlert
}

// SessionSummary returns the session's running total, per-hop
// breakdowns ordered by hop number, and alert history.
func (l *Ledger) SessionSummary(sessionID string) Summary {
	sc := l.session(sessionID)
	sc.mu.Lock()
	defer sc.mu.Unlock()

	hops := make([]types.CostBreakdown, 0, len(sc.hops))
	for _, h := range sc.hops {
		hops = append(hops, h)
	}
	sort.Slice(hops, func(i, j int) bool { return hops[i].HopNumber < hops[j].HopNumber })

	alerts := make([]types.BudgetAlert, len(sc.alerts))
	copy(alerts, sc.alerts)

	return Summary{
		SessionID: sessionID,
		Total:     sc.total,
		Hops:      hops,
		Alerts:    alerts,
	}
}

// Total returns the session's current running total.
func (l *Ledger) Total(sessionID string) float64 {
	sc := l.session(sessionID)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.total
}

func (l *Ledger) session(id string) *sessionCosts {
	l.mu.Lock()
	defer l.mu.Unlock()
	sc, ok := l.sessions[id]
	if !ok {
		sc = &sessionCosts{
			hops:  make(map[int]types.CostBreakdown),
			fired: make(map[int]bool),
		}
		l.sessions[id] = sc
	}
	return sc
}
