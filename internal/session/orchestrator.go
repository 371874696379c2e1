// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session drives the research state machine: plan, hop through
// search and reasoning under a budget, synthesize findings into a
// candidate document, and resolve it against stored documents through
// the deduplication gate and merger.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kryptobaseddev/aris/internal/breaker"
	"github.com/kryptobaseddev/aris/internal/cost"
	"github.com/kryptobaseddev/aris/internal/dedup"
	"github.com/kryptobaseddev/aris/internal/merge"
	"github.com/kryptobaseddev/aris/internal/provider"
	"github.com/kryptobaseddev/aris/internal/similarity"
	"github.com/kryptobaseddev/aris/pkg/types"
)

// ErrInvalidQuery rejects empty or whitespace queries at the boundary,
// before a session is created.
var ErrInvalidQuery = errors.New("query is empty")

// defaultTokenEstimate seeds the budget pre-check before any hop has
// run; later hops estimate from the previous hop's actual cost.
const defaultTokenEstimate = 2000

// extractsPerHop caps how many result pages a hop pulls full content
// for. Each extract is one search-cost operation.
const extractsPerHop = 2

// SummarySink receives the finalized session summary. The SQLite store
// implements it; tests substitute their own.
type SummarySink interface {
	SaveSummary(ctx context.Context, summary types.SessionSummary) error
}

// Deps are the orchestrator's collaborators. The breakers are
// process-wide singletons shared across concurrent sessions; Embedder
// and Sink are optional.
type Deps struct {
	Search    provider.SearchProvider
	Reasoning provider.ReasoningProvider
	Embedder  provider.Embedder
	Storage   provider.Storage
	Sink      SummarySink

	SearchBreaker    *breaker.Breaker
	ReasoningBreaker *breaker.Breaker
	EmbedBreaker     *breaker.Breaker

	Logger *zap.Logger
}

// Request is one research query.
type Request struct {
	Query string
	Depth types.Depth

	// BudgetLimit overrides the depth's default budget when positive.
	BudgetLimit float64

	// Strategy overrides the merge strategy; empty means integrate.
	Strategy types.MergeStrategy
}

// Orchestrator runs research sessions. It owns each session
// exclusively for the session's lifetime; independent sessions may run
// concurrently through one Orchestrator.
type Orchestrator struct {
	cfg    types.EngineConfig
	deps   Deps
	ledger *cost.Ledger
	gate   *dedup.Gate
	merger *merge.Merger
	log    *zap.Logger
}

// New builds an orchestrator. The similarity strategy is chosen here:
// embedding mode when an embedder is available, lexical otherwise.
func New(cfg types.EngineConfig, deps Deps) *Orchestrator {
	cfg.Normalize()
	mode := types.ModeLexical
	if deps.Embedder != nil {
		mode = types.ModeEmbedding
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		ledger: cost.NewLedger(cfg.Cost),
		gate:   dedup.NewGate(similarity.NewScorer(mode, cfg.Similarity), cfg.Dedup),
		merger: merge.NewMerger(cfg.Merge),
		log:    log,
	}
}

// Ledger exposes the orchestrator's cost ledger for reporting.
func (o *Orchestrator) Ledger() *cost.Ledger {
	return o.ledger
}

// Run executes one session to a terminal state. Budget exhaustion and
// hop-level failure are session outcomes, not errors; the returned
// error is reserved for invalid input and context cancellation.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*types.Session, error) {
	// PLANNING: validate before any state exists.
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrInvalidQuery
	}
	if req.Depth == "" {
		req.Depth = types.DepthStandard
	}

	profile := o.cfg.Session.Profile(req.Depth)
	budget := req.BudgetLimit
	if budget <= 0 {
		budget = profile.Budget
	}

	sess := &types.Session{
		ID:          uuid.NewString(),
		Query:       req.Query,
		Depth:       req.Depth,
		BudgetLimit: budget,
		Status:      types.StatusResearching,
		CreatedAt:   time.Now().UTC(),
	}
	log := o.log.With(zap.String("session", sess.ID), zap.String("depth", string(req.Depth)))
	log.Info("session planned", zap.String("query", req.Query), zap.Float64("budget", budget))

	o.research(ctx, sess, profile, log)

	if sess.Status == types.StatusSynthesizing {
		o.resolve(ctx, sess, req.Strategy, log)
	}

	o.finalize(ctx, sess, log)
	if err := ctx.Err(); err != nil {
		return sess, err
	}
	return sess, nil
}

// research runs the RESEARCHING loop, mutating sess until it reaches
// SYNTHESIZING or a terminal state.
func (o *Orchestrator) research(ctx context.Context, sess *types.Session, profile types.DepthProfile, log *zap.Logger) {
	var (
		consecutiveFailures int
		bestConfidence      float64
		plateau             int
		lastHopCost         float64
	)

	for hop := 1; hop <= profile.MaxHops; hop++ {
		if ctx.Err() != nil {
			sess.Status = types.StatusFailed
			sess.Warnings = append(sess.Warnings, "session cancelled")
			return
		}

		// Budget pre-check before issuing anything: estimate from the
		// previous hop's actual cost, or the configured default shape
		// for the first hop.
		estimate := lastHopCost
		if estimate <= 0 {
			estimate = o.ledger.HopCost(o.cfg.Session.SearchesPerHop, defaultTokenEstimate)
		}
		if !o.ledger.CanPerformOperation(sess.ID, estimate, sess.BudgetLimit) {
			log.Warn("budget exhausted before hop",
				zap.Int("hop", hop),
				zap.Float64("estimate", estimate),
				zap.Float64("total", o.ledger.Total(sess.ID)))
			sess.Status = types.StatusBudgetExhausted
			return
		}

		record, err := o.executeHop(ctx, sess, hop)
		if err != nil {
			consecutiveFailures++
			record = types.Hop{Number: hop, Failed: true, FailureReason: err.Error()}
			sess.Hops = append(sess.Hops, record)

			var open *breaker.ErrCircuitOpen
			if errors.As(err, &open) {
				// Circuit open is skipped like any transient failure
				// but logged distinctly so operators see the breaker.
				log.Warn("hop skipped: circuit open",
					zap.Int("hop", hop),
					zap.String("dependency", open.Dependency),
					zap.Duration("next_attempt_in", open.NextAttemptIn))
			} else {
				log.Warn("hop failed", zap.Int("hop", hop), zap.Error(err))
			}

			if consecutiveFailures > o.cfg.Session.RetryBudget {
				sess.Status = types.StatusFailed
				sess.Warnings = append(sess.Warnings,
					fmt.Sprintf("aborted after %d consecutive failed hops", consecutiveFailures))
				return
			}
			continue
		}
		consecutiveFailures = 0

		breakdown, alert, trackErr := o.ledger.TrackHopCost(
			sess.ID, hop, record.SearchCount, record.TokenCount, sess.BudgetLimit)
		if trackErr != nil {
			sess.Status = types.StatusFailed
			sess.Warnings = append(sess.Warnings, trackErr.Error())
			return
		}
		record.Cost = breakdown.Total
		lastHopCost = breakdown.Total
		sess.Hops = append(sess.Hops, record)
		sess.TotalCost = o.ledger.Total(sess.ID)
		if alert != nil {
			sess.Warnings = append(sess.Warnings, alert.Message)
			log.Warn("budget threshold crossed",
				zap.Int("threshold", alert.Threshold),
				zap.Float64("current", alert.Current),
				zap.Float64("limit", alert.Limit))
		}
		log.Info("hop complete",
			zap.Int("hop", hop),
			zap.Float64("cost", record.Cost),
			zap.Float64("confidence", record.Confidence))

		// Early exit once confidence plateaus or the target is hit.
		if record.Confidence >= o.cfg.Session.TargetConfidence {
			break
		}
		if record.Confidence < bestConfidence+o.cfg.Session.PlateauDelta {
			plateau++
			if plateau >= o.cfg.Session.PlateauHops {
				log.Info("confidence plateaued", zap.Int("hop", hop))
				break
			}
		} else {
			plateau = 0
			bestConfidence = record.Confidence
		}
	}

	if !anySucceeded(sess.Hops) {
		sess.Status = types.StatusFailed
		sess.Warnings = append(sess.Warnings, "no hop produced findings")
		return
	}
	sess.Status = types.StatusSynthesizing
}

// executeHop issues one hop's external calls: plan, search, extract,
// and hypothesis testing, each behind its dependency's breaker.
func (o *Orchestrator) executeHop(ctx context.Context, sess *types.Session, hopNumber int) (types.Hop, error) {
	plan, err := o.planHop(ctx, sess)
	if err != nil {
		return types.Hop{}, fmt.Errorf("planning hop %d: %w", hopNumber, err)
	}
	tokens := plan.TokensUsed

	results, searchOps, err := o.searchHop(ctx, plan.Query)
	if err != nil {
		return types.Hop{}, fmt.Errorf("searching hop %d: %w", hopNumber, err)
	}

	verdict, err := o.testHypothesis(ctx, plan.Hypothesis, results)
	if err != nil {
		return types.Hop{}, fmt.Errorf("testing hypothesis, hop %d: %w", hopNumber, err)
	}
	tokens += verdict.TokensUsed

	return types.Hop{
		Number:      hopNumber,
		SearchCount: searchOps,
		TokenCount:  tokens,
		Findings:    verdict.Findings,
		Claims:      verdict.Claims,
		Confidence:  verdict.Confidence,
	}, nil
}

func (o *Orchestrator) planHop(ctx context.Context, sess *types.Session) (provider.HopPlan, error) {
	if !o.deps.ReasoningBreaker.CanExecute() {
		return provider.HopPlan{}, o.deps.ReasoningBreaker.OpenError()
	}
	callCtx, cancel := o.callContext(ctx)
	defer cancel()

	plan, err := o.deps.Reasoning.PlanHop(callCtx, sess.Query, priorFindings(sess.Hops))
	if err != nil {
		o.deps.ReasoningBreaker.RecordFailure()
		return provider.HopPlan{}, err
	}
	o.deps.ReasoningBreaker.RecordSuccess()
	if plan.Query == "" {
		plan.Query = sess.Query
	}
	return plan, nil
}

// searchHop runs the hop's search plus a bounded number of page
// extractions, returning how many search-cost operations were spent.
func (o *Orchestrator) searchHop(ctx context.Context, query string) ([]provider.SearchResult, int, error) {
	if !o.deps.SearchBreaker.CanExecute() {
		return nil, 0, o.deps.SearchBreaker.OpenError()
	}
	callCtx, cancel := o.callContext(ctx)
	defer cancel()

	results, err := o.deps.Search.Search(callCtx, query, o.cfg.Search.MaxResults)
	if err != nil {
		o.deps.SearchBreaker.RecordFailure()
		return nil, 0, err
	}
	o.deps.SearchBreaker.RecordSuccess()
	ops := 1

	for i := 0; i < len(results) && i < extractsPerHop; i++ {
		if results[i].URL == "" {
			continue
		}
		if !o.deps.SearchBreaker.CanExecute() {
			break
		}
		extractCtx, cancelExtract := o.callContext(ctx)
		body, extractErr := o.deps.Search.Extract(extractCtx, results[i].URL)
		cancelExtract()
		ops++
		if extractErr != nil {
			// A failed extraction degrades the hop, not fails it; the
			// breaker still sees the outcome.
			o.deps.SearchBreaker.RecordFailure()
			continue
		}
		o.deps.SearchBreaker.RecordSuccess()
		results[i].Snippet = firstN(body, 2000)
	}
	return results, ops, nil
}

func (o *Orchestrator) testHypothesis(ctx context.Context, hypothesis string, evidence []provider.SearchResult) (provider.HypothesisResult, error) {
	if !o.deps.ReasoningBreaker.CanExecute() {
		return provider.HypothesisResult{}, o.deps.ReasoningBreaker.OpenError()
	}
	callCtx, cancel := o.callContext(ctx)
	defer cancel()

	verdict, err := o.deps.Reasoning.TestHypothesis(callCtx, hypothesis, evidence)
	if err != nil {
		o.deps.ReasoningBreaker.RecordFailure()
		return provider.HypothesisResult{}, err
	}
	o.deps.ReasoningBreaker.RecordSuccess()
	return verdict, nil
}

// resolve runs SYNTHESIZING and RESOLVING: build the candidate, decide
// through the gate, merge when needed, and persist.
func (o *Orchestrator) resolve(ctx context.Context, sess *types.Session, strategy types.MergeStrategy, log *zap.Logger) {
	candidate := synthesize(sess)
	sess.Status = types.StatusResolving

	o.attachEmbedding(ctx, &candidate, log)

	existing, err := o.deps.Storage.ListDocumentsByTopic(ctx, candidate.Topics)
	if err != nil {
		sess.Status = types.StatusFailed
		sess.Warnings = append(sess.Warnings, fmt.Sprintf("listing documents: %v", err))
		return
	}
	o.attachExistingEmbeddings(ctx, existing, log)

	decision := o.gate.CheckBeforeWrite(candidate, existing, sess.Query)
	log.Info("deduplication decision",
		zap.String("action", string(decision.Action)),
		zap.Float64("similarity", decision.Similarity),
		zap.Float64("confidence", decision.Confidence),
		zap.String("target", decision.TargetID))

	content := candidate.Content
	meta := types.DocumentMeta{
		Topics:     candidate.Topics,
		Confidence: candidate.Confidence,
		Purpose:    sess.Query,
		Sources:    candidate.Sources,
	}

	if decision.Action != types.ActionCreate {
		target, ok := findDocument(existing, decision.TargetID)
		if !ok {
			sess.Status = types.StatusFailed
			sess.Warnings = append(sess.Warnings, fmt.Sprintf("target document %s vanished", decision.TargetID))
			return
		}
		merged, report, mergeErr := o.merger.Merge(
			target.Content,
			types.DocumentMeta{Topics: target.Topics, Confidence: target.Confidence},
			candidate.Content, meta, strategy,
		)
		if mergeErr != nil {
			sess.Status = types.StatusFailed
			sess.Warnings = append(sess.Warnings, fmt.Sprintf("merge failed: %v", mergeErr))
			return
		}
		if report.Downgraded {
			sess.Warnings = append(sess.Warnings, report.DowngradeNote)
		}
		log.Info("merge applied",
			zap.String("strategy", string(report.Applied)),
			zap.Int("conflicts", len(report.Conflicts)),
			zap.Int("words_added", report.WordsAdded),
			zap.Int("words_removed", report.WordsRemoved))

		content = merged
		meta.Topics = unionTopics(target.Topics, candidate.Topics)
		if target.Confidence > meta.Confidence {
			meta.Confidence = target.Confidence
		}
	}

	docID, err := o.deps.Storage.Persist(ctx, decision.Action, decision.TargetID, content, meta)
	if err != nil {
		sess.Status = types.StatusFailed
		sess.Warnings = append(sess.Warnings, fmt.Sprintf("persisting document: %v", err))
		return
	}

	sess.Resolution = decision.Action
	sess.DocumentID = docID
	sess.Status = types.StatusComplete
}

// attachEmbedding embeds the candidate behind the embedding breaker.
// Failure degrades to lexical scoring rather than failing the session.
func (o *Orchestrator) attachEmbedding(ctx context.Context, candidate *types.CandidateDocument, log *zap.Logger) {
	if o.deps.Embedder == nil || o.deps.EmbedBreaker == nil {
		return
	}
	if !o.deps.EmbedBreaker.CanExecute() {
		log.Warn("embedding skipped: circuit open")
		return
	}
	callCtx, cancel := o.callContext(ctx)
	defer cancel()

	vec, err := o.deps.Embedder.Embed(callCtx, candidate.Content)
	if err != nil {
		o.deps.EmbedBreaker.RecordFailure()
		log.Warn("embedding failed, falling back to lexical content scoring", zap.Error(err))
		return
	}
	o.deps.EmbedBreaker.RecordSuccess()
	candidate.Embedding = vec
}

func (o *Orchestrator) attachExistingEmbeddings(ctx context.Context, docs []types.ExistingDocument, log *zap.Logger) {
	if o.deps.Embedder == nil || o.deps.EmbedBreaker == nil {
		return
	}
	for i := range docs {
		if !o.deps.EmbedBreaker.CanExecute() {
			return
		}
		callCtx, cancel := o.callContext(ctx)
		vec, err := o.deps.Embedder.Embed(callCtx, docs[i].Content)
		cancel()
		if err != nil {
			o.deps.EmbedBreaker.RecordFailure()
			log.Warn("embedding existing document failed", zap.String("document", docs[i].ID), zap.Error(err))
			continue
		}
		o.deps.EmbedBreaker.RecordSuccess()
		docs[i].Embedding = vec
	}
}

// finalize stamps the terminal state, records the summary, and hands it
// to the sink.
func (o *Orchestrator) finalize(ctx context.Context, sess *types.Session, log *zap.Logger) {
	if !sess.Status.Terminal() {
		sess.Status = types.StatusFailed
	}
	sess.TotalCost = o.ledger.Total(sess.ID)
	sess.CompletedAt = time.Now().UTC()

	log.Info("session finished",
		zap.String("status", string(sess.Status)),
		zap.Float64("total_cost", sess.TotalCost),
		zap.String("resolution", string(sess.Resolution)))

	if o.deps.Sink != nil {
		if err := o.deps.Sink.SaveSummary(ctx, o.Summary(sess)); err != nil {
			log.Warn("saving session summary failed", zap.Error(err))
		}
	}
}

// Summary builds the stable export record for a session.
func (o *Orchestrator) Summary(sess *types.Session) types.SessionSummary {
	ledgerSummary := o.ledger.SessionSummary(sess.ID)

	byNumber := make(map[int]types.CostBreakdown, len(ledgerSummary.Hops))
	for _, bd := range ledgerSummary.Hops {
		byNumber[bd.HopNumber] = bd
	}

	hops := make([]types.HopCost, 0, len(sess.Hops))
	for _, h := range sess.Hops {
		hc := types.HopCost{Number: h.Number, Failed: h.Failed}
		if bd, ok := byNumber[h.Number]; ok {
			hc.SearchCost = bd.SearchCost
			hc.ReasoningCost = bd.ReasoningCost
			hc.Total = bd.Total
		}
		hops = append(hops, hc)
	}

	return types.SessionSummary{
		SessionID:   sess.ID,
		Query:       sess.Query,
		Depth:       sess.Depth,
		Status:      sess.Status,
		TotalCost:   ledgerSummary.Total,
		BudgetLimit: sess.BudgetLimit,
		Hops:        hops,
		Alerts:      ledgerSummary.Alerts,
		Resolution:  sess.Resolution,
		DocumentID:  sess.DocumentID,
	}
}

// callContext bounds every external call with the provider timeout so
// a hung dependency cannot outlive the breaker's bookkeeping window.
func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.cfg.Search.Timeout)
}

func priorFindings(hops []types.Hop) []string {
	var findings []string
	for _, h := range hops {
		if !h.Failed && h.Findings != "" {
			findings = append(findings, h.Findings)
		}
	}
	return findings
}

func anySucceeded(hops []types.Hop) bool {
	for _, h := range hops {
		if !h.Failed {
			return true
		}
	}
	return false
}

func findDocument(docs []types.ExistingDocument, id string) (types.ExistingDocument, bool) {
	for _, d := range docs {
		if d.ID == id {
			return d, true
		}
	}
	return types.ExistingDocument{}, false
}

func unionTopics(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, t := range list {
			key := strings.ToLower(strings.TrimSpace(t))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, t)
		}
	}
	return out
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
