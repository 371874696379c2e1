// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryptobaseddev/aris/internal/breaker"
	"github.com/kryptobaseddev/aris/internal/provider"
	"github.com/kryptobaseddev/aris/pkg/types"
)

type fakeSearch struct {
	mu      sync.Mutex
	results []provider.SearchResult
	err     error
	calls   int
}

func (f *fakeSearch) Search(_ context.Context, _ string, _ int) ([]provider.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeSearch) Extract(_ context.Context, _ string) (string, error) {
	return "full page text", nil
}

type fakeReasoning struct {
	mu         sync.Mutex
	planTokens int
	verdicts   []provider.HypothesisResult
	hop        int
}

func (f *fakeReasoning) PlanHop(_ context.Context, query string, _ []string) (provider.HopPlan, error) {
	return provider.HopPlan{Query: query, Hypothesis: "h", TokensUsed: f.planTokens}, nil
}

func (f *fakeReasoning) TestHypothesis(_ context.Context, _ string, _ []provider.SearchResult) (provider.HypothesisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.hop
	if i >= len(f.verdicts) {
		i = len(f.verdicts) - 1
	}
	f.hop++
	return f.verdicts[i], nil
}

type persistCall struct {
	action  types.DedupAction
	target  string
	content string
	meta    types.DocumentMeta
}

type fakeStorage struct {
	mu        sync.Mutex
	docs      []types.ExistingDocument
	listErr   error
	persisted []persistCall
}

func (f *fakeStorage) ListDocumentsByTopic(_ context.Context, _ []string) ([]types.ExistingDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.docs, nil
}

func (f *fakeStorage) Persist(_ context.Context, action types.DedupAction, targetID, content string, meta types.DocumentMeta) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persisted = append(f.persisted, persistCall{action: action, target: targetID, content: content, meta: meta})
	if action == types.ActionCreate {
		return fmt.Sprintf("doc-%d", len(f.persisted)), nil
	}
	return targetID, nil
}

type fakeSink struct {
	mu        sync.Mutex
	summaries []types.SessionSummary
	err       error
}

func (f *fakeSink) SaveSummary(_ context.Context, s types.SessionSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, s)
	return f.err
}

func testConfig() types.EngineConfig {
	var cfg types.EngineConfig
	cfg.Normalize()
	return cfg
}

func testDeps(cfg types.EngineConfig, search provider.SearchProvider, reason provider.ReasoningProvider, storage provider.Storage, sink SummarySink) Deps {
	return Deps{
		Search:           search,
		Reasoning:        reason,
		Storage:          storage,
		Sink:             sink,
		SearchBreaker:    breaker.New("search", cfg.Breaker),
		ReasoningBreaker: breaker.New("reasoning", cfg.Breaker),
	}
}

func happyVerdict(conf float64) provider.HypothesisResult {
	return provider.HypothesisResult{
		Findings: "Transformer attention mechanisms weigh the relevance of every token.",
		Claims: []types.Claim{{
			Subject:    "transformers",
			Statement:  "attention weighs token relevance",
			Sources:    []string{"https://example.org/attention"},
			Confidence: conf,
		}},
		Confidence: conf,
		TokensUsed: 1500,
	}
}

func TestRunCompletesAndCreatesDocument(t *testing.T) {
	cfg := testConfig()
	search := &fakeSearch{results: []provider.SearchResult{{Title: "paper", Snippet: "attention"}}}
	reason := &fakeReasoning{planTokens: 500, verdicts: []provider.HypothesisResult{happyVerdict(0.95)}}
	storage := &fakeStorage{}
	sink := &fakeSink{}

	orch := New(cfg, testDeps(cfg, search, reason, storage, sink))
	sess, err := orch.Run(context.Background(), Request{
		Query: "transformer attention mechanisms",
		Depth: types.DepthStandard,
	})
	require.NoError(t, err)

	assert.Equal(t, types.StatusComplete, sess.Status)
	assert.Equal(t, types.ActionCreate, sess.Resolution)
	assert.Equal(t, "doc-1", sess.DocumentID)

	// Confidence hit the target on the first hop, so one hop sufficed:
	// one search plus 2000 reasoning tokens at default rates.
	require.Len(t, sess.Hops, 1)
	assert.Equal(t, 1, sess.Hops[0].SearchCount)
	assert.Equal(t, 2000, sess.Hops[0].TokenCount)
	assert.InDelta(t, 0.04, sess.TotalCost, 1e-9)

	require.Len(t, storage.persisted, 1)
	assert.Equal(t, types.ActionCreate, storage.persisted[0].action)
	assert.Contains(t, storage.persisted[0].content, "# Findings")
	assert.Contains(t, storage.persisted[0].content, "# Claims")
	assert.Equal(t, []string{"transformers"}, storage.persisted[0].meta.Topics)

	require.Len(t, sink.summaries, 1)
	assert.Equal(t, sess.ID, sink.summaries[0].SessionID)
	assert.Equal(t, types.StatusComplete, sink.summaries[0].Status)
	assert.InDelta(t, 0.04, sink.summaries[0].TotalCost, 1e-9)
}

func TestRunUpdatesNearDuplicateDocument(t *testing.T) {
	cfg := testConfig()
	makeOrch := func(storage *fakeStorage) *Orchestrator {
		search := &fakeSearch{results: []provider.SearchResult{{Title: "paper"}}}
		reason := &fakeReasoning{planTokens: 500, verdicts: []provider.HypothesisResult{happyVerdict(0.95)}}
		return New(cfg, testDeps(cfg, search, reason, storage, nil))
	}

	first := &fakeStorage{}
	_, err := makeOrch(first).Run(context.Background(), Request{Query: "transformer attention mechanisms"})
	require.NoError(t, err)
	require.Len(t, first.persisted, 1)

	// A second identical session against a store holding the first
	// session's document must update it rather than create a twin.
	second := &fakeStorage{docs: []types.ExistingDocument{{
		ID:          "doc-1",
		Content:     first.persisted[0].content,
		Topics:      first.persisted[0].meta.Topics,
		Confidence:  first.persisted[0].meta.Confidence,
		LastUpdated: time.Now(),
	}}}
	sess, err := makeOrch(second).Run(context.Background(), Request{Query: "transformer attention mechanisms"})
	require.NoError(t, err)

	assert.Equal(t, types.StatusComplete, sess.Status)
	assert.Equal(t, types.ActionUpdate, sess.Resolution)
	assert.Equal(t, "doc-1", sess.DocumentID)
	require.Len(t, second.persisted, 1)
	assert.Equal(t, types.ActionUpdate, second.persisted[0].action)
	assert.Equal(t, "doc-1", second.persisted[0].target)
}

func TestRunExhaustsBudgetBeforeThirdHop(t *testing.T) {
	cfg := testConfig()
	// $0.01/1000 tokens makes each hop cost exactly $0.20: one search
	// plus 19000 tokens.
	cfg.Cost.PerThousandTokenRate = 0.01

	search := &fakeSearch{results: []provider.SearchResult{{Title: "paper"}}}
	reason := &fakeReasoning{planTokens: 9000, verdicts: []provider.HypothesisResult{{
		Findings:   "inconclusive",
		Confidence: 0.3,
		TokensUsed: 10000,
	}}}
	storage := &fakeStorage{}

	orch := New(cfg, testDeps(cfg, search, reason, storage, nil))
	sess, err := orch.Run(context.Background(), Request{
		Query:       "obscure topic",
		Depth:       types.DepthStandard,
		BudgetLimit: 0.50,
	})
	require.NoError(t, err)

	// Two $0.20 hops fit; the pre-check for the third ($0.40 + $0.20 >
	// $0.50) halts the session before any further spend.
	assert.Equal(t, types.StatusBudgetExhausted, sess.Status)
	assert.InDelta(t, 0.40, sess.TotalCost, 1e-9)
	assert.Len(t, sess.Hops, 2)
	assert.Empty(t, sess.Resolution)
	assert.Empty(t, sess.DocumentID)
	assert.Empty(t, storage.persisted)

	// The second hop crossed 75% of budget.
	require.NotEmpty(t, sess.Warnings)
	assert.Contains(t, sess.Warnings[0], "75%")

	summary := orch.Summary(sess)
	require.Len(t, summary.Alerts, 1)
	assert.Equal(t, 75, summary.Alerts[0].Threshold)
}

func TestRunFailsAfterConsecutiveHopFailures(t *testing.T) {
	cfg := testConfig()
	search := &fakeSearch{err: errors.New("search backend down")}
	reason := &fakeReasoning{planTokens: 500, verdicts: []provider.HypothesisResult{happyVerdict(0.5)}}
	storage := &fakeStorage{}

	deps := testDeps(cfg, search, reason, storage, nil)
	orch := New(cfg, deps)
	sess, err := orch.Run(context.Background(), Request{Query: "anything", Depth: types.DepthDeep})
	require.NoError(t, err)

	// RetryBudget 2 tolerates two consecutive failures; the third fails
	// the session. Failed hops cost nothing.
	assert.Equal(t, types.StatusFailed, sess.Status)
	require.Len(t, sess.Hops, 3)
	for _, h := range sess.Hops {
		assert.True(t, h.Failed)
		assert.Contains(t, h.FailureReason, "search backend down")
	}
	assert.Zero(t, sess.TotalCost)
	assert.Empty(t, storage.persisted)

	// The search breaker saw every failure.
	assert.Equal(t, 3, deps.SearchBreaker.Status().FailureCount)
}

func TestRunSkipsHopsWhileCircuitOpen(t *testing.T) {
	cfg := testConfig()
	search := &fakeSearch{results: []provider.SearchResult{{Title: "paper"}}}
	reason := &fakeReasoning{planTokens: 500, verdicts: []provider.HypothesisResult{happyVerdict(0.95)}}
	storage := &fakeStorage{}

	deps := testDeps(cfg, search, reason, storage, nil)
	for i := 0; i < 5; i++ {
		deps.SearchBreaker.RecordFailure()
	}
	require.False(t, deps.SearchBreaker.CanExecute())

	orch := New(cfg, deps)
	sess, err := orch.Run(context.Background(), Request{Query: "anything"})
	require.NoError(t, err)

	// Every hop was refused without touching the provider.
	assert.Equal(t, types.StatusFailed, sess.Status)
	require.Len(t, sess.Hops, 3)
	for _, h := range sess.Hops {
		assert.True(t, h.Failed)
		assert.Contains(t, h.FailureReason, "circuit open")
	}
	assert.Zero(t, search.calls)
}

func TestRunStopsOnConfidencePlateau(t *testing.T) {
	cfg := testConfig()
	search := &fakeSearch{results: []provider.SearchResult{{Title: "paper"}}}
	reason := &fakeReasoning{planTokens: 500, verdicts: []provider.HypothesisResult{
		happyVerdict(0.50),
		happyVerdict(0.52),
		happyVerdict(0.53),
		happyVerdict(0.90),
	}}
	storage := &fakeStorage{}

	orch := New(cfg, testDeps(cfg, search, reason, storage, nil))
	sess, err := orch.Run(context.Background(), Request{Query: "transformer attention", Depth: types.DepthDeep})
	require.NoError(t, err)

	// Hops 2 and 3 improved by less than the plateau delta, ending the
	// loop well before the deep profile's hop ceiling.
	assert.Equal(t, types.StatusComplete, sess.Status)
	assert.Len(t, sess.Hops, 3)
}

func TestRunRejectsEmptyQuery(t *testing.T) {
	cfg := testConfig()
	orch := New(cfg, testDeps(cfg, &fakeSearch{}, &fakeReasoning{verdicts: []provider.HypothesisResult{{}}}, &fakeStorage{}, nil))

	_, err := orch.Run(context.Background(), Request{Query: "   "})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestRunFailsWhenStorageListErrors(t *testing.T) {
	cfg := testConfig()
	search := &fakeSearch{results: []provider.SearchResult{{Title: "paper"}}}
	reason := &fakeReasoning{planTokens: 500, verdicts: []provider.HypothesisResult{happyVerdict(0.95)}}
	storage := &fakeStorage{listErr: errors.New("disk gone")}

	orch := New(cfg, testDeps(cfg, search, reason, storage, nil))
	sess, err := orch.Run(context.Background(), Request{Query: "anything"})
	require.NoError(t, err)

	assert.Equal(t, types.StatusFailed, sess.Status)
	require.NotEmpty(t, sess.Warnings)
	assert.Contains(t, sess.Warnings[0], "disk gone")
}

func TestRunToleratesSinkFailure(t *testing.T) {
	cfg := testConfig()
	search := &fakeSearch{results: []provider.SearchResult{{Title: "paper"}}}
	reason := &fakeReasoning{planTokens: 500, verdicts: []provider.HypothesisResult{happyVerdict(0.95)}}
	sink := &fakeSink{err: errors.New("sink unavailable")}

	orch := New(cfg, testDeps(cfg, search, reason, &fakeStorage{}, sink))
	sess, err := orch.Run(context.Background(), Request{Query: "anything"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, sess.Status)
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float64{1, 0, 0}, nil
}

func TestRunEmbedsCandidateAndExistingDocuments(t *testing.T) {
	cfg := testConfig()
	search := &fakeSearch{results: []provider.SearchResult{{Title: "paper"}}}
	reason := &fakeReasoning{planTokens: 500, verdicts: []provider.HypothesisResult{happyVerdict(0.95)}}
	storage := &fakeStorage{docs: []types.ExistingDocument{{
		ID:          "doc-1",
		Content:     "Transformer attention mechanisms weigh the relevance of every token.",
		Topics:      []string{"transformers"},
		Confidence:  0.9,
		LastUpdated: time.Now(),
	}}}
	embedder := &fakeEmbedder{}

	deps := testDeps(cfg, search, reason, storage, nil)
	deps.Embedder = embedder
	deps.EmbedBreaker = breaker.New("embedding", cfg.Breaker)

	orch := New(cfg, deps)
	sess, err := orch.Run(context.Background(), Request{Query: "transformer attention mechanisms"})
	require.NoError(t, err)

	assert.Equal(t, types.StatusComplete, sess.Status)
	// Candidate plus one existing document.
	assert.Equal(t, 2, embedder.calls)
	// Identical embeddings read as identical content.
	assert.Equal(t, types.ActionUpdate, sess.Resolution)
}

func TestRunDegradesToLexicalWhenEmbeddingFails(t *testing.T) {
	cfg := testConfig()
	search := &fakeSearch{results: []provider.SearchResult{{Title: "paper"}}}
	reason := &fakeReasoning{planTokens: 500, verdicts: []provider.HypothesisResult{happyVerdict(0.95)}}
	embedder := &fakeEmbedder{err: errors.New("embedding service down")}

	deps := testDeps(cfg, search, reason, &fakeStorage{}, nil)
	deps.Embedder = embedder
	deps.EmbedBreaker = breaker.New("embedding", cfg.Breaker)

	orch := New(cfg, deps)
	sess, err := orch.Run(context.Background(), Request{Query: "anything at all"})
	require.NoError(t, err)

	assert.Equal(t, types.StatusComplete, sess.Status)
	assert.Equal(t, types.ActionCreate, sess.Resolution)
}

func TestSummaryMatchesLedger(t *testing.T) {
	cfg := testConfig()
	search := &fakeSearch{results: []provider.SearchResult{{Title: "paper"}}}
	reason := &fakeReasoning{planTokens: 500, verdicts: []provider.HypothesisResult{
		happyVerdict(0.50),
		happyVerdict(0.95),
	}}

	orch := New(cfg, testDeps(cfg, search, reason, &fakeStorage{}, nil))
	sess, err := orch.Run(context.Background(), Request{Query: "transformer attention"})
	require.NoError(t, err)

	summary := orch.Summary(sess)
	assert.Equal(t, sess.ID, summary.SessionID)
	assert.Equal(t, sess.Status, summary.Status)
	require.Len(t, summary.Hops, 2)
	for i, hc := range summary.Hops {
		assert.Equal(t, i+1, hc.Number)
		assert.InDelta(t, sess.Hops[i].Cost, hc.Total, 1e-9)
		assert.False(t, hc.Failed)
	}
	assert.InDelta(t, sess.TotalCost, summary.TotalCost, 1e-9)
}
