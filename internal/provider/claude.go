// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	"github.com/kryptobaseddev/aris/internal/httputil"
)

// claudeAPIURL is the Claude Messages API endpoint. Package-level var
// for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const claudeMaxTokens = 4096

// planPromptTmpl asks the model to plan the next research hop given the
// question and what earlier hops found. The response must be bare JSON.
var planPromptTmpl = template.Must(template.New("plan").Parse(`You are a research planning system. Given a research question and the findings gathered so far, plan the next research step.

Respond with a JSON object and nothing else:
{"query": "the search query to issue next", "hypothesis": "the specific hypothesis this step should test"}

Research question:
{{.Query}}
{{if .Prior}}
Findings so far:
{{range .Prior}}- {{.}}
{{end}}{{end}}`))

// hypothesisPromptTmpl asks the model to judge a hypothesis against the
// gathered evidence and extract structured claims.
var hypothesisPromptTmpl = template.Must(template.New("hypothesis").Parse(`You are a research evaluation system. Judge the hypothesis below against the evidence and extract the supported claims.

Respond with a JSON object and nothing else:
{"findings": "a paragraph summarizing what the evidence shows", "claims": [{"subject": "lowercase topic", "statement": "the claim", "sources": ["url"], "confidence": 0.0}], "confidence": 0.0}

confidence is your overall certainty in the findings, between 0.0 and 1.0.

Hypothesis:
{{.Hypothesis}}

Evidence:
{{range .Evidence}}- {{.Title}}: {{.Snippet}} ({{.URL}})
{{end}}`))

// ClaudeReasoner implements ReasoningProvider against the Claude
// Messages API. Token usage reported by the API feeds the cost ledger.
type ClaudeReasoner struct {
	APIKey string
	Model  string
	Client *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
	Usage   claudeUsage     `json:"usage"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// PlanHop asks the model for the next search query and hypothesis.
func (c *ClaudeReasoner) PlanHop(ctx context.Context, query string, priorFindings []string) (HopPlan, error) {
	var prompt bytes.Buffer
	if err := planPromptTmpl.Execute(&prompt, struct {
		Query string
		Prior []string
	}{query, priorFindings}); err != nil {
		return HopPlan{}, fmt.Errorf("rendering plan prompt: %w", err)
	}

	text, tokens, err := c.complete(ctx, prompt.String())
	if err != nil {
		return HopPlan{}, err
	}

	var plan HopPlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return HopPlan{}, fmt.Errorf("parsing plan response: %w", err)
	}
	plan.TokensUsed = tokens
	return plan, nil
}

// TestHypothesis asks the model to judge the hypothesis against the
// evidence and returns its findings, claims, and confidence.
func (c *ClaudeReasoner) TestHypothesis(ctx context.Context, hypothesis string, evidence []SearchResult) (HypothesisResult, error) {
	var prompt bytes.Buffer
	if err := hypothesisPromptTmpl.Execute(&prompt, struct {
		Hypothesis string
		Evidence   []SearchResult
	}{hypothesis, evidence}); err != nil {
		return HypothesisResult{}, fmt.Errorf("rendering hypothesis prompt: %w", err)
	}

	text, tokens, err := c.complete(ctx, prompt.String())
	if err != nil {
		return HypothesisResult{}, err
	}

	var verdict HypothesisResult
	if err := json.Unmarshal([]byte(text), &verdict); err != nil {
		return HypothesisResult{}, fmt.Errorf("parsing hypothesis response: %w", err)
	}
	verdict.TokensUsed = tokens
	return verdict, nil
}

// complete sends one prompt and returns the first text block plus the
// total tokens the call consumed.
func (c *ClaudeReasoner) complete(ctx context.Context, prompt string) (string, int, error) {
	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: claudeMaxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", 0, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("Claude API returned HTTP %d", resp.StatusCode)
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", 0, fmt.Errorf("decoding Claude response: %w", err)
	}

	tokens := cResp.Usage.InputTokens + cResp.Usage.OutputTokens
	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		return strings.TrimSpace(block.Text), tokens, nil
	}
	return "", 0, fmt.Errorf("no text content in Claude API response")
}
