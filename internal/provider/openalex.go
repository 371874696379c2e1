// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kryptobaseddev/aris/internal/httputil"
	"github.com/kryptobaseddev/aris/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as
// a var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// extractBodyLimit caps how much of an extracted page is read.
const extractBodyLimit = 1 << 20

// OpenAlexProvider implements SearchProvider against the OpenAlex API.
type OpenAlexProvider struct {
	Client *http.Client
	Cfg    types.SearchProviderConfig
}

// NewOpenAlex returns a provider with a client honoring cfg's timeout.
func NewOpenAlex(cfg types.SearchProviderConfig) *OpenAlexProvider {
	cfg.Normalize()
	return &OpenAlexProvider{
		Client: &http.Client{Timeout: cfg.Timeout},
		Cfg:    cfg,
	}
}

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	RelevanceScore        float64          `json:"relevance_score"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// Search queries the OpenAlex API and returns ranked results.
func (p *OpenAlexProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if maxResults <= 0 {
		maxResults = p.Cfg.MaxResults
	}
	if maxResults > 200 {
		maxResults = 200
	}

	params := url.Values{
		"search":   {query},
		"per_page": {fmt.Sprintf("%d", maxResults)},
		"page":     {"1"},
	}
	if p.Cfg.Email != "" {
		params.Set("mailto", p.Cfg.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.Cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	results := make([]SearchResult, 0, len(oar.Results))
	for _, work := range oar.Results {
		results = append(results, SearchResult{
			Title:   work.Title,
			URL:     work.ID,
			Snippet: reconstructAbstract(work.AbstractInvertedIndex),
			Score:   work.RelevanceScore,
		})
	}
	return results, nil
}

// Extract fetches a URL and returns its raw body text.
func (p *OpenAlexProvider) Extract(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		return "", fmt.Errorf("empty extraction url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.Cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extraction returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, extractBodyLimit))
	if err != nil {
		return "", fmt.Errorf("reading extraction body: %w", err)
	}
	return string(body), nil
}

// reconstructAbstract rebuilds abstract text from OpenAlex's inverted
// index representation.
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}
	maxPos := -1
	for _, positions := range index {
		for _, pos := range positions {
			if pos > maxPos {
				maxPos = pos
			}
		}
	}
	words := make([]string, maxPos+1)
	for word, positions := range index {
		for _, pos := range positions {
			if pos >= 0 && pos <= maxPos {
				words[pos] = word
			}
		}
	}
	return strings.TrimSpace(strings.Join(words, " "))
}
