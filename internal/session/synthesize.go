// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"fmt"
	"strings"

	"github.com/kryptobaseddev/aris/pkg/types"
)

// queryStopwords are dropped when deriving topic tags from the query.
var queryStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"by": true, "do": true, "does": true, "for": true, "from": true,
	"how": true, "in": true, "is": true, "it": true, "of": true,
	"on": true, "or": true, "the": true, "to": true, "what": true,
	"when": true, "where": true, "which": true, "who": true,
	"why": true, "with": true,
}

const maxQueryTopics = 5

// synthesize folds a session's successful hops into one candidate
// document: findings become the document body, claims become a
// structured section, and topic tags come from claim subjects with the
// query's significant terms as fallback.
func synthesize(sess *types.Session) types.CandidateDocument {
	var (
		findings   []string
		claims     []types.Claim
		confidence float64
	)
	for _, h := range sess.Hops {
		if h.Failed {
			continue
		}
		if f := strings.TrimSpace(h.Findings); f != "" {
			findings = append(findings, f)
		}
		claims = append(claims, h.Claims...)
		if h.Confidence > confidence {
			confidence = h.Confidence
		}
	}

	var b strings.Builder
	b.WriteString("# Findings\n\n")
	b.WriteString(strings.Join(findings, "\n\n"))
	if len(claims) > 0 {
		b.WriteString("\n\n# Claims\n\n")
		for _, c := range claims {
			fmt.Fprintf(&b, "- %s (%s, confidence %.2f)\n", c.Statement, c.Subject, c.Confidence)
		}
	}

	topics := claimTopics(claims)
	if len(topics) == 0 {
		topics = queryTopics(sess.Query)
	}

	return types.CandidateDocument{
		Content:    strings.TrimRight(b.String(), "\n"),
		Topics:     topics,
		Sources:    claimSources(claims),
		Confidence: confidence,
		Query:      sess.Query,
	}
}

func claimTopics(claims []types.Claim) []string {
	seen := make(map[string]bool, len(claims))
	var topics []string
	for _, c := range claims {
		subject := strings.ToLower(strings.TrimSpace(c.Subject))
		if subject == "" || seen[subject] {
			continue
		}
		seen[subject] = true
		topics = append(topics, subject)
	}
	return topics
}

func claimSources(claims []types.Claim) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, c := range claims {
		for _, s := range c.Sources {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			sources = append(sources, s)
		}
	}
	return sources
}

// queryTopics picks the query's significant terms as topic tags.
func queryTopics(query string) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if len(word) < 3 || queryStopwords[word] || seen[word] {
			continue
		}
		seen[word] = true
		topics = append(topics, word)
		if len(topics) == maxQueryTopics {
			break
		}
	}
	return topics
}
