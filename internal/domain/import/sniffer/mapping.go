package sniffer

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
	"golang.org/x/text/unicode/norm"
)

// Target is a transaction field a header can be mapped to.
type Target string

const (
	TargetDate        Target = "date"
	TargetDescription Target = "description"
	TargetAmount      Target = "amount"
	TargetCategory    Target = "category"
)

// Keywords lists, per target, the substrings that identify a header. Order
// matters: an earlier keyword beats a later one regardless of header position.
var Keywords = map[Target][]string{
	TargetDate:        {"data", "date", "dia", "fecha", "datum"},
	TargetDescription: {"descrição", "descricao", "historico", "histórico", "memo", "description", "descripción", "payee", "merchant"},
	TargetAmount:      {"valor", "amount", "montante", "importe", "value", "montant"},
	TargetCategory:    {"categoria", "category", "categoría"},
}

// Suggestion is the advisory mapping produced from a header row. Empty
// fields mean no header matched.
type Suggestion struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category,omitempty"`
}

// Complete reports whether every required target was matched.
func (s Suggestion) Complete() bool {
	return s.Date != "" && s.Description != "" && s.Amount != ""
}

type targetMatcher struct {
	keywords []string
	matcher  *ahocorasick.Matcher
}

var matchers = buildMatchers()

func buildMatchers() map[Target]targetMatcher {
	out := make(map[Target]targetMatcher, len(Keywords))
	for target, keywords := range Keywords {
		normalized := make([]string, len(keywords))
		for i, kw := range keywords {
			normalized[i] = normalizeHeader(kw)
		}
		out[target] = targetMatcher{
			keywords: normalized,
			matcher:  ahocorasick.NewStringMatcher(normalized),
		}
	}
	return out
}

func normalizeHeader(h string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(h)))
}

// InferMapping chooses, for each target, the header containing the earliest
// keyword of that target's list. Among headers hit by the same keyword, an
// exact match wins, then the leftmost header.
func InferMapping(headers []string) Suggestion {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	return Suggestion{
		Date:        bestHeader(TargetDate, headers, normalized),
		Description: bestHeader(TargetDescription, headers, normalized),
		Amount:      bestHeader(TargetAmount, headers, normalized),
		Category:    bestHeader(TargetCategory, headers, normalized),
	}
}

func bestHeader(target Target, headers, normalized []string) string {
	tm := matchers[target]

	best := -1
	bestKeyword := len(tm.keywords)
	bestExact := false
	for i, h := range normalized {
		if h == "" {
			continue
		}
		hits := tm.matcher.Match([]byte(h))
		if len(hits) == 0 {
			continue
		}
		kw := hits[0]
		for _, hit := range hits[1:] {
			if hit < kw {
				kw = hit
			}
		}
		exact := h == tm.keywords[kw]
		if kw < bestKeyword || (kw == bestKeyword && exact && !bestExact) {
			best, bestKeyword, bestExact = i, kw, exact
		}
	}

	if best < 0 {
		return ""
	}
	return headers[best]
}
