// Package ahocorasick classifies extracted result text with ordered keyword
// rules compiled into Aho-Corasick automata.
package ahocorasick

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/fwojciec/battletally"
)

// Rule maps a set of keywords to an outcome. A rule matches when any of its
// keywords occurs as a substring of the lower-cased text.
type Rule struct {
	Outcome  battletally.Outcome
	Keywords []string
}

// DefaultRules returns the win, loss and draw keyword sets in precedence order.
func DefaultRules() []Rule {
	return []Rule{
		{Outcome: battletally.OutcomeWin, Keywords: []string{"victory", "win", "triumph"}},
		{Outcome: battletally.OutcomeLoss, Keywords: []string{"defeat", "loss", "retreat"}},
		{Outcome: battletally.OutcomeDraw, Keywords: []string{"draw", "stalemate"}},
	}
}

// Ensure Classifier implements battletally.Classifier.
var _ battletally.Classifier = (*Classifier)(nil)

type compiledRule struct {
	outcome battletally.Outcome
	matcher *ahocorasick.Matcher
}

// Classifier tries each rule in order and returns the outcome of the first
// rule with a hit.
type Classifier struct {
	// mu serializes Match calls; the matcher keeps per-search state.
	mu    sync.Mutex
	rules []compiledRule
}

// NewClassifier compiles rules in the given order. With no rules it uses
// DefaultRules. Rules without usable keywords are skipped.
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	c := &Classifier{}
	for _, r := range rules {
		keywords := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			continue
		}
		c.rules = append(c.rules, compiledRule{
			outcome: r.Outcome,
			matcher: ahocorasick.NewStringMatcher(keywords),
		})
	}
	return c
}

// Classify implements battletally.Classifier.
func (c *Classifier) Classify(field battletally.Field) battletally.Outcome {
	text := strings.ToLower(strings.TrimSpace(field.Value))
	if !field.Valid || text == "" {
		return battletally.OutcomeUnknown
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	b := []byte(text)
	for _, r := range c.rules {
		if len(r.matcher.Match(b)) > 0 {
			return r.outcome
		}
	}
	return battletally.OutcomeOther
}
