package battletally

import (
	"errors"
	"strings"
)

// Outcome is the normalized result of a battle from a group's point of view.
type Outcome string

// Outcome values. OutcomeUnknown means nothing was extracted or processing
// failed; OutcomeOther means text was extracted but matched no rule.
const (
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
	OutcomeDraw    Outcome = "draw"
	OutcomeOther   Outcome = "other"
	OutcomeUnknown Outcome = "unknown"
)

// Outcomes lists every outcome in display order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeWin, OutcomeLoss, OutcomeDraw, OutcomeOther, OutcomeUnknown}
}

// ParseOutcome converts a stored label back into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range Outcomes() {
		if string(o) == s {
			return o, nil
		}
	}
	return "", Errorf(EINVALID, "unknown outcome %q", s)
}

// Source reference defaults. Titles become page paths by replacing spaces
// with TitleSeparator.
const (
	DefaultBaseURL = "https://en.wikipedia.org/wiki/"
	TitleSeparator = "_"
)

// SourceURL derives the page reference for a title.
func SourceURL(baseURL, title string) string {
	return baseURL + strings.ReplaceAll(title, " ", TitleSeparator)
}

// Record is the outcome of one title within one group. Exactly one Record is
// produced per processed title, failures included.
type Record struct {
	Title     string  `json:"title"`
	Group     string  `json:"group"`
	Outcome   Outcome `json:"outcome"`
	SourceURL string  `json:"sourceUrl"`

	// Result is the raw extracted field text, empty when absent.
	Result string `json:"result,omitempty"`
}

// FailureKind classifies why a title degraded to OutcomeUnknown.
type FailureKind string

// FailureKind values.
const (
	FailureNetwork  FailureKind = "network"
	FailureDecode   FailureKind = "decode"
	FailureInternal FailureKind = "internal"
)

// KindOf maps an error onto a FailureKind.
func KindOf(err error) FailureKind {
	var netErr *NetworkError
	var decErr *DecodeError
	switch {
	case errors.As(err, &netErr):
		return FailureNetwork
	case errors.As(err, &decErr):
		return FailureDecode
	default:
		return FailureInternal
	}
}

// Failure describes a title whose record was degraded to OutcomeUnknown.
type Failure struct {
	Title string
	Group string
	Kind  FailureKind
	Err   error
}

// WinCount is the number of won battles for a group.
type WinCount struct {
	Group string `json:"group"`
	Wins  int    `json:"wins"`
}

// CountWins tallies OutcomeWin records per group. Groups without wins are
// omitted. Counts follow the order of groups; records naming a group that is
// not configured are appended in first-seen order.
func CountWins(groups []Group, records []*Record) []WinCount {
	wins := make(map[string]int)
	var extra []string
	known := make(map[string]bool, len(groups))
	for _, g := range groups {
		known[g.Name] = true
	}

	for _, r := range records {
		if r.Outcome != OutcomeWin {
			continue
		}
		if !known[r.Group] && wins[r.Group] == 0 {
			extra = append(extra, r.Group)
		}
		wins[r.Group]++
	}

	counts := make([]WinCount, 0, len(wins))
	for _, g := range groups {
		if n := wins[g.Name]; n > 0 {
			counts = append(counts, WinCount{Group: g.Name, Wins: n})
		}
	}
	for _, name := range extra {
		counts = append(counts, WinCount{Group: name, Wins: wins[name]})
	}
	return counts
}

// Report holds the two output tables of a run.
type Report struct {
	Records   []*Record
	WinCounts []WinCount
}

// NewReport builds a report and its win counts from records.
func NewReport(groups []Group, records []*Record) *Report {
	return &Report{
		Records:   records,
		WinCounts: CountWins(groups, records),
	}
}
