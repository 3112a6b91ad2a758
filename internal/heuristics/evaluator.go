package heuristics

import (
	"strings"

	"github.com/mikey/chat-spam-guard/internal/core"
	"golang.org/x/text/unicode/norm"
)

// Category groups checks that share one fusion weight
type Category int

const (
	CategoryPattern Category = iota
	CategoryMention
	CategoryEmoji
	CategoryCaps
	CategoryLink
	CategoryLength
)

func (c Category) String() string {
	switch c {
	case CategoryPattern:
		return "pattern"
	case CategoryMention:
		return "mention"
	case CategoryEmoji:
		return "emoji"
	case CategoryCaps:
		return "caps"
	case CategoryLink:
		return "link"
	case CategoryLength:
		return "length"
	default:
		return "unknown"
	}
}

// Input is the pre-processed view of one event shared by all checks
type Input struct {
	Event *core.Event
	Text  string
	Runes []rune
	// NFC is the canonically composed text, so legitimate accents are not
	// counted as stacked combining marks
	NFC string
}

// NewInput prepares an event for evaluation
func NewInput(event *core.Event) *Input {
	return &Input{
		Event: event,
		Text:  event.Text,
		Runes: []rune(event.Text),
		NFC:   norm.NFC.String(event.Text),
	}
}

// Check is a single independent content heuristic
type Check struct {
	Name     string
	Category Category
	Run      func(in *Input, t core.Thresholds) (triggered bool, metric float64)
}

// Result is the outcome of one check
type Result struct {
	Name      string
	Category  Category
	Triggered bool
	Metric    float64
}

// Report holds the results of every check, in evaluation order
type Report struct {
	Results []Result
}

// Triggered returns the names of triggered checks
func (r Report) Triggered() []string {
	var names []string
	for _, res := range r.Results {
		if res.Triggered {
			names = append(names, res.Name)
		}
	}
	return names
}

// ByCategory returns the triggered results of one category
func (r Report) ByCategory(c Category) []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Triggered && res.Category == c {
			out = append(out, res)
		}
	}
	return out
}

// Get returns the result of the named check
func (r Report) Get(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return Result{}, false
}

// Evaluator runs a fixed set of content checks over single events. It holds
// no state and is safe for concurrent use.
type Evaluator struct {
	checks []Check
}

// NewEvaluator creates an evaluator with the default checks followed by extra
func NewEvaluator(extra ...Check) *Evaluator {
	checks := DefaultChecks()
	checks = append(checks, extra...)
	return &Evaluator{checks: checks}
}

// Evaluate runs every check against the event
func (e *Evaluator) Evaluate(event *core.Event, t core.Thresholds) Report {
	in := NewInput(event)
	report := Report{Results: make([]Result, 0, len(e.checks))}
	for _, c := range e.checks {
		triggered, metric := c.Run(in, t)
		report.Results = append(report.Results, Result{
			Name:      c.Name,
			Category:  c.Category,
			Triggered: triggered,
			Metric:    metric,
		})
	}
	return report
}

// Names returns the configured check names
func (e *Evaluator) Names() []string {
	names := make([]string, len(e.checks))
	for i, c := range e.checks {
		names[i] = c.Name
	}
	return names
}

func normalizeToken(tok string) string {
	return strings.ToLower(strings.Trim(tok, ".,!?;:'\"()[]{}"))
}
