// Package doctor runs the diagnostic checks behind 'portalctl doctor':
// config, portal session, and the local files kubeconfig and ssh rely on.
package doctor

import (
	"context"
	"fmt"
)

// CheckStatus grades one check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *CheckStatus) UnmarshalText(text []byte) error {
	for _, st := range []CheckStatus{StatusPass, StatusWarn, StatusFail} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown check status %q", text)
}

// CheckResult is what one check found.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Fixable    bool        `json:"fixable,omitempty"`
}

// issue reports a warn or fail.
func (r CheckResult) issue() bool { return r.Status != StatusPass }

// Check is one diagnostic. Fix is only called for fixable issues and the
// check is re-run when it succeeds.
type Check interface {
	Name() string
	Category() string
	Run(ctx context.Context) CheckResult
	Fix() error
}

const (
	CategoryConfig = "CONFIG"
	CategoryPortal = "PORTAL"
	CategoryLocal  = "LOCAL"
)

// CategoryOrder is the order sections are reported in.
var CategoryOrder = []string{CategoryConfig, CategoryPortal, CategoryLocal}

// Report pairs every check that ran with its latest result.
type Report struct {
	checks  []Check
	results []CheckResult
}

// Run executes checks one after another, appending to the report. Later
// checks may depend on state an earlier check filled in, so the order is
// kept and nothing runs concurrently.
func (r *Report) Run(ctx context.Context, checks ...Check) {
	for _, c := range checks {
		r.checks = append(r.checks, c)
		r.results = append(r.results, c.Run(ctx))
	}
}

// Fix attempts every fixable issue and returns how many now pass.
func (r *Report) Fix(ctx context.Context) int {
	repaired := 0
	for i, res := range r.results {
		if !res.Fixable || !res.issue() {
			continue
		}
		if err := r.checks[i].Fix(); err != nil {
			continue
		}
		r.results[i] = r.checks[i].Run(ctx)
		if !r.results[i].issue() {
			repaired++
		}
	}
	return repaired
}

// Results returns the results in run order.
func (r *Report) Results() []CheckResult { return r.results }

// Section is one category's results.
type Section struct {
	Name    string        `json:"name"`
	Results []CheckResult `json:"results"`
}

// Sections groups results by category in CategoryOrder, skipping empty
// ones. Categories outside CategoryOrder are dropped.
func (r *Report) Sections() []Section {
	var out []Section
	for _, cat := range CategoryOrder {
		s := Section{Name: cat}
		for i, c := range r.checks {
			if c.Category() == cat {
				s.Results = append(s.Results, r.results[i])
			}
		}
		if len(s.Results) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Tally counts results by grade.
type Tally struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	Fixable  int  `json:"fixable"`
	AllClear bool `json:"all_clear"`
}

// Issues is warnings plus failures.
func (t Tally) Issues() int { return t.Warn + t.Fail }

// Tally summarizes the report.
func (r *Report) Tally() Tally {
	var t Tally
	for _, res := range r.results {
		switch res.Status {
		case StatusPass:
			t.Pass++
		case StatusWarn:
			t.Warn++
		case StatusFail:
			t.Fail++
		}
		if res.Fixable && res.issue() {
			t.Fixable++
		}
	}
	t.AllClear = t.Issues() == 0
	return t
}

// Failed reports whether any check failed outright. Warnings don't count.
func (r *Report) Failed() bool { return r.Tally().Fail > 0 }

// Summary is the closing line of the report.
func (r *Report) Summary() string {
	switch n := r.Tally().Issues(); n {
	case 0:
		return "Everything looks good"
	case 1:
		return "1 issue found"
	default:
		return fmt.Sprintf("%d issues found", n)
	}
}

func passed(c Check, msg string) CheckResult {
	return CheckResult{Name: c.Name(), Status: StatusPass, Message: msg}
}

func warned(c Check, msg, hint string) CheckResult {
	return CheckResult{Name: c.Name(), Status: StatusWarn, Message: msg, Suggestion: hint}
}

func failed(c Check, msg, hint string) CheckResult {
	return CheckResult{Name: c.Name(), Status: StatusFail, Message: msg, Suggestion: hint}
}

// manual is embedded by checks the user has to resolve by hand.
type manual struct{}

func (manual) Fix() error { return nil }
