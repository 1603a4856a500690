// Package rules checks parsed theme configs against a fixed set of
// structural rules and aggregates the results.
//
// Each rule names one top-level field. A theme complies with a rule when the
// field's [Shape] is mergeable, i.e. anything except a non-empty collection.
// A theme that ships a populated menu, for example, forces site owners to
// edit the theme's own config instead of overriding it.
package rules

import (
	"fmt"

	"github.com/matzehuels/themecheck/pkg/theme"
)

// Rule is a predicate over one config field.
type Rule struct {
	Label string `json:"label"`
	Field string `json:"field"`
}

// Compliant reports whether doc satisfies the rule.
func (r Rule) Compliant(doc *theme.Document) bool {
	return ShapeOf(doc, r.Field).Mergeable()
}

// Default is the rule set applied to every parsed config.
var Default = []Rule{
	{Label: "menu", Field: "menu"},
	{Label: "nav", Field: "nav"},
	{Label: "widgets", Field: "widgets"},
	{Label: "links", Field: "links"},
}

// Result aggregates one rule over all parsed configs.
type Result struct {
	Rule
	Violated  int      `json:"violated"`
	Checked   int      `json:"checked"`
	Violators []string `json:"violators,omitempty"`
}

// Ratio returns the violation percentage. ok is false when nothing was
// checked.
func (r Result) Ratio() (pct float64, ok bool) {
	if r.Checked == 0 {
		return 0, false
	}
	return 100 * float64(r.Violated) / float64(r.Checked), true
}

// RatioString formats Ratio with one decimal place, or "N/A".
func (r Result) RatioString() string {
	pct, ok := r.Ratio()
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// Evaluate applies rules to every entry with a parsed config. Results are
// in rule order; violators are in entry order.
func Evaluate(entries []theme.Entry, rules []Rule) []Result {
	results := make([]Result, len(rules))
	for i, r := range rules {
		results[i].Rule = r
	}
	for i := range entries {
		e := &entries[i]
		if !e.Parsed() {
			continue
		}
		for j := range results {
			results[j].Checked++
			if !results[j].Compliant(e.Config) {
				results[j].Violated++
				results[j].Violators = append(results[j].Violators, e.Name)
			}
		}
	}
	return results
}
