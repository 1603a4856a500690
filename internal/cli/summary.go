package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/matzehuels/themecheck/pkg/errors"
	"github.com/matzehuels/themecheck/pkg/pipeline"
	"github.com/matzehuels/themecheck/pkg/rules"
	"github.com/matzehuels/themecheck/pkg/theme"
)

// printSummary prints stage counts and the rule table.
func printSummary(r *pipeline.Result) {
	s := r.Stats

	printTitle("Themes")
	printKeyValue("discovered", strconv.Itoa(s.Discovered))
	printKeyValue("targeted", strconv.Itoa(s.Targeted))
	printKeyValue("resolved", strconv.Itoa(s.Resolved))
	printKeyValue("downloaded", strconv.Itoa(s.Downloaded))
	printKeyValue("parsed", strconv.Itoa(s.Parsed))

	if s.Errored > 0 {
		printWarning("%d themes could not be checked", s.Errored)
		codes := make([]errors.Code, 0, len(s.ErrorCodes))
		for code := range s.ErrorCodes {
			codes = append(codes, code)
		}
		slices.Sort(codes)
		for _, code := range codes {
			printDetail("%s: %d", code, s.ErrorCodes[code])
		}
	}

	printTitle("Rules")
	renderRules(out, r.Rules)
}

// renderRules writes the rule results as a table.
func renderRules(w io.Writer, results []rules.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule", "Violated", "Checked", "Ratio"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	for _, r := range results {
		ratio := r.RatioString()
		if r.Violated > 0 {
			ratio = StyleViolation.Render(ratio)
		}
		t.AppendRow(table.Row{r.Label, r.Violated, r.Checked, ratio})
	}
	t.Render()
}

// =============================================================================
// JSON Report
// =============================================================================

type report struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Stats     pipeline.Stats `json:"stats"`
	Rules     []rules.Result `json:"rules"`
	Themes    []reportTheme  `json:"themes"`
}

type reportTheme struct {
	theme.Entry
	Outcome     string `json:"outcome"`
	ConfigBytes int    `json:"config_bytes,omitempty"`
}

func newReport(r *pipeline.Result) report {
	rep := report{
		RunID:     r.RunID,
		StartedAt: r.StartedAt,
		Stats:     r.Stats,
		Rules:     r.Rules,
		Themes:    make([]reportTheme, len(r.Themes.Entries)),
	}
	for i, e := range r.Themes.Entries {
		rep.Themes[i] = reportTheme{
			Entry:       e,
			Outcome:     e.Outcome().String(),
			ConfigBytes: len(e.ConfigText),
		}
	}
	return rep
}

// writeReport writes every theme record, without config text, as JSON.
func writeReport(path string, r *pipeline.Result) error {
	data, err := json.MarshalIndent(newReport(r), "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
