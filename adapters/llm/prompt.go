package llm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"moralsim/ports"
)

// ScenarioPrompt is the name of the prompt template providers render
const ScenarioPrompt = "scenario"

// maxRowFields caps how many columns of a sample row reach the prompt
const maxRowFields = 12

// Replacements flattens a scenario request into prompt placeholders
func Replacements(req ports.ScenarioRequest) map[string]string {
	r := map[string]string{
		"TEMPLATE":    string(req.Template),
		"TITLE":       req.Title,
		"POSITION":    strconv.Itoa(req.Position + 1),
		"TOTAL":       strconv.Itoa(req.Total),
		"PARAMS":      req.Params.String(),
		"SUMMARY":     summaryText(req),
		"SAMPLE_ROWS": sampleRowsText(req),
		"CHALLENGE":   "",
	}
	if req.Draft != nil {
		r["CONTEXT"] = req.Draft.Context
		r["OPTION_A_ACTION"] = req.Draft.OptionA.Action
		r["OPTION_A_CONSEQUENCE"] = req.Draft.OptionA.Consequence
		r["OPTION_B_ACTION"] = req.Draft.OptionB.Action
		r["OPTION_B_CONSEQUENCE"] = req.Draft.OptionB.Consequence
	}
	if req.Challenging != "" {
		r["CHALLENGE"] = fmt.Sprintf("This scenario deliberately tests the respondent's tendency to be %q; make option A feel like a real cost to that tendency.",
			req.Challenging.Label())
	}
	return r
}

func summaryText(req ports.ScenarioRequest) string {
	if len(req.Summary) == 0 {
		return "(no answers yet)"
	}
	var b strings.Builder
	for _, e := range req.Summary {
		fmt.Fprintf(&b, "- %s: %d of %d answers (%d%%)\n", e.Label, e.Count, req.Position, e.Percent)
	}
	return strings.TrimRight(b.String(), "\n")
}

func sampleRowsText(req ports.ScenarioRequest) string {
	if len(req.SampleRows) == 0 {
		return "(none available)"
	}
	var b strings.Builder
	for _, row := range req.SampleRows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > maxRowFields {
			keys = keys[:maxRowFields]
		}
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + row[k]
		}
		b.WriteString("- " + strings.Join(parts, ", ") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
