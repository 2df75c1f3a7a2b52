package generator

import (
	"fmt"
	"strconv"
	"strings"

	"moralsim/domain/scenario"
	"moralsim/ports"
)

// validateText checks provider output against the catalog draft it replaces:
// all strings present, every numeric parameter still in the narrative, and
// every headcount still in its option's consequence.
func validateText(text *ports.ScenarioText, draft *scenario.Scenario, tpl *scenario.Template) error {
	if text == nil {
		return fmt.Errorf("empty response")
	}

	required := map[string]string{
		"context":              text.Context,
		"option_a.action":      text.OptionA.Action,
		"option_a.consequence": text.OptionA.Consequence,
		"option_b.action":      text.OptionB.Action,
		"option_b.consequence": text.OptionB.Consequence,
	}
	for _, field := range []string{"context", "option_a.action", "option_a.consequence", "option_b.action", "option_b.consequence"} {
		if strings.TrimSpace(required[field]) == "" {
			return fmt.Errorf("missing %s", field)
		}
	}

	for _, spec := range tpl.Params {
		if !spec.Numeric() {
			continue
		}
		v := strconv.Itoa(draft.Params.Count(spec.Name))
		if !strings.Contains(text.Context, v) {
			return fmt.Errorf("context dropped %s=%s", spec.Name, v)
		}
	}

	checks := []struct {
		name string
		text string
		meta scenario.OptionMetadata
	}{
		{"option_a", text.OptionA.Consequence, draft.OptionA.Metadata},
		{"option_b", text.OptionB.Consequence, draft.OptionB.Metadata},
	}
	for _, c := range checks {
		if c.meta.Deaths > 0 && !strings.Contains(c.text, strconv.Itoa(c.meta.Deaths)) {
			return fmt.Errorf("%s consequence dropped death count %d", c.name, c.meta.Deaths)
		}
		if c.meta.AnimalDeaths > 0 && !strings.Contains(c.text, strconv.Itoa(c.meta.AnimalDeaths)) {
			return fmt.Errorf("%s consequence dropped animal count %d", c.name, c.meta.AnimalDeaths)
		}
	}
	return nil
}

// applyText copies validated provider wording onto the draft; metadata is untouched
func applyText(sc *scenario.Scenario, text *ports.ScenarioText) {
	sc.Context = strings.TrimSpace(text.Context)
	sc.OptionA.Action = strings.TrimSpace(text.OptionA.Action)
	sc.OptionA.Consequence = strings.TrimSpace(text.OptionA.Consequence)
	sc.OptionB.Action = strings.TrimSpace(text.OptionB.Action)
	sc.OptionB.Consequence = strings.TrimSpace(text.OptionB.Consequence)
	sc.Note = strings.TrimSpace(text.Note)
	sc.Source = scenario.SourceProvider
}
