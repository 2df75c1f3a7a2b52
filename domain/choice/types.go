package choice

import (
	"strings"

	"moralsim/domain/core"
	"moralsim/domain/scenario"
)

// Record is one answered scenario. History is an append-only slice of records
// with gapless sequence numbers starting at 0.
type Record struct {
	ID         core.ChoiceID           `json:"id"`
	SessionID  core.SessionID          `json:"session_id"`
	ScenarioID core.ScenarioID         `json:"scenario_id"`
	TemplateID scenario.TemplateID     `json:"template_id"`
	Label      scenario.Label          `json:"choice"`
	Metadata   scenario.OptionMetadata `json:"metadata"`
	Sequence   int                     `json:"sequence"`
	CreatedAt  core.Timestamp          `json:"created_at"`
}

// NewRecord captures the chosen option of a scenario
func NewRecord(sessionID core.SessionID, sc *scenario.Scenario, label scenario.Label, seq int) (Record, error) {
	opt, err := sc.Option(label)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:         core.NewChoiceID(),
		SessionID:  sessionID,
		ScenarioID: sc.ID,
		TemplateID: sc.TemplateID,
		Label:      opt.Label,
		Metadata:   opt.Metadata,
		Sequence:   seq,
		CreatedAt:  core.Now(),
	}, nil
}

// Labels returns the chosen letters in sequence order
func Labels(history []Record) []string {
	out := make([]string, len(history))
	for i, r := range history {
		out[i] = string(r.Label)
	}
	return out
}

// Vector encodes history as the binary choice vector used for dataset matching (A=1, B=0)
func Vector(history []Record) []int {
	out := make([]int, len(history))
	for i, r := range history {
		if r.Label == scenario.LabelA {
			out[i] = 1
		}
	}
	return out
}

// ParseVector turns a string like "ABBA" or "1,0,0,1" into a choice vector.
// Whitespace and commas are ignored; any other character is an error.
func ParseVector(s string) ([]int, error) {
	var out []int
	for _, r := range strings.ToUpper(s) {
		switch r {
		case 'A', '1':
			out = append(out, 1)
		case 'B', '0':
			out = append(out, 0)
		case ' ', ',', '\t', '\n':
		default:
			_, err := scenario.ParseLabel(string(r))
			return nil, err
		}
	}
	return out, nil
}
