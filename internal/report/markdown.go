package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"moralsim/domain/result"
)

// Markdown renders a report as a markdown document
func Markdown(rep *result.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Your moral profile\n\n")
	fmt.Fprintf(&b, "Session `%s`, %d of %d scenarios answered", rep.SessionID, len(rep.History), rep.Total)
	if rep.Vector != "" {
		fmt.Fprintf(&b, " (choices: `%s`)", rep.Vector)
	}
	b.WriteString(".\n\n")

	b.WriteString("## Tendencies\n\n")
	if len(rep.Summary) == 0 {
		b.WriteString("No choices recorded yet.\n\n")
	} else {
		b.WriteString("| Tendency | Count | Share |\n|---|---:|---:|\n")
		for _, e := range rep.Summary {
			fmt.Fprintf(&b, "| %s | %d | %d%% |\n", e.Label, e.Count, e.Percent)
		}
		b.WriteString("\n")
	}

	if len(rep.Significance) > 0 {
		b.WriteString("## Beyond chance\n\n")
		found := false
		for _, s := range rep.Significance {
			if s.PValue < 0.05 {
				fmt.Fprintf(&b, "- %s: %d of %d (p = %.3f)\n", s.Dimension.Label(), s.Count, s.N, s.PValue)
				found = true
			}
		}
		if !found {
			b.WriteString("No tendency is strong enough to rule out chance.\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## People who chose like you\n\n")
	if len(rep.Similar) == 0 {
		b.WriteString("No similar respondents found.\n")
		return b.String()
	}
	b.WriteString("| Respondent | Gender | Age | Agreement |\n|---|---|---|---:|\n")
	for _, m := range rep.Similar {
		fmt.Fprintf(&b, "| #%s | %s | %s | %.0f%% (%d/%d) |\n", m.ID, m.Gender, m.Age, m.Similarity, m.Matches, m.Compared)
	}
	fmt.Fprintf(&b, "\nMean agreement %.1f%%, median %.1f%%.\n", rep.Distribution.Mean, rep.Distribution.Median)
	return b.String()
}

// HTML renders the markdown report to an HTML fragment
func HTML(rep *result.Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.ToHTML([]byte(Markdown(rep)), p, renderer)
}
