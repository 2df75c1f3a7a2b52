package similarity

import (
	"math"
	"strconv"
	"strings"

	"moralsim/domain/dataset"
)

// aliasFormats are the accepted column names for scenario position p, in
// lookup order. The first one present on a row wins.
var aliasFormats = []string{
	"response%d", "Response%d", "RESPONSE%d",
	"response_%d", "Response_%d",
	"resp%d", "Resp%d",
	"r%d", "R%d",
	"q%d", "Q%d",
}

// Aliases returns the candidate field names for 1-based position p
func Aliases(p int) []string {
	n := strconv.Itoa(p)
	out := make([]string, len(aliasFormats))
	for i, f := range aliasFormats {
		out[i] = strings.Replace(f, "%d", n, 1)
	}
	return out
}

var (
	idFields     = []string{"ResponseId", "id", "ID"}
	genderFields = []string{"gender", "Gender"}
	ageFields    = []string{"age", "Age"}
)

// aliasTable precomputes alias names for positions 1..n
func aliasTable(n int) [][]string {
	table := make([][]string, n)
	for i := range table {
		table[i] = Aliases(i + 1)
	}
	return table
}

// cell is one resolved dataset answer
type cell struct {
	value int // 1=A, 0=B, -1 unparseable
}

// resolveRow looks up each position once. Positions without a value are nil.
func resolveRow(row dataset.Row, table [][]string) []*cell {
	cells := make([]*cell, len(table))
	for i, names := range table {
		raw, ok := row.First(names...)
		if !ok {
			continue
		}
		cells[i] = &cell{value: parseAnswer(raw)}
	}
	return cells
}

// parseAnswer accepts 0/1 integers and A/B letters in any case.
// Anything else is -1 and always counts as a mismatch.
func parseAnswer(raw string) int {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "A":
		return 1
	case "B":
		return 0
	}
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		return binary(n)
	}
	// float-formatted spreadsheet cells such as "1.0"; the integer part decides
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return binary(int(f))
	}
	return -1
}

func binary(n int) int {
	switch n {
	case 1:
		return 1
	case 0:
		return 0
	}
	return -1
}
