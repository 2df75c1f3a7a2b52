package dataset

import (
	"strings"
	"time"
)

// DatasetStatus represents the loading state of the reference dataset
type DatasetStatus string

const (
	StatusNotLoaded   DatasetStatus = "not_loaded"
	StatusReady       DatasetStatus = "ready"
	StatusUnavailable DatasetStatus = "unavailable"
)

// Row is one historical respondent: an opaque field -> value mapping.
// Missing fields are simply absent; there is no schema beyond the header line.
type Row map[string]string

// Get returns the trimmed value for field. Absent and blank fields both report ok=false.
func (r Row) Get(field string) (string, bool) {
	v, ok := r[field]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

// First returns the value of the first field in names that has a value
func (r Row) First(names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := r.Get(name); ok {
			return v, true
		}
	}
	return "", false
}

// Dataset is the reference set of prior respondents, loaded once and read-only afterwards
type Dataset struct {
	Source   string    `json:"source"`
	Headers  []string  `json:"headers"`
	Rows     []Row     `json:"-"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Len returns the number of respondent rows
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// IsEmpty reports whether the dataset has no rows
func (d *Dataset) IsEmpty() bool {
	return d.Len() == 0
}

// Sample returns up to n leading rows. The returned slice shares rows with the dataset
// and must be treated as read-only.
func (d *Dataset) Sample(n int) []Row {
	if d == nil || n <= 0 {
		return nil
	}
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}

// Info summarises the dataset for status endpoints
type Info struct {
	Status      DatasetStatus `json:"status"`
	Source      string        `json:"source,omitempty"`
	RecordCount int           `json:"record_count"`
	FieldCount  int           `json:"field_count"`
	LoadedAt    *time.Time    `json:"loaded_at,omitempty"`
	Error       string        `json:"error,omitempty"`
}
