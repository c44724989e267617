package pipeline

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// FilterMode selects which records a session view includes.
type FilterMode string

const (
	FilterAll            FilterMode = "all"
	FilterLowConfidence  FilterMode = "low_confidence"
	FilterDecisionMakers FilterMode = "decision_makers"
)

// ParseFilterMode validates a filter name from user input.
func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(s) {
	case FilterAll, FilterLowConfidence, FilterDecisionMakers:
		return FilterMode(s), nil
	}
	return "", eris.Errorf("query: unknown filter %q (want all, low_confidence, or decision_makers)", s)
}

// exportColumns is the fixed export header.
var exportColumns = []string{"Name", "Company", "Revenue", "Sector", "Decision Maker", "Job Title", "Confidence"}

// sortFields are the record fields a session may sort by.
var sortFields = map[string]func(model.EnrichedRecord) string{
	"name":           func(r model.EnrichedRecord) string { return r.Name },
	"company":        func(r model.EnrichedRecord) string { return r.Company },
	"revenue":        func(r model.EnrichedRecord) string { return r.Revenue },
	"sector":         func(r model.EnrichedRecord) string { return r.Sector },
	"decision_maker": func(r model.EnrichedRecord) string { return r.DecisionMaker },
	"job_title":      func(r model.EnrichedRecord) string { return r.JobTitle },
	"confidence":     func(r model.EnrichedRecord) string { return r.Confidence },
}

// Session holds the record collection and the current filter/sort state for
// one enrichment run. Each run owns an independent Session.
type Session struct {
	Records   []model.EnrichedRecord
	Filter    FilterMode
	SortField string
	SortDesc  bool
}

// NewSession creates a session over the given records showing everything.
func NewSession(records []model.EnrichedRecord) *Session {
	return &Session{Records: records, Filter: FilterAll}
}

// View returns the filtered, sorted records. Filtering preserves relative
// order; sorting is stable, so re-applying the same view is idempotent.
func (s *Session) View() []model.EnrichedRecord {
	view := FilterRecords(s.Records, s.Filter)
	if s.SortField != "" {
		SortRecords(view, s.SortField, s.SortDesc)
	}
	return view
}

// FilterRecords returns the subsequence matching the mode, preserving order.
func FilterRecords(records []model.EnrichedRecord, mode FilterMode) []model.EnrichedRecord {
	out := make([]model.EnrichedRecord, 0, len(records))
	for _, r := range records {
		switch mode {
		case FilterLowConfidence:
			if !strings.Contains(strings.ToLower(r.Confidence), "low") {
				continue
			}
		case FilterDecisionMakers:
			if !strings.Contains(strings.ToLower(r.DecisionMaker), "yes") {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// SortRecords stably sorts in place by the named field using case-insensitive
// lexicographic comparison. Unknown fields leave the order untouched.
func SortRecords(records []model.EnrichedRecord, field string, desc bool) {
	key, ok := sortFields[field]
	if !ok {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		a := strings.ToLower(key(records[i]))
		b := strings.ToLower(key(records[j]))
		if desc {
			return a > b
		}
		return a < b
	})
}

// ExportCSV writes the records to path with the fixed seven-column header,
// double-quoting every field. Zero records is a no-op: no file is created
// and written is false.
func ExportCSV(records []model.EnrichedRecord, path string) (written bool, err error) {
	if len(records) == 0 {
		return false, nil
	}

	var b strings.Builder
	writeQuotedRow(&b, exportColumns)
	for _, r := range records {
		writeQuotedRow(&b, []string{r.Name, r.Company, r.Revenue, r.Sector, r.DecisionMaker, r.JobTitle, r.Confidence})
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return false, eris.Wrap(err, "query: write export file")
	}
	return true, nil
}

// writeQuotedRow appends one CSV line with every field quoted and embedded
// quotes doubled.
func writeQuotedRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
