// Package pipeline implements the enrichment pipeline: CSV parsing, deep
// extraction of enrichment data from agent responses, record normalization,
// artifact location, and the filter/sort/export query engine.
package pipeline

import (
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Header aliases for the two required logical columns. Matching is exact
// (case-insensitive), not substring containment.
var (
	nameHeaders    = []string{"name", "full name", "full.name", "contact name", "contact.name", "person"}
	companyHeaders = []string{"company", "organization", "org", "company name", "company.name", "employer"}
)

// ParseContacts parses raw CSV text into rows. A file with fewer than two
// non-blank lines (no header + data) yields an empty slice; callers treat
// that as "no rows found", not an error.
func ParseContacts(text string) []model.RawRow {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil
	}

	headers := make([]string, 0, 8)
	for _, h := range strings.Split(lines[0], ",") {
		headers = append(headers, stripOuterQuotes(strings.TrimSpace(h)))
	}

	nameIdx := findHeader(headers, nameHeaders)
	companyIdx := findHeader(headers, companyHeaders)

	var rows []model.RawRow
	for _, line := range lines[1:] {
		values := splitCSVLine(line)

		name := columnValue(values, nameIdx, 0)
		company := columnValue(values, companyIdx, 1)
		if strings.TrimSpace(name) == "" && strings.TrimSpace(company) == "" {
			continue
		}

		fields := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(values) {
				fields[h] = strings.TrimSpace(values[i])
			}
		}

		rows = append(rows, model.RawRow{
			Name:    strings.TrimSpace(name),
			Company: strings.TrimSpace(company),
			Fields:  fields,
		})
	}
	return rows
}

// findHeader returns the index of the first header matching one of the
// aliases, or -1 when no header matches.
func findHeader(headers []string, aliases []string) int {
	for i, h := range headers {
		lower := strings.ToLower(strings.TrimSpace(h))
		for _, a := range aliases {
			if lower == a {
				return i
			}
		}
	}
	return -1
}

// columnValue resolves a row value at the detected column, falling back to
// the positional default when the column was not detected or the row is short.
func columnValue(values []string, idx, fallback int) string {
	if idx >= 0 && idx < len(values) {
		return values[idx]
	}
	if fallback < len(values) {
		return values[fallback]
	}
	return ""
}

// splitCSVLine splits one data line into fields. A comma separates fields
// only outside a quoted span, and a doubled quote inside a quoted span is an
// escaped literal quote. Quotes do not need to wrap an entire field.
func splitCSVLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

// stripOuterQuotes removes a single layer of surrounding straight or smart
// quotes from a header token.
func stripOuterQuotes(s string) string {
	pairs := [][2]string{
		{`"`, `"`},
		{"“", "”"}, // “ ”
		{"'", "'"},
		{"‘", "’"}, // ‘ ’
	}
	for _, p := range pairs {
		if len(s) >= len(p[0])+len(p[1]) && strings.HasPrefix(s, p[0]) && strings.HasSuffix(s, p[1]) {
			return s[len(p[0]) : len(s)-len(p[1])]
		}
	}
	return s
}
