package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
)

// fieldAlias maps one canonical record field to the ordered list of source
// keys accepted for it, and the default used when none is present.
type fieldAlias struct {
	canonical string
	sources   []string
	fallback  string
}

// recordAliases is the normalization table. Order within sources matters:
// the first present, non-null key wins. Confidence defaults to "Low" because
// absent confidence data must not be presented as trustworthy.
var recordAliases = []fieldAlias{
	{"name", []string{"name", "person_name", "contact_name", "full_name"}, "N/A"},
	{"company", []string{"company", "company_name", "organization", "employer"}, "N/A"},
	{"revenue", []string{"revenue", "annual_revenue", "company_revenue", "revenue_estimate"}, "N/A"},
	{"sector", []string{"sector", "industry", "vertical", "market_segment"}, "N/A"},
	{"decision_maker", []string{"decision_maker", "decision_maker_status", "is_decision_maker", "decisionMaker"}, "N/A"},
	{"job_title", []string{"job_title", "title", "role", "position", "jobTitle"}, "N/A"},
	{"confidence", []string{"confidence", "confidence_level", "confidence_score"}, "Low"},
}

// NormalizeRecords maps each raw extracted record into the canonical shape.
func NormalizeRecords(raw []any) []model.EnrichedRecord {
	records := make([]model.EnrichedRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, NormalizeRecord(r))
	}
	return records
}

// NormalizeRecord maps one raw record, an object with unpredictable field
// names and types, into exactly one EnrichedRecord. A non-object input
// yields a record of pure defaults.
func NormalizeRecord(raw any) model.EnrichedRecord {
	m, _ := raw.(map[string]any)

	resolved := make(map[string]string, len(recordAliases))
	for _, fa := range recordAliases {
		resolved[fa.canonical] = fa.fallback
		for _, key := range fa.sources {
			if v, ok := m[key]; ok && v != nil {
				resolved[fa.canonical] = coerceString(v)
				break
			}
		}
	}

	return model.EnrichedRecord{
		Name:          resolved["name"],
		Company:       resolved["company"],
		Revenue:       resolved["revenue"],
		Sector:        resolved["sector"],
		DecisionMaker: resolved["decision_maker"],
		JobTitle:      resolved["job_title"],
		Confidence:    resolved["confidence"],
	}
}

// NormalizeSummary coerces an agent-supplied summary, or derives one from the
// normalized records when the agent supplied none. Supplied values win over
// derivable ones: the agent's summary may reflect information (e.g. removed
// duplicates) invisible to the normalizer.
func NormalizeSummary(supplied any, records []model.EnrichedRecord) model.EnrichmentSummary {
	m, ok := supplied.(map[string]any)
	if !ok {
		return deriveSummary(records)
	}
	return model.EnrichmentSummary{
		TotalRecords:        coerceInt(m["total_records"], len(records)),
		DecisionMakersFound: coerceInt(m["decision_makers_found"], 0),
		LowConfidenceCount:  coerceInt(m["low_confidence_count"], 0),
		HighConfidenceRate:  coerceStringDefault(m["high_confidence_rate"], "0%"),
	}
}

// deriveSummary computes summary counts purely from the normalized records.
func deriveSummary(records []model.EnrichedRecord) model.EnrichmentSummary {
	var decisionMakers, low, high int
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.DecisionMaker), "yes") {
			decisionMakers++
		}
		conf := strings.ToLower(r.Confidence)
		if strings.Contains(conf, "low") {
			low++
		}
		if strings.Contains(conf, "high") {
			high++
		}
	}

	rate := "0%"
	if len(records) > 0 {
		pct := int(math.Round(float64(high) / float64(len(records)) * 100))
		rate = strconv.Itoa(pct) + "%"
	}

	return model.EnrichmentSummary{
		TotalRecords:        len(records),
		DecisionMakersFound: decisionMakers,
		LowConfidenceCount:  low,
		HighConfidenceRate:  rate,
	}
}

// coerceString renders any scalar as text. Nil yields "". JSON numbers are
// rendered without the float64 artifacts (1 not 1.000000).
func coerceString(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprintf("%v", n)
	}
}

func coerceStringDefault(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	if s := coerceString(v); s != "" {
		return s
	}
	return fallback
}

// coerceInt converts a decoded numeric value, falling back when the value is
// absent or non-numeric.
func coerceInt(v any, fallback int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed
		}
	}
	return fallback
}
