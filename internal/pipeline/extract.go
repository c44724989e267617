package pipeline

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// maxExtractionDepth bounds the recursive search. The agent response is
// external and non-deterministic, so the cap is a hard safety limit against
// pathological or adversarial nesting.
const maxExtractionDepth = 10

// enrichedDataKey is the field the agent contract places the enrichment
// array under when it honors the expected response shape.
const enrichedDataKey = "enriched_data"

// wrapperKeys are generic envelope fields agents commonly nest their payload
// under, probed in this order.
var wrapperKeys = []string{"result", "response", "data", "output", "content", "message", "text"}

// ExtractionResult is the intermediate output of the deep extraction engine,
// before normalization. Enriched elements are raw, unvalidated records.
type ExtractionResult struct {
	Enriched  []any
	Summary   any
	Artifacts []model.ArtifactFile
}

// Empty reports whether no enrichment records were located.
func (r ExtractionResult) Empty() bool { return len(r.Enriched) == 0 }

// ExtractFromViews runs the deep extraction over several candidate views of
// the same agent response (inner payload, outer envelope, raw string), in
// priority order. The first view yielding a non-empty enriched set wins;
// later views are never consulted after a success.
func ExtractFromViews(views ...any) ExtractionResult {
	for i, v := range views {
		if v == nil {
			continue
		}
		if res := extractEnrichment(v, 0); !res.Empty() {
			zap.L().Debug("extract: located enrichment data",
				zap.Int("view", i),
				zap.Int("records", len(res.Enriched)),
			)
			return res
		}
	}
	return ExtractionResult{}
}

// extractEnrichment recursively searches an arbitrary decoded value for an
// enrichment payload. Resolution order, each level short-circuiting on first
// success: exact contract match, structural array match, wrapper-key
// traversal, literal key scan, exhaustive recursion. Fails closed (returns
// empty) past maxExtractionDepth.
func extractEnrichment(v any, depth int) ExtractionResult {
	if depth > maxExtractionDepth {
		return ExtractionResult{}
	}

	switch val := v.(type) {
	case string:
		decoded, err := DecodeLenient(val)
		if err != nil {
			return ExtractionResult{}
		}
		switch decoded.(type) {
		case map[string]any, []any:
			return extractEnrichment(decoded, depth+1)
		}
		return ExtractionResult{}

	case []any:
		if arrayLooksEnriched(val) {
			return ExtractionResult{Enriched: val}
		}
		return ExtractionResult{}

	case map[string]any:
		// Exact contract match: the enrichment array with its siblings.
		if arr, ok := val[enrichedDataKey].([]any); ok && len(arr) > 0 {
			return ExtractionResult{
				Enriched:  arr,
				Summary:   val["summary"],
				Artifacts: artifactsFromAny(val["output_files"]),
			}
		}

		// Wrapper-key traversal.
		for _, key := range wrapperKeys {
			inner, ok := val[key]
			if !ok || inner == nil {
				continue
			}
			if res := extractEnrichment(inner, depth+1); !res.Empty() {
				return res
			}
		}

		// Literal key scan: duplicate of the contract match for objects that
		// slipped past the array-type guard above.
		for _, key := range sortedKeys(val) {
			if key != enrichedDataKey {
				continue
			}
			if arr, ok := val[key].([]any); ok && len(arr) > 0 {
				return ExtractionResult{
					Enriched:  arr,
					Summary:   val["summary"],
					Artifacts: artifactsFromAny(val["output_files"]),
				}
			}
		}

		// Exhaustive recursion into every remaining container value.
		for _, key := range sortedKeys(val) {
			switch val[key].(type) {
			case map[string]any, []any:
				if res := extractEnrichment(val[key], depth+1); !res.Empty() {
					return res
				}
			}
		}
	}

	return ExtractionResult{}
}

// arrayLooksEnriched reports whether an array is itself the enriched set:
// its first element is an object carrying at least one subject attribute
// (name/company) and at least one enrichment attribute.
func arrayLooksEnriched(arr []any) bool {
	if len(arr) == 0 {
		return false
	}
	first, ok := arr[0].(map[string]any)
	if !ok {
		return false
	}
	return hasAnyKey(first, "name", "company") &&
		hasAnyKey(first, "revenue", "sector", "decision_maker")
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// sortedKeys returns map keys in a deterministic order so repeated
// extractions over the same response always walk the same path.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// artifactsFromAny converts a decoded artifact-files value into typed
// artifacts, skipping malformed entries. A non-array value yields nil.
func artifactsFromAny(v any) []model.ArtifactFile {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var files []model.ArtifactFile
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		files = append(files, model.ArtifactFile{
			FileURL:    coerceString(m["file_url"]),
			Name:       coerceString(m["name"]),
			FormatType: coerceString(m["format_type"]),
		})
	}
	return files
}
