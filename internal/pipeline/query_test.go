package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func queryFixture() []model.EnrichedRecord {
	return []model.EnrichedRecord{
		{Name: "Carol", Company: "Zenith", Revenue: "$9M", Sector: "Retail", DecisionMaker: "Yes", JobTitle: "CEO", Confidence: "High"},
		{Name: "alice", Company: "Acme", Revenue: "$5M", Sector: "Tech", DecisionMaker: "No", JobTitle: "Engineer", Confidence: "Low"},
		{Name: "Bob", Company: "Midway", Revenue: "$2M", Sector: "Tech", DecisionMaker: "Yes", JobTitle: "VP Sales", Confidence: "low"},
	}
}

func TestFilterRecords(t *testing.T) {
	records := queryFixture()

	all := FilterRecords(records, FilterAll)
	assert.Len(t, all, 3)

	low := FilterRecords(records, FilterLowConfidence)
	require.Len(t, low, 2)
	assert.Equal(t, "alice", low[0].Name)
	assert.Equal(t, "Bob", low[1].Name)

	dm := FilterRecords(records, FilterDecisionMakers)
	require.Len(t, dm, 2)
	assert.Equal(t, "Carol", dm[0].Name)
}

func TestFilterRecords_DoesNotMutateInput(t *testing.T) {
	records := queryFixture()
	FilterRecords(records, FilterLowConfidence)
	assert.Equal(t, "Carol", records[0].Name)
	assert.Len(t, records, 3)
}

func TestSortRecords_CaseInsensitive(t *testing.T) {
	records := queryFixture()
	SortRecords(records, "name", false)
	assert.Equal(t, "alice", records[0].Name)
	assert.Equal(t, "Bob", records[1].Name)
	assert.Equal(t, "Carol", records[2].Name)
}

func TestSortRecords_Descending(t *testing.T) {
	records := queryFixture()
	SortRecords(records, "revenue", true)
	assert.Equal(t, "$9M", records[0].Revenue)
	assert.Equal(t, "$2M", records[2].Revenue)
}

func TestSortRecords_UnknownFieldNoop(t *testing.T) {
	records := queryFixture()
	SortRecords(records, "nope", false)
	assert.Equal(t, "Carol", records[0].Name)
}

func TestSortRecords_Idempotent(t *testing.T) {
	records := queryFixture()
	SortRecords(records, "sector", false)
	once := append([]model.EnrichedRecord(nil), records...)
	SortRecords(records, "sector", false)
	assert.Equal(t, once, records)
}

func TestSessionView(t *testing.T) {
	s := NewSession(queryFixture())
	s.Filter = FilterDecisionMakers
	s.SortField = "name"

	view := s.View()
	require.Len(t, view, 2)
	assert.Equal(t, "Bob", view[0].Name)
	assert.Equal(t, "Carol", view[1].Name)

	// The session's own records are untouched by viewing.
	assert.Len(t, s.Records, 3)
	assert.Equal(t, "Carol", s.Records[0].Name)
}

func TestParseFilterMode(t *testing.T) {
	for _, valid := range []string{"all", "low_confidence", "decision_makers"} {
		mode, err := ParseFilterMode(valid)
		assert.NoError(t, err)
		assert.Equal(t, FilterMode(valid), mode)
	}
	_, err := ParseFilterMode("everything")
	assert.Error(t, err)
}

func TestExportCSV_AllFieldsQuoted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	records := []model.EnrichedRecord{{
		Name: `Jane "JD" Doe`, Company: "Acme, Inc", Revenue: "$5M", Sector: "Tech",
		DecisionMaker: "Yes", JobTitle: "CTO", Confidence: "High",
	}}

	written, err := ExportCSV(records, path)
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `"Name","Company","Revenue","Sector","Decision Maker","Job Title","Confidence"` + "\n" +
		`"Jane ""JD"" Doe","Acme, Inc","$5M","Tech","Yes","CTO","High"` + "\n"
	assert.Equal(t, want, string(data))
}

func TestExportCSV_ZeroRecordsWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	written, err := ExportCSV(nil, path)
	require.NoError(t, err)
	assert.False(t, written)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
