package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLenient_PlainObject(t *testing.T) {
	v, err := DecodeLenient(`{"a": 1}`)
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), m["a"])
}

func TestDecodeLenient_MarkdownFence(t *testing.T) {
	input := "Here are your results:\n```json\n{\"enriched_data\": []}\n```\nLet me know if you need more."
	v, err := DecodeLenient(input)
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "enriched_data")
}

func TestDecodeLenient_ProseAroundArray(t *testing.T) {
	v, err := DecodeLenient(`The data follows: [{"name": "Jane"}] hope that helps`)
	require.NoError(t, err)
	arr, ok := v.([]any)
	require.True(t, ok)
	require.Len(t, arr, 1)
}

func TestDecodeLenient_TruncatedObject(t *testing.T) {
	v, err := DecodeLenient(`{"records": [{"name": "Jane", "company": "Ac`)
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	records, ok := m["records"].([]any)
	require.True(t, ok)
	require.Len(t, records, 1)
}

func TestDecodeLenient_TruncatedArray(t *testing.T) {
	v, err := DecodeLenient(`[{"name": "Jane"}, {"name": "John"`)
	require.NoError(t, err)
	arr, ok := v.([]any)
	require.True(t, ok)
	assert.Len(t, arr, 2)
}

func TestDecodeLenient_NoJSON(t *testing.T) {
	_, err := DecodeLenient("I could not process your request.")
	assert.Error(t, err)

	_, err = DecodeLenient("")
	assert.Error(t, err)
}

func TestCleanJSON_ArrayBeforeObject(t *testing.T) {
	// When an array opens first, extract the array, not the object inside it.
	out := cleanJSON(`noise [{"a": 1}] trailing`)
	assert.Equal(t, `[{"a": 1}]`, out)
}

func TestRepairTruncatedJSON_QuoteAware(t *testing.T) {
	// Braces inside string values must not affect the repair stack.
	out := repairTruncatedJSON(`{"note": "use { and [ freely", "x": [1`)
	assert.Equal(t, `{"note": "use { and [ freely", "x": [1]}`, out)
}
