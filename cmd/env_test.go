package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestCSV(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("name,company\nJane Doe,Acme\n"), 0o644))
}

func TestWriteFormatted(t *testing.T) {
	v := map[string]string{"key": "value"}

	var buf bytes.Buffer
	require.NoError(t, writeFormatted(&buf, v, "json"))
	assert.JSONEq(t, `{"key": "value"}`, buf.String())

	buf.Reset()
	require.NoError(t, writeFormatted(&buf, v, "yaml"))
	assert.Contains(t, buf.String(), "key: value")

	assert.Error(t, writeFormatted(&buf, v, "xml"))
}
