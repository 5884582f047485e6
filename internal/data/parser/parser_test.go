package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParserParseFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "events.jsonl", `{"team":"sales","type":"lead","payload":{"name":"acme"}}

invalid json line here
{"team":"ops"}
{"type":"deploy"}
`)

	entries, skipped, err := NewParser(1).ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, entries, 2)

	assert.Equal(t, "sales", entries[0].Team)
	assert.Equal(t, "lead", entries[0].Type)
	assert.JSONEq(t, `{"name":"acme"}`, string(entries[0].Payload))
	assert.Equal(t, 1, entries[0].Line)
	assert.Equal(t, path, entries[0].File)

	assert.Equal(t, "", entries[1].Team)
	assert.Equal(t, "deploy", entries[1].Type)
	assert.Equal(t, 5, entries[1].Line)
	assert.Nil(t, entries[1].Payload)
}

func TestParserParseFileMissing(t *testing.T) {
	_, _, err := NewParser(1).ParseFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func TestParserParseFilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "a.jsonl", `{"type":"a1"}`+"\n"+`{"type":"a2"}`),
		filepath.Join(dir, "missing.jsonl"),
		writeFile(t, dir, "c.jsonl", `{"type":"c1"}`),
	}

	results := NewParser(3).ParseFiles(files)
	require.Len(t, results, 3)

	assert.Equal(t, files[0], results[0].File)
	assert.Len(t, results[0].Entries, 2)
	assert.NoError(t, results[0].Error)

	assert.Error(t, results[1].Error)

	require.Len(t, results[2].Entries, 1)
	assert.Equal(t, "c1", results[2].Entries[0].Type)
}

func TestNewParserDefaultsConcurrency(t *testing.T) {
	assert.Equal(t, 1, NewParser(0).concurrency)
	assert.Equal(t, 4, NewParser(4).concurrency)
}
