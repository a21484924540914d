// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package query

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// TestFileFormatterForwardsJSON is spec.md §8 scenario S5: a query with a
// file:// forwardURL and two result rows writes a file whose contents equal
// the JSON-serialized two-element array, and reports a RowCount of 2 and a
// Data entry keyed by that URI.
func TestFileFormatterForwardsJSON(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	uri := "file://" + path

	rows := []any{
		map[string]any{"timestamp": int64(0), "c": int64(1)},
		map[string]any{"timestamp": int64(60000), "c": int64(2)},
	}
	seq := &fakeSequence{rows: rows}

	result, err := (FileFormatter{}).Forward(uri, seq, FileFormatterOptions{
		Format:     FormatJSON,
		WrapAsList: true,
		Columns:    []string{"timestamp", "c"},
	})
	require.NoError(err)
	require.Equal(int64(2), result.RowCount)
	require.Equal("json", result.TypeString)
	require.Contains(result.Data, uri)
	require.False(seq.closed) // Forward does not own closing the sequence

	written, err := os.ReadFile(path)
	require.NoError(err)
	require.Equal(int64(len(written)), result.Data[uri])

	var got []map[string]any
	require.NoError(json.Unmarshal(written, &got))

	want := []map[string]any{
		{"timestamp": float64(0), "c": float64(1)},
		{"timestamp": float64(60000), "c": float64(2)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("forwarded JSON mismatch (-want +got):\n%s", diff)
	}
}

// TestFileFormatterRejectsNonFileURI covers the boundary behavior guarding
// FileFormatter's scheme requirement.
func TestFileFormatterRejectsNonFileURI(t *testing.T) {
	require := require.New(t)

	_, err := (FileFormatter{}).Forward("http://example.com/out.json", &fakeSequence{}, FileFormatterOptions{Format: FormatJSON})
	require.Error(err)
}
