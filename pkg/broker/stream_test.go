// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package broker

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRowStreamCancelsOnEarlyClose is spec.md §8 scenario S6's core
// mechanism: closing a result sequence before it has drained a peer's
// response must fire the best-effort cancellation callback (the broker's
// DELETE to that node), but a stream that already reached EOF on its own
// must not re-fire it.
func TestRowStreamCancelsOnEarlyClose(t *testing.T) {
	require := require.New(t)

	body := io.NopCloser(strings.NewReader(`{"a":1}
{"a":2}
`))
	cancelled := false
	s := newRowStream(body, func() { cancelled = true })

	_, ok, err := s.Next()
	require.NoError(err)
	require.True(ok)

	require.NoError(s.Close())
	require.True(cancelled, "closing before EOF must cancel the peer")
}

func TestRowStreamDoesNotCancelAfterNaturalEOF(t *testing.T) {
	require := require.New(t)

	body := io.NopCloser(strings.NewReader(`{"a":1}
`))
	cancelled := false
	s := newRowStream(body, func() { cancelled = true })

	for {
		_, ok, err := s.Next()
		require.NoError(err)
		if !ok {
			break
		}
	}

	require.NoError(s.Close())
	require.False(cancelled, "closing after natural EOF must not cancel the peer")
}
