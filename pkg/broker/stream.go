// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package broker

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/chronoscale/chronos/pkg/chronoserr"
)

// rowStream decodes a newline-delimited JSON response body one row at a
// time via json-iterator's streaming Decoder, so a broker never buffers an
// entire peer's response before starting to merge it.
type rowStream struct {
	body    io.ReadCloser
	dec     *jsoniter.Decoder
	cancel  func() // best-effort peer cancellation, called from Close before EOF
	reached bool
}

func newRowStream(body io.ReadCloser, cancel func()) *rowStream {
	return &rowStream{body: body, dec: jsoniter.NewDecoder(body), cancel: cancel}
}

func (s *rowStream) Next() (any, bool, error) {
	if s.reached {
		return nil, false, nil
	}
	var row map[string]any
	if err := s.dec.Decode(&row); err != nil {
		if err == io.EOF {
			s.reached = true
			return nil, false, nil
		}
		return nil, false, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	return row, true, nil
}

// Close closes the underlying body. If EOF was not yet reached, the peer
// is still mid-scan, so the best-effort cancel callback fires too
// (cancellation-on-close).
func (s *rowStream) Close() error {
	if !s.reached && s.cancel != nil {
		s.cancel()
	}
	return s.body.Close()
}
