// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package query

import (
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/chronoscale/chronos/pkg/chronoserr"
)

// ForwardResult is the metadata map a forwarding write returns, surfaced as
// the query's single result row (spec.md §4.6).
type ForwardResult struct {
	RowCount   int64
	TypeString string
	Data       map[string]int64 // uri -> byteCount
}

// ErrUnsupportedFormat is returned by FileFormatter for any format other
// than json, csv and tsv; the excel, orc and index-building formats have no
// encoder in this engine.
var ErrUnsupportedFormat = chronoserr.New(chronoserr.IllegalArgument, "forwarding format not implemented in this engine")

// Formatter serializes a result sequence to one sink URI.
type Formatter interface {
	Forward(uri string, seq ResultSequence, columns []string) (ForwardResult, error)
}

// RewriteForwardURI applies spec.md §4.6/§6's URI rewriting rules:
// "$localTemp$" becomes a freshly created temp directory, and a bare
// "file:" URI with no host is stamped with the local node name (and
// suffixed by it again if local post-processing was requested, to avoid
// collisions across workers).
func RewriteForwardURI(raw, localNodeName string, localPostProcessing bool) (string, error) {
	if raw == "$localTemp$" {
		dir, err := os.MkdirTemp("", "chronos-forward-")
		if err != nil {
			return "", chronoserr.Wrap(chronoserr.Internal, err)
		}
		raw = "file://" + dir
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", chronoserr.New(chronoserr.IllegalArgument, "invalid forward URI %q: %s", raw, err)
	}
	if u.Scheme == "file" && u.Host == "" {
		u.Host = localNodeName
	}
	if localPostProcessing {
		u.Path = strings.TrimSuffix(u.Path, "/") + "-" + localNodeName
	}
	return u.String(), nil
}

// NullFormatter discards all rows, counting them as it goes.
type NullFormatter struct{}

func (NullFormatter) Forward(uri string, seq ResultSequence, columns []string) (ForwardResult, error) {
	var n int64
	for {
		_, ok, err := seq.Next()
		if err != nil {
			return ForwardResult{}, err
		}
		if !ok {
			break
		}
		n++
	}
	return ForwardResult{RowCount: n, TypeString: "null", Data: map[string]int64{uri: 0}}, nil
}

// FileFormat selects the on-disk serialization FileFormatter writes.
type FileFormat string

const (
	FormatJSON FileFormat = "json"
	FormatCSV  FileFormat = "csv"
	FormatTSV  FileFormat = "tsv"
)

// FileFormatterOptions mirrors spec.md §6's forwardContext knobs for the
// json/csv/tsv formats.
type FileFormatterOptions struct {
	Format     FileFormat
	WrapAsList bool   // json only
	WithHeader bool   // csv/tsv only
	NullValue  string // csv/tsv only
	Columns    []string
}

// FileFormatter writes rows to a local "file://" URI in json/csv/tsv.
type FileFormatter struct{}

func (FileFormatter) Forward(uri string, seq ResultSequence, opts FileFormatterOptions) (ForwardResult, error) {
	switch opts.Format {
	case FormatJSON, FormatCSV, FormatTSV:
	default:
		return ForwardResult{}, ErrUnsupportedFormat
	}
	u, err := url.Parse(uri)
	if err != nil {
		return ForwardResult{}, chronoserr.New(chronoserr.IllegalArgument, "invalid file URI %q: %s", uri, err)
	}
	if u.Scheme != "file" {
		return ForwardResult{}, chronoserr.New(chronoserr.IllegalArgument, "FileFormatter requires a file:// URI, got %q", uri)
	}
	path := u.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ForwardResult{}, chronoserr.Wrap(chronoserr.Internal, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return ForwardResult{}, chronoserr.Wrap(chronoserr.Internal, err)
	}
	defer f.Close()

	var n int64
	var written int64
	switch opts.Format {
	case FormatCSV, FormatTSV:
		w := csv.NewWriter(f)
		if opts.Format == FormatTSV {
			w.Comma = '\t'
		}
		if opts.WithHeader {
			_ = w.Write(opts.Columns)
		}
		for {
			row, ok, err := seq.Next()
			if err != nil {
				return ForwardResult{}, err
			}
			if !ok {
				break
			}
			record := rowToRecord(row, opts.Columns, opts.NullValue)
			if err := w.Write(record); err != nil {
				return ForwardResult{}, chronoserr.Wrap(chronoserr.Internal, err)
			}
			n++
		}
		w.Flush()
	default: // json
		json := jsoniter.ConfigCompatibleWithStandardLibrary
		if opts.WrapAsList {
			f.WriteString("[")
		}
		first := true
		for {
			row, ok, err := seq.Next()
			if err != nil {
				return ForwardResult{}, err
			}
			if !ok {
				break
			}
			if opts.WrapAsList && !first {
				f.WriteString(",")
			}
			first = false
			b, err := json.Marshal(row)
			if err != nil {
				return ForwardResult{}, chronoserr.Wrap(chronoserr.Internal, err)
			}
			w, _ := f.Write(b)
			written += int64(w)
			if !opts.WrapAsList {
				f.WriteString("\n")
			}
			n++
		}
		if opts.WrapAsList {
			f.WriteString("]")
		}
	}

	info, statErr := f.Stat()
	if statErr == nil {
		written = info.Size()
	}
	return ForwardResult{
		RowCount:   n,
		TypeString: string(opts.Format),
		Data:       map[string]int64{uri: written},
	}, nil
}

func rowToRecord(row any, columns []string, nullValue string) []string {
	m, ok := row.(map[string]any)
	if !ok {
		return []string{fmt.Sprintf("%v", row)}
	}
	out := make([]string, len(columns))
	for i, c := range columns {
		v, present := m[c]
		if !present || v == nil {
			out[i] = nullValue
			continue
		}
		out[i] = fmt.Sprintf("%v", v)
	}
	return out
}
