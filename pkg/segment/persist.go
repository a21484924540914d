// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package segment

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/dict"
	"github.com/chronoscale/chronos/pkg/value"
)

// persistedSegment is the gob-encodable shadow of Segment: dictionaries and
// dimension id arrays compress well with zstd's large match window (string
// dictionaries repeat heavily across a segment's lifetime), while the dense
// per-row numeric arrays favor snappy's low per-block latency over zstd's
// ratio, so the two column families are compressed with different codecs
// rather than one blanket choice — mirroring how columnar stores typically
// pick a codec per column type rather than per file.
type persistedSegment struct {
	Handle     Handle
	NumRows    int
	Timestamps []int64
	DimNames   []string
	DimValues  map[string][][]int
	DimDict    map[string][]string // ordered id -> name, rebuilds dict.Dict on load
	Metrics    map[string]persistedMetric
	Objects    map[string]persistedObject
}

type persistedMetric struct {
	Kind    value.Kind
	Floats  []float32
	Longs   []int64
	Doubles []float64
}

// persistedObject stores complex/object column values as their %v string
// form rather than gob-encoding the live any values: gob requires every
// concrete type behind an interface to be registered with the encoder, and
// the aggregator states that live in an ObjectColumn (pkg/aggregation's
// sketches/histograms) live in a package that cannot be imported here
// without creating the segment<->aggregation import cycle the rest of the
// engine deliberately avoids (see pkg/aggregation.ColumnSource's doc
// comment). Persisted object columns are therefore a lossy diagnostic
// snapshot; a full round trip re-derives them by re-running ingestion
// against the original incremental index, not by deserializing a segment.
type persistedObject struct {
	Desc   value.Desc
	Values []string
}

const (
	sectionZstd  byte = 1 // dictionaries + dimension id arrays
	sectionSnappy byte = 2 // numeric column arrays
)

// Serialize encodes a built Segment into a self-contained byte blob:
// dictionary/dimension state under zstd, numeric columns under snappy,
// both length-prefixed behind a small binary header.
func Serialize(s *Segment) ([]byte, error) {
	p := persistedSegment{
		Handle:     s.handle,
		NumRows:    s.numRows,
		Timestamps: s.timestamps,
		DimValues:  map[string][][]int{},
		DimDict:    map[string][]string{},
		Metrics:    map[string]persistedMetric{},
		Objects:    map[string]persistedObject{},
	}
	for name, d := range s.dims {
		p.DimNames = append(p.DimNames, name)
		p.DimValues[name] = d.Values
		if d.Dict != nil {
			p.DimDict[name] = d.Dict.Names()
		}
	}
	for name, m := range s.metrics {
		p.Metrics[name] = persistedMetric{Kind: m.Kind, Floats: m.Floats, Longs: m.Longs, Doubles: m.Doubles}
	}
	for name, o := range s.objects {
		strs := make([]string, len(o.Values))
		for i, v := range o.Values {
			strs[i] = fmt.Sprintf("%v", v)
		}
		p.Objects[name] = persistedObject{Desc: o.Desc, Values: strs}
	}

	dictBuf, err := gobEncode(dictSection{DimNames: p.DimNames, DimValues: p.DimValues, DimDict: p.DimDict, Timestamps: p.Timestamps, Handle: p.Handle, NumRows: p.NumRows})
	if err != nil {
		return nil, chronoserr.Wrap(chronoserr.Internal, err)
	}
	numSection, err := gobEncode(numericSection{Metrics: p.Metrics, Objects: p.Objects})
	if err != nil {
		return nil, chronoserr.Wrap(chronoserr.Internal, err)
	}

	zw, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, chronoserr.Wrap(chronoserr.Internal, err)
	}
	defer zw.Close()
	compressedDict := zw.EncodeAll(dictBuf, nil)
	compressedNum := snappy.Encode(nil, numSection)

	var out bytes.Buffer
	writeSection(&out, sectionZstd, compressedDict)
	writeSection(&out, sectionSnappy, compressedNum)
	return out.Bytes(), nil
}

// Deserialize reconstructs a Segment from bytes produced by Serialize.
func Deserialize(blob []byte) (*Segment, error) {
	r := bytes.NewReader(blob)
	var ds, ns []byte
	for r.Len() > 0 {
		kind, data, err := readSection(r)
		if err != nil {
			return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
		}
		switch kind {
		case sectionZstd:
			ds = data
		case sectionSnappy:
			ns = data
		}
	}

	zr, err := zstd.NewReader(nil)
	if err != nil {
		return nil, chronoserr.Wrap(chronoserr.Internal, err)
	}
	defer zr.Close()
	dictBuf, err := zr.DecodeAll(ds, nil)
	if err != nil {
		return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	numBuf, err := snappy.Decode(nil, ns)
	if err != nil {
		return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}

	var dsec dictSection
	if err := gobDecode(dictBuf, &dsec); err != nil {
		return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	var nsec numericSection
	if err := gobDecode(numBuf, &nsec); err != nil {
		return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}

	dims := make(map[string]*DimensionColumn, len(dsec.DimNames))
	for _, name := range dsec.DimNames {
		d := dict.New(0)
		for _, n := range dsec.DimDict[name] {
			d.IDOf(n)
		}
		dims[name] = &DimensionColumn{Dict: d, Values: dsec.DimValues[name]}
	}
	metrics := make(map[string]*NumericColumn, len(nsec.Metrics))
	for name, m := range nsec.Metrics {
		metrics[name] = &NumericColumn{Kind: m.Kind, Floats: m.Floats, Longs: m.Longs, Doubles: m.Doubles}
	}
	objects := make(map[string]*ObjectColumn, len(nsec.Objects))
	for name, o := range nsec.Objects {
		vals := make([]any, len(o.Values))
		for i, v := range o.Values {
			vals[i] = v
		}
		objects[name] = &ObjectColumn{Desc: o.Desc, Values: vals}
	}

	seg := &Segment{
		handle:     dsec.Handle,
		numRows:    dsec.NumRows,
		timestamps: dsec.Timestamps,
		dims:       dims,
		metrics:    metrics,
		objects:    objects,
	}
	b := NewBuilder(dsec.Handle)
	b.timestamps = seg.timestamps
	b.numRows = seg.numRows
	b.dims = dims
	b.metrics = metrics
	b.objects = objects
	return b.Build(), nil
}

type dictSection struct {
	Handle     Handle
	NumRows    int
	Timestamps []int64
	DimNames   []string
	DimValues  map[string][][]int
	DimDict    map[string][]string
}

type numericSection struct {
	Metrics map[string]persistedMetric
	Objects map[string]persistedObject
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func writeSection(out *bytes.Buffer, kind byte, data []byte) {
	out.WriteByte(kind)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	out.Write(lenBuf[:])
	out.Write(data)
}

func readSection(r *bytes.Reader) (byte, []byte, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, nil, err
	}
	return kind, data, nil
}
