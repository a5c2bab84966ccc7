// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ipc

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/array"
	"github.com/apache/arrow/go/lists/arrow/bitutil"
	"github.com/apache/arrow/go/lists/arrow/ipc/compress"
	"golang.org/x/xerrors"
)

// payload accumulates the field nodes, buffer layout and body of a batch.
type payload struct {
	codec compress.Codec
	level int

	nodes   []fieldNode
	buffers []bufferSpec
	body    bytes.Buffer
	scratch []byte
}

func (p *payload) absent() {
	p.buffers = append(p.buffers, bufferSpec{Offset: int64(p.body.Len())})
}

// add appends b to the body, compressed when a codec is set, and pads the
// body to a multiple of 8 bytes.
func (p *payload) add(b []byte) {
	offset := p.body.Len()
	if p.codec == nil {
		p.body.Write(b)
	} else {
		var prefix [8]byte
		raw := true
		if len(b) > 0 {
			p.scratch = p.codec.EncodeLevel(p.scratch[:0], b, p.level)
			raw = len(p.scratch) == 0 || len(p.scratch) >= len(b)
		}
		if raw {
			binary.LittleEndian.PutUint64(prefix[:], ^uint64(0))
			p.body.Write(prefix[:])
			p.body.Write(b)
		} else {
			binary.LittleEndian.PutUint64(prefix[:], uint64(len(b)))
			p.body.Write(prefix[:])
			p.body.Write(p.scratch)
		}
	}
	length := p.body.Len() - offset
	if pad := bitutil.CeilByte(p.body.Len()) - p.body.Len(); pad > 0 {
		p.body.Write(make([]byte, pad))
	}
	p.buffers = append(p.buffers, bufferSpec{Offset: int64(offset), Length: int64(length)})
}

// visit lays out arr and its children in pre-order. Sliced arrays are
// written relative to their own first element.
func (p *payload) visit(arr arrow.Array, depth int) error {
	if depth > kMaxNestingDepth {
		return xerrors.Errorf("arrow/ipc: %w: type nesting deeper than %d", arrow.ErrInvalid, kMaxNestingDepth)
	}

	p.nodes = append(p.nodes, fieldNode{Length: int64(arr.Len()), Nulls: int64(arr.NullN())})
	if arr.DataType().ID() == arrow.NULL {
		return nil
	}

	if arr.NullN() == 0 {
		p.absent()
	} else {
		p.add(validityBytes(arr))
	}

	switch arr := arr.(type) {
	case *array.Boolean:
		out := make([]byte, bitutil.BytesForBits(int64(arr.Len())))
		for i := 0; i < arr.Len(); i++ {
			if arr.Value(i) {
				bitutil.SetBit(out, i)
			}
		}
		p.add(out)
	case *array.Int32:
		p.add(arrow.GetBytes(arr.Int32Values()))
	case *array.Int64:
		p.add(arrow.GetBytes(arr.Int64Values()))
	case *array.Float64:
		p.add(arrow.GetBytes(arr.Float64Values()))
	case *array.Timestamp:
		p.add(arrow.GetBytes(arr.TimestampValues()))
	case *array.String:
		p.binary(&arr.Binary)
	case *array.Binary:
		p.binary(arr)
	case *array.List:
		return p.list(arr, false, depth)
	case *array.LargeList:
		return p.list(arr, true, depth)
	default:
		return xerrors.Errorf("arrow/ipc: %w: unsupported array type %s", arrow.ErrNotImplemented, arr.DataType())
	}
	return nil
}

func validityBytes(arr arrow.Array) []byte {
	n := int(bitutil.BytesForBits(int64(arr.Len())))
	if arr.Data().Offset() == 0 {
		return arr.NullBitmapBytes()[:n]
	}
	out := make([]byte, n)
	for i := 0; i < arr.Len(); i++ {
		if arr.IsValid(i) {
			bitutil.SetBit(out, i)
		}
	}
	return out
}

func (p *payload) binary(arr *array.Binary) {
	if arr.Len() == 0 {
		p.add(arrow.GetBytes([]int32{0}))
		p.absent()
		return
	}

	offsets := arr.ValueOffsets()
	rebased := make([]int32, len(offsets))
	for i, o := range offsets {
		rebased[i] = o - offsets[0]
	}
	p.add(arrow.GetBytes(rebased))
	p.add(arr.ValueBytes())
}

func (p *payload) list(arr array.ListLike, large bool, depth int) error {
	n := arr.Len()
	var start, end int64
	if n > 0 {
		start, _ = arr.ValueOffsets(0)
		_, end = arr.ValueOffsets(n - 1)
	}

	if large {
		offsets := make([]int64, n+1)
		for i := 0; i < n; i++ {
			_, e := arr.ValueOffsets(i)
			offsets[i+1] = e - start
		}
		p.add(arrow.GetBytes(offsets))
	} else {
		offsets := make([]int32, n+1)
		for i := 0; i < n; i++ {
			_, e := arr.ValueOffsets(i)
			offsets[i+1] = int32(e - start)
		}
		p.add(arrow.GetBytes(offsets))
	}

	child := array.NewSlice(arr.ListValues(), start, end)
	defer child.Release()
	return p.visit(child, depth+1)
}

// batchWriter writes the schema message lazily and a batch message per array.
type batchWriter struct {
	w     io.Writer
	cfg   *config
	codec compress.Codec

	field   *arrow.Field
	started bool
	closed  bool

	// onBatch is called with the metadata and body sizes of each batch.
	onBatch func(meta int32, body int64)
}

func newBatchWriter(w io.Writer, cfg *config) (*batchWriter, error) {
	bw := &batchWriter{w: w, cfg: cfg, field: cfg.field}
	if cfg.codec != compress.Codecs.Uncompressed {
		codec, err := compress.GetCodec(cfg.codec)
		if err != nil {
			return nil, xerrors.Errorf("arrow/ipc: could not create codec: %w", err)
		}
		bw.codec = codec
	}
	return bw, nil
}

func (w *batchWriter) start() error {
	if w.started || w.field == nil {
		return nil
	}
	w.started = true

	_, _, err := writeMessage(w.w, &messageHeader{Type: MessageSchema, Field: w.field}, nil)
	return err
}

func (w *batchWriter) write(arr arrow.Array) error {
	if w.closed {
		return xerrors.Errorf("arrow/ipc: %w: write on closed writer", arrow.ErrInvalid)
	}
	if w.field == nil {
		w.field = &arrow.Field{Name: "values", Type: arr.DataType(), Nullable: true}
	}
	if !arrow.TypeEqual(arr.DataType(), w.field.Type) {
		return xerrors.Errorf("arrow/ipc: %w: array type %s does not match field type %s",
			arrow.ErrType, arr.DataType(), w.field.Type)
	}
	if err := w.start(); err != nil {
		return err
	}

	p := payload{codec: w.codec, level: w.cfg.level}
	if err := p.visit(arr, 0); err != nil {
		return err
	}

	hdr := &messageHeader{Type: MessageBatch, Nodes: p.nodes, Buffers: p.buffers}
	if w.codec != nil {
		hdr.Codec = w.cfg.codec
	}
	meta, body, err := writeMessage(w.w, hdr, p.body.Bytes())
	if err != nil {
		return err
	}
	if w.onBatch != nil {
		w.onBatch(meta, body)
	}
	return nil
}

func (w *batchWriter) close() error {
	if w.closed {
		return nil
	}
	if err := w.start(); err != nil {
		return err
	}
	w.closed = true
	return writeEOS(w.w)
}

// Writer is an Arrow stream writer.
type Writer struct {
	bw  *batchWriter
	err error
}

// NewWriter returns a writer that writes arrays to the provided output stream.
// The schema message is written with the first array, or on Close when the
// field was given with WithField.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	bw, err := newBatchWriter(w, newConfig(opts...))
	return &Writer{bw: bw, err: err}
}

// Write writes arr as one batch. The array is not retained.
func (w *Writer) Write(arr arrow.Array) error {
	if w.err != nil {
		return w.err
	}
	return w.bw.write(arr)
}

// Close writes the end-of-stream marker. It does not close the underlying
// writer.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	return w.bw.close()
}
