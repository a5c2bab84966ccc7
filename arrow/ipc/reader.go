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
	"encoding/binary"
	"errors"
	"io"
	"sync/atomic"

	"github.com/JohnCGriffin/overflow"
	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/array"
	"github.com/apache/arrow/go/lists/arrow/internal/debug"
	"github.com/apache/arrow/go/lists/arrow/ipc/compress"
	"github.com/apache/arrow/go/lists/arrow/memory"
	"golang.org/x/xerrors"
)

// arrayLoader rebuilds an array from the nodes and buffers of a batch
// message. Uncompressed buffers are slices of the message body.
type arrayLoader struct {
	mem    memory.Allocator
	msg    *Message
	codec  compress.Codec
	maxBuf int64

	inode int
	ibuf  int
}

func loadArray(cfg *config, field arrow.Field, msg *Message) (arrow.Array, error) {
	if msg.Type() != MessageBatch {
		return nil, xerrors.Errorf("arrow/ipc: %w: expected a batch message, got %s", arrow.ErrInvalid, msg.Type())
	}

	ctx := &arrayLoader{mem: cfg.alloc, msg: msg, maxBuf: cfg.maxBuffer}
	if c := msg.header.Codec; c != compress.Codecs.Uncompressed {
		codec, err := compress.GetCodec(c)
		if err != nil {
			return nil, xerrors.Errorf("arrow/ipc: could not create codec: %w", err)
		}
		ctx.codec = codec
	}

	data, err := ctx.load(field.Type, 0)
	if err != nil {
		return nil, err
	}
	defer data.Release()

	if ctx.inode != len(msg.header.Nodes) || ctx.ibuf != len(msg.header.Buffers) {
		return nil, xerrors.Errorf("arrow/ipc: %w: batch has %d nodes and %d buffers, type %s uses %d and %d",
			arrow.ErrInvalid, len(msg.header.Nodes), len(msg.header.Buffers), field.Type, ctx.inode, ctx.ibuf)
	}

	arr := array.MakeFromData(data)
	if err := validateArray(arr); err != nil {
		arr.Release()
		return nil, err
	}
	return arr, nil
}

// validateArray runs the full validation of list arrays at every level.
func validateArray(arr arrow.Array) error {
	lst, ok := arr.(array.ListLike)
	if !ok {
		return nil
	}
	if err := lst.ValidateFull(); err != nil {
		return err
	}
	return validateArray(lst.ListValues())
}

func (ctx *arrayLoader) node() (fieldNode, error) {
	if ctx.inode >= len(ctx.msg.header.Nodes) {
		return fieldNode{}, xerrors.Errorf("arrow/ipc: %w: missing field node %d", arrow.ErrInvalid, ctx.inode)
	}
	n := ctx.msg.header.Nodes[ctx.inode]
	ctx.inode++
	if n.Length < 0 || n.Nulls < 0 || n.Nulls > n.Length {
		return fieldNode{}, xerrors.Errorf("arrow/ipc: %w: invalid field node (length=%d, nulls=%d)", arrow.ErrInvalid, n.Length, n.Nulls)
	}
	return n, nil
}

// bufferSize returns the number of bytes taken by n values of bitWidth bits.
func bufferSize(n int64, bitWidth int) (int64, error) {
	bits, ok := overflow.Mul64(n, int64(bitWidth))
	if !ok {
		return 0, xerrors.Errorf("arrow/ipc: %w: %d values of %d bits overflow a buffer size", arrow.ErrInvalid, n, bitWidth)
	}
	return bits/8 + (bits%8+7)/8, nil
}

// offsetsSize returns the number of bytes taken by the n+1 offsets of n
// variable length values.
func offsetsSize(n int64, bitWidth int) (int64, error) {
	n1, ok := overflow.Add64(n, 1)
	if !ok {
		return 0, xerrors.Errorf("arrow/ipc: %w: length %d overflows its offsets", arrow.ErrInvalid, n)
	}
	return bufferSize(n1, bitWidth)
}

// buffer returns the next buffer of the body, or nil when it is absent.
// need is the number of bytes the caller reads from it; a compressed buffer
// may not decompress to more than need rounded up to 64 bytes.
func (ctx *arrayLoader) buffer(need int64) (*memory.Buffer, error) {
	if ctx.ibuf >= len(ctx.msg.header.Buffers) {
		return nil, xerrors.Errorf("arrow/ipc: %w: missing buffer %d", arrow.ErrInvalid, ctx.ibuf)
	}
	spec := ctx.msg.header.Buffers[ctx.ibuf]
	ctx.ibuf++

	end, ok := overflow.Add64(spec.Offset, spec.Length)
	if !ok || spec.Offset < 0 || spec.Length < 0 || end > ctx.msg.BodyLen() {
		return nil, xerrors.Errorf("arrow/ipc: %w: buffer (offset=%d, length=%d) out of body bounds %d",
			arrow.ErrInvalid, spec.Offset, spec.Length, ctx.msg.BodyLen())
	}
	if spec.Length == 0 {
		return nil, nil
	}

	offset, length := int(spec.Offset), int(spec.Length)
	if ctx.codec == nil {
		return memory.SliceBuffer(ctx.msg.body, offset, length), nil
	}

	const prefixLen = 8
	if length < prefixLen {
		return nil, xerrors.Errorf("arrow/ipc: %w: compressed buffer shorter than its length prefix", arrow.ErrInvalid)
	}
	raw := ctx.msg.body.Bytes()[offset : offset+length]
	n := int64(binary.LittleEndian.Uint64(raw))
	switch {
	case n == -1:
		return memory.SliceBuffer(ctx.msg.body, offset+prefixLen, length-prefixLen), nil
	case n < 0:
		return nil, xerrors.Errorf("arrow/ipc: %w: invalid uncompressed length %d", arrow.ErrInvalid, n)
	case n > (need+63)&^63:
		return nil, xerrors.Errorf("arrow/ipc: %w: uncompressed length %d for a buffer of %d bytes", arrow.ErrInvalid, n, need)
	case n > ctx.maxBuf:
		return nil, xerrors.Errorf("arrow/ipc: %w: uncompressed length %d above limit %d", arrow.ErrInvalid, n, ctx.maxBuf)
	}

	buf := memory.NewResizableBuffer(ctx.mem)
	buf.Resize(int(n))
	out, err := decode(ctx.codec, buf.Bytes(), raw[prefixLen:])
	if err == nil && len(out) != int(n) {
		err = xerrors.Errorf("arrow/ipc: %w: decompressed %d bytes, expected %d", arrow.ErrInvalid, len(out), n)
	}
	if err != nil {
		buf.Release()
		return nil, err
	}
	if n > 0 && &out[0] != &buf.Bytes()[0] {
		copy(buf.Bytes(), out)
	}
	return buf, nil
}

// sized returns the next buffer, failing when it holds fewer than the size
// of length values of bitWidth bits. Offsets buffers hold length+1 values.
func (ctx *arrayLoader) sized(dt arrow.DataType, length int64, bitWidth int, offsets bool) (*memory.Buffer, error) {
	size := bufferSize
	if offsets {
		size = offsetsSize
	}
	need, err := size(length, bitWidth)
	if err != nil {
		return nil, err
	}
	b, err := ctx.buffer(need)
	if err != nil {
		return nil, err
	}
	if int64(bufLen(b)) < need {
		releaseBuffers([]*memory.Buffer{b})
		return nil, xerrors.Errorf("arrow/ipc: %w: %s buffer of %d bytes, need %d", arrow.ErrInvalid, dt, bufLen(b), need)
	}
	return b, nil
}

// decode turns codec panics on corrupt input into errors.
func decode(codec compress.Codec, dst, src []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("arrow/ipc: %w: could not decompress buffer: %v", arrow.ErrInvalid, r)
		}
	}()
	return codec.Decode(dst, src), nil
}

func releaseBuffers(bufs []*memory.Buffer) {
	for _, b := range bufs {
		if b != nil {
			b.Release()
		}
	}
}

func bufLen(b *memory.Buffer) int {
	if b == nil {
		return 0
	}
	return b.Len()
}

func (ctx *arrayLoader) load(dt arrow.DataType, depth int) (arrow.ArrayData, error) {
	if depth > kMaxNestingDepth {
		return nil, xerrors.Errorf("arrow/ipc: %w: type nesting deeper than %d", arrow.ErrInvalid, kMaxNestingDepth)
	}

	node, err := ctx.node()
	if err != nil {
		return nil, err
	}
	n := int(node.Length)

	if dt.ID() == arrow.NULL {
		if node.Nulls != node.Length {
			return nil, xerrors.Errorf("arrow/ipc: %w: null array with %d nulls for length %d", arrow.ErrInvalid, node.Nulls, n)
		}
		return array.NewData(dt, n, []*memory.Buffer{nil}, nil, n, 0), nil
	}

	bufs := make([]*memory.Buffer, 1, 3)
	defer func() { releaseBuffers(bufs) }()

	bufs[0], err = ctx.validity(node)
	if err != nil {
		return nil, err
	}
	nulls := 0
	if bufs[0] != nil {
		nulls = array.UnknownNullCount
	}

	var (
		b        *memory.Buffer
		children []arrow.ArrayData
	)
	switch dt := dt.(type) {
	case arrow.FixedWidthDataType:
		b, err = ctx.sized(dt, node.Length, dt.BitWidth(), false)
		bufs = append(bufs, b)
	case arrow.BinaryDataType:
		b, err = ctx.sized(dt, node.Length, 32, true)
		bufs = append(bufs, b)
		if err == nil {
			b, err = ctx.binaryData(arrow.GetData[int32](b.Bytes()), n)
			bufs = append(bufs, b)
		}
	case *arrow.ListType:
		b, err = ctx.sized(dt, node.Length, 32, true)
		bufs = append(bufs, b)
		if err == nil {
			children, err = ctx.loadChild(dt.Elem(), depth)
		}
	case *arrow.LargeListType:
		b, err = ctx.sized(dt, node.Length, 64, true)
		bufs = append(bufs, b)
		if err == nil {
			children, err = ctx.loadChild(dt.Elem(), depth)
		}
	default:
		err = xerrors.Errorf("arrow/ipc: %w: unsupported type %s", arrow.ErrNotImplemented, dt)
	}
	if err != nil {
		return nil, err
	}

	data := array.NewData(dt, n, bufs, children, nulls, 0)
	for _, c := range children {
		c.Release()
	}
	if got := data.NullN(); got != int(node.Nulls) {
		data.Release()
		return nil, xerrors.Errorf("arrow/ipc: %w: field node reports %d nulls, validity bitmap has %d", arrow.ErrInvalid, node.Nulls, got)
	}
	return data, nil
}

func (ctx *arrayLoader) loadChild(dt arrow.DataType, depth int) ([]arrow.ArrayData, error) {
	child, err := ctx.load(dt, depth+1)
	if err != nil {
		return nil, err
	}
	return []arrow.ArrayData{child}, nil
}

func (ctx *arrayLoader) validity(node fieldNode) (*memory.Buffer, error) {
	need, err := bufferSize(node.Length, 1)
	if err != nil {
		return nil, err
	}
	b, err := ctx.buffer(need)
	if err != nil {
		return nil, err
	}
	switch {
	case b == nil && node.Nulls != 0:
		return nil, xerrors.Errorf("arrow/ipc: %w: %d nulls without a validity bitmap", arrow.ErrInvalid, node.Nulls)
	case b != nil && int64(b.Len()) < need:
		b.Release()
		return nil, xerrors.Errorf("arrow/ipc: %w: validity bitmap of %d bytes for length %d", arrow.ErrInvalid, b.Len(), node.Length)
	}
	return b, nil
}

// binaryData checks the n+1 offsets of a binary array and returns the value
// bytes they point into.
func (ctx *arrayLoader) binaryData(offsets []int32, n int) (*memory.Buffer, error) {
	if offsets[0] < 0 {
		return nil, xerrors.Errorf("arrow/ipc: %w: negative binary offset %d", arrow.ErrInvalid, offsets[0])
	}
	for i := 1; i <= n; i++ {
		if offsets[i] < offsets[i-1] {
			return nil, xerrors.Errorf("arrow/ipc: %w: binary offsets decrease at %d", arrow.ErrInvalid, i)
		}
	}
	need := int64(offsets[n])
	b, err := ctx.buffer(need)
	if err != nil {
		return nil, err
	}
	if int64(bufLen(b)) < need {
		releaseBuffers([]*memory.Buffer{b})
		return nil, xerrors.Errorf("arrow/ipc: %w: binary offset %d beyond %d value bytes", arrow.ErrInvalid, need, bufLen(b))
	}
	return b, nil
}

// Reader reads arrays from an Arrow stream.
type Reader struct {
	r     *MessageReader
	field arrow.Field
	cfg   *config

	refCount int64
	cur      arrow.Array
	err      error
	done     bool
}

// NewReader returns a reader that reads arrays from an input stream.
// It reads the schema message eagerly and returns io.EOF for a stream
// without one.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	cfg := newConfig(opts...)
	rr := &Reader{
		r:        NewMessageReader(r, opts...),
		cfg:      cfg,
		refCount: 1,
	}

	msg, err := rr.r.Message()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, xerrors.Errorf("arrow/ipc: could not read schema message: %w", err)
	}
	field, err := fieldFromMessage(msg)
	if err != nil {
		rr.r.Release()
		return nil, err
	}
	rr.field = field
	if cfg.field != nil && !arrow.TypeEqual(cfg.field.Type, field.Type) {
		rr.r.Release()
		return nil, xerrors.Errorf("arrow/ipc: %w: inconsistent field (got=%s, want=%s)", arrow.ErrType, field.Type, cfg.field.Type)
	}
	return rr, nil
}

func fieldFromMessage(msg *Message) (arrow.Field, error) {
	if msg.Type() != MessageSchema || msg.header.Field == nil {
		return arrow.Field{}, xerrors.Errorf("arrow/ipc: %w: expected a schema message, got %s", arrow.ErrInvalid, msg.Type())
	}
	return *msg.header.Field, nil
}

// Field returns the field of the arrays in the stream.
func (r *Reader) Field() arrow.Field { return r.field }

// Err returns the last error encountered during the iteration over the
// underlying stream.
func (r *Reader) Err() error { return r.err }

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (r *Reader) Retain() {
	atomic.AddInt64(&r.refCount, 1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
// Release may be called simultaneously from multiple goroutines.
func (r *Reader) Release() {
	debug.Assert(atomic.LoadInt64(&r.refCount) > 0, "too many releases")

	if atomic.AddInt64(&r.refCount, -1) == 0 {
		if r.cur != nil {
			r.cur.Release()
			r.cur = nil
		}
		if r.r != nil {
			r.r.Release()
			r.r = nil
		}
	}
}

// Next returns whether an array could be extracted from the underlying stream.
func (r *Reader) Next() bool {
	if r.cur != nil {
		r.cur.Release()
		r.cur = nil
	}
	if r.err != nil || r.done {
		return false
	}

	msg, err := r.r.Message()
	if err != nil {
		r.done = true
		if !errors.Is(err, io.EOF) {
			r.err = xerrors.Errorf("arrow/ipc: could not read message: %w", err)
		}
		return false
	}

	r.cur, r.err = loadArray(r.cfg, r.field, msg)
	r.r.Release()
	return r.err == nil
}

// Array returns the current array that has been extracted from the
// underlying stream. It is valid until the next call to Next.
func (r *Reader) Array() arrow.Array { return r.cur }

// Read reads the current array from the underlying stream and an error, if any.
// When the Reader reaches the end of the underlying stream, it returns (nil, io.EOF).
func (r *Reader) Read() (arrow.Array, error) {
	if !r.Next() {
		if r.err != nil {
			return nil, r.err
		}
		return nil, io.EOF
	}
	return r.cur, nil
}
