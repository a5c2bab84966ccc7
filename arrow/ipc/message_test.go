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
	"io"
	"testing"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/internal/flatbuf"
	"github.com/apache/arrow/go/lists/arrow/ipc/compress"
	"github.com/apache/arrow/go/lists/arrow/memory"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageType(t *testing.T) {
	for _, typ := range []MessageType{MessageNone, MessageSchema, MessageBatch} {
		txt, err := typ.MarshalText()
		require.NoError(t, err)

		var got MessageType
		require.NoError(t, got.UnmarshalText(txt))
		assert.Equal(t, typ, got)
	}

	assert.Equal(t, "MessageType(7)", MessageType(7).String())
	_, err := MessageType(7).MarshalText()
	assert.ErrorIs(t, err, arrow.ErrInvalid)

	var typ MessageType
	assert.ErrorIs(t, typ.UnmarshalText([]byte("record")), arrow.ErrInvalid)
}

func TestMessageFraming(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	var buf bytes.Buffer
	body := []byte("0123456789abcdef")
	meta, n, err := writeMessage(&buf, &messageHeader{Type: MessageBatch}, body)
	require.NoError(t, err)
	assert.EqualValues(t, len(body), n)
	assert.Zero(t, meta%8)
	require.NoError(t, writeEOS(&buf))
	assert.Equal(t, int(meta)+len(body)+8, buf.Len())

	r := NewMessageReader(&buf, WithAllocator(mem))
	defer r.Release()

	msg, err := r.Message()
	require.NoError(t, err)
	assert.Equal(t, MessageBatch, msg.Type())
	assert.Equal(t, currentMetadataVersion, msg.Version())
	assert.EqualValues(t, len(body), msg.BodyLen())
	assert.Equal(t, body, msg.body.Bytes())

	_, err = r.Message()
	assert.ErrorIs(t, err, io.EOF)
}

// roundTripField encodes a field built by build as the root of a buffer
// and decodes it back.
func roundTripField(build func(b *flatbuffers.Builder) flatbuffers.UOffsetT) (arrow.Field, error) {
	b := flatbuffers.NewBuilder(0)
	b.Finish(build(b))
	var fb flatbuf.Field
	fb.Init(b.FinishedBytes(), flatbuffers.GetUOffsetT(b.FinishedBytes()))
	return fieldFromFB(&fb, 0)
}

func TestFieldMetadata(t *testing.T) {
	for _, f := range []arrow.Field{
		{Name: "a", Type: arrow.Null, Nullable: true},
		{Name: "b", Type: arrow.FixedWidthTypes.Boolean},
		{Name: "c", Type: arrow.PrimitiveTypes.Int32},
		{Name: "d", Type: arrow.PrimitiveTypes.Int64},
		{Name: "e", Type: arrow.PrimitiveTypes.Float64},
		{Name: "f", Type: arrow.BinaryTypes.Binary},
		{Name: "g", Type: arrow.BinaryTypes.String},
		{Name: "h", Type: &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "Europe/Paris"}},
		{Name: "i", Type: arrow.ListOfNonNullable(arrow.BinaryTypes.String), Nullable: true},
		{Name: "j", Type: arrow.LargeListOf(arrow.ListOf(arrow.PrimitiveTypes.Int64))},
	} {
		t.Run(f.Type.String(), func(t *testing.T) {
			var encErr error
			got, err := roundTripField(func(b *flatbuffers.Builder) flatbuffers.UOffsetT {
				off, err := fieldToFB(b, f)
				encErr = err
				return off
			})
			require.NoError(t, encErr)
			require.NoError(t, err)
			assert.True(t, f.Equal(got), "got=%v, want=%v", got, f)
		})
	}

	for _, td := range []typeDesc{{Name: "list"}, {Name: "int", BitWidth: 8}, {Name: "decimal"}} {
		_, err := roundTripField(func(b *flatbuffers.Builder) flatbuffers.UOffsetT {
			return buildField(b, "x", false, td, nil)
		})
		assert.ErrorIs(t, err, arrow.ErrInvalid, td.Name)
	}
}

func TestNestingDepth(t *testing.T) {
	_, err := roundTripField(func(b *flatbuffers.Builder) flatbuffers.UOffsetT {
		f := buildField(b, "leaf", false, typeDesc{Name: "int", Signed: true, BitWidth: 64}, nil)
		for i := 0; i <= kMaxNestingDepth+1; i++ {
			f = buildField(b, "item", true, typeDesc{Name: "list"}, []flatbuffers.UOffsetT{f})
		}
		return f
	})
	assert.ErrorIs(t, err, arrow.ErrInvalid)
}

func TestDecodeHeader(t *testing.T) {
	f := arrow.Field{Name: "v", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32), Nullable: true}
	want := &messageHeader{
		Version:  currentMetadataVersion,
		Type:     MessageBatch,
		Field:    &f,
		Nodes:    []fieldNode{{Length: 3, Nulls: 1}, {Length: 5}},
		Buffers:  []bufferSpec{{Offset: 0, Length: 8}, {Offset: 8, Length: 16}},
		Codec:    compress.Codecs.Zstd,
		BodyLen:  24,
		Checksum: 0xdeadbeef,
	}
	meta, err := want.encode()
	require.NoError(t, err)

	got, err := decodeHeader(meta)
	require.NoError(t, err)
	assert.True(t, f.Equal(*got.Field))
	got.Field = want.Field
	assert.Equal(t, want, got)

	for _, tc := range []struct {
		name string
		meta []byte
	}{
		{"short", []byte{1, 2}},
		{"root out of range", []byte{0xFF, 0xFF, 0xFF, 0x7F, 0, 0, 0, 0}},
		{"truncated", meta[:len(meta)/2]},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeHeader(tc.meta)
			assert.ErrorIs(t, err, arrow.ErrInvalid)
		})
	}
}
