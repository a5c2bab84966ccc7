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
	"math"
	"testing"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/ipc/compress"
	"github.com/apache/arrow/go/lists/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawStream frames a schema message for f and a batch message with the
// given layout.
func rawStream(t *testing.T, f arrow.Field, hdr *messageHeader, body []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	_, _, err := writeMessage(&buf, &messageHeader{Type: MessageSchema, Field: &f}, nil)
	require.NoError(t, err)
	hdr.Type = MessageBatch
	_, _, err = writeMessage(&buf, hdr, body)
	require.NoError(t, err)
	require.NoError(t, writeEOS(&buf))
	return buf.Bytes()
}

func int32Bytes(vs ...int32) []byte {
	out := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
	}
	return out
}

func TestReadRejectsOversizedNodes(t *testing.T) {
	var (
		i64  = arrow.Field{Name: "v", Type: arrow.PrimitiveTypes.Int64}
		list = arrow.Field{Name: "v", Type: arrow.ListOf(arrow.PrimitiveTypes.Int64)}
		str  = arrow.Field{Name: "v", Type: arrow.BinaryTypes.String}
		none = []bufferSpec{{}, {}}
	)

	for _, tc := range []struct {
		name  string
		field arrow.Field
		hdr   messageHeader
		body  []byte
	}{
		{"values", i64, messageHeader{Nodes: []fieldNode{{Length: 1 << 58}}, Buffers: none}, nil},
		{"values bits overflow", i64, messageHeader{Nodes: []fieldNode{{Length: 1 << 62}}, Buffers: none}, nil},
		{"validity", i64, messageHeader{
			Nodes:   []fieldNode{{Length: math.MaxInt64, Nulls: 1}},
			Buffers: []bufferSpec{{Offset: 0, Length: 8}, {Offset: 8}},
		}, make([]byte, 8)},
		{"list offsets overflow", list, messageHeader{
			Nodes:   []fieldNode{{Length: math.MaxInt64}, {}},
			Buffers: []bufferSpec{{}, {}, {}, {}},
		}, nil},
		{"list child", list, messageHeader{
			Nodes:   []fieldNode{{Length: 1}, {Length: 1 << 58}},
			Buffers: []bufferSpec{{}, {Offset: 0, Length: 8}, {Offset: 8}, {Offset: 8}},
		}, int32Bytes(0, 2)},
		{"string offsets overflow", str, messageHeader{
			Nodes:   []fieldNode{{Length: 1 << 62}},
			Buffers: []bufferSpec{{}, {}, {}},
		}, nil},
		{"string data", str, messageHeader{
			Nodes:   []fieldNode{{Length: 1}},
			Buffers: []bufferSpec{{}, {Offset: 0, Length: 8}, {Offset: 8}},
		}, int32Bytes(0, 1<<30)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			raw := rawStream(t, tc.field, &tc.hdr, tc.body)
			r, err := NewReader(bytes.NewReader(raw), WithAllocator(mem))
			require.NoError(t, err)
			defer r.Release()

			assert.False(t, r.Next())
			assert.ErrorIs(t, r.Err(), arrow.ErrInvalid)
		})
	}
}

func TestReadRejectsForgedUncompressedLength(t *testing.T) {
	field := arrow.Field{Name: "v", Type: arrow.PrimitiveTypes.Int64}
	compressed := func(n uint64) []byte {
		body := make([]byte, 16)
		binary.LittleEndian.PutUint64(body, n)
		return body
	}

	for _, tc := range []struct {
		name   string
		length int64
		prefix uint64
		opts   []Option
	}{
		{"beyond node", 1, 1 << 62, nil},
		{"beyond limit", 1024, 8 * 1024, []Option{WithMaxBufferSize(4096)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			hdr := messageHeader{
				Codec:   compress.Codecs.Zstd,
				Nodes:   []fieldNode{{Length: tc.length}},
				Buffers: []bufferSpec{{}, {Offset: 0, Length: 16}},
			}
			raw := rawStream(t, field, &hdr, compressed(tc.prefix))
			r, err := NewReader(bytes.NewReader(raw), append(tc.opts, WithAllocator(mem))...)
			require.NoError(t, err)
			defer r.Release()

			assert.False(t, r.Next())
			assert.ErrorIs(t, r.Err(), arrow.ErrInvalid)
		})
	}
}

func TestReadForgedBodyLength(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	meta, err := (&messageHeader{
		Version: currentMetadataVersion,
		Type:    MessageBatch,
		BodyLen: 1 << 62,
	}).encode()
	require.NoError(t, err)

	var buf bytes.Buffer
	var prefix [8]byte
	binary.LittleEndian.PutUint32(prefix[:4], continuationMarker)
	binary.LittleEndian.PutUint32(prefix[4:], uint32(len(meta)))
	buf.Write(prefix[:])
	buf.Write(meta)
	buf.Write(make([]byte, 100))

	_, err = readMessage(&buf, mem)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadBodyGrowsWithInput(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	want := bytes.Repeat([]byte("0123456789"), 50000)
	body, err := readBody(bytes.NewReader(want), mem, int64(len(want)))
	require.NoError(t, err)
	defer body.Release()
	assert.Equal(t, want, body.Bytes())
}
