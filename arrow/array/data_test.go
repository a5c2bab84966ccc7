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

package array

import (
	"testing"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/memory"
	"github.com/stretchr/testify/assert"
)

func TestNewData(t *testing.T) {
	buffers := make([]*memory.Buffer, 0, 3)
	for i := 0; i < cap(buffers); i++ {
		buffers = append(buffers, memory.NewBufferBytes([]byte("some-bytes")))
	}

	data := NewData(arrow.BinaryTypes.String, 10, buffers, nil, 0, 0)
	defer data.Release()
	assert.Equal(t, 10, data.Len())
	assert.Zero(t, data.NullN())
	assert.Same(t, buffers[0], data.Buffers()[0])
	assert.Empty(t, data.Children())
}

func TestSliceDataNullCount(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := NewInt64Builder(mem)
	defer b.Release()
	b.AppendValues([]int64{1, 2, 3, 4, 5, 6}, []bool{true, false, true, true, false, true})

	arr := b.NewInt64Array()
	defer arr.Release()

	tests := []struct {
		i, j  int64
		nulls int
	}{
		{0, 6, 2},
		{0, 1, 0},
		{1, 2, 1},
		{2, 4, 0},
		{1, 5, 2},
		{6, 6, 0},
	}

	for _, tt := range tests {
		slice := NewSliceData(arr.Data(), tt.i, tt.j)
		assert.EqualValues(t, UnknownNullCount, slice.(*Data).nulls)
		assert.Equal(t, tt.nulls, slice.NullN(), "[%d:%d]", tt.i, tt.j)
		assert.Equal(t, int(tt.i), slice.Offset())
		slice.Release()
	}

	assert.Panics(t, func() { NewSliceData(arr.Data(), 3, 2) })
	assert.Panics(t, func() { NewSliceData(arr.Data(), -1, 2) })
	assert.Panics(t, func() { NewSliceData(arr.Data(), 0, 7) })
}

func TestSliceDataKnownNullCount(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := NewInt32Builder(mem)
	defer b.Release()
	b.AppendValues([]int32{1, 2, 3}, nil)

	arr := b.NewInt32Array()
	defer arr.Release()

	slice := NewSliceData(arr.Data(), 1, 3)
	defer slice.Release()
	assert.EqualValues(t, 0, slice.(*Data).nulls)

	n := NewNull(5)
	defer n.Release()
	ns := NewSliceData(n.Data(), 1, 4)
	defer ns.Release()
	assert.EqualValues(t, 3, ns.(*Data).nulls)
}

func TestMakeFromDataUnsupported(t *testing.T) {
	data := NewData(unsupportedType{}, 0, nil, nil, 0, 0)
	defer data.Release()
	assert.PanicsWithError(t, "arrow/array: not implemented: array of type unsupported", func() { MakeFromData(data) })
	assert.Panics(t, func() { NewBuilder(memory.DefaultAllocator, unsupportedType{}) })
}

type unsupportedType struct{}

func (unsupportedType) ID() arrow.Type      { return arrow.Type(200) }
func (unsupportedType) Name() string        { return "unsupported" }
func (unsupportedType) String() string      { return "unsupported" }
func (unsupportedType) Fingerprint() string { return "" }
