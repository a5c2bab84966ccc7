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

package array_test

import (
	"strings"
	"testing"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/array"
	"github.com/apache/arrow/go/lists/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	ab := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	defer ab.Release()

	exp := [][]byte{[]byte("foo"), []byte("bar"), nil, []byte("sydney"), []byte("cameron")}
	for _, v := range exp {
		if v == nil {
			ab.AppendNull()
		} else {
			ab.Append(v)
		}
	}

	assert.Equal(t, len(exp), ab.Len(), "unexpected Len()")
	assert.Equal(t, 1, ab.NullN(), "unexpected NullN()")

	arr := ab.NewArray().(*array.Binary)
	defer arr.Release()

	assert.Zero(t, ab.Len(), "unexpected ArrayBuilder.Len(), NewBinaryArray did not reset state")
	assert.Zero(t, ab.Cap(), "unexpected ArrayBuilder.Cap(), NewBinaryArray did not reset state")
	assert.Zero(t, ab.NullN(), "unexpected ArrayBuilder.NullN(), NewBinaryArray did not reset state")

	for i, v := range exp {
		if v == nil {
			assert.True(t, arr.IsNull(i))
			assert.Zero(t, arr.ValueLen(i))
			continue
		}
		assert.Equal(t, v, arr.Value(i))
		assert.Equal(t, string(v), arr.ValueString(i))
	}
	assert.Equal(t, []int32{0, 3, 6, 6, 12, 19}, arr.ValueOffsets())
	assert.Equal(t, []byte("foobarsydneycameron"), arr.ValueBytes())

	out, err := arr.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `["Zm9v", "YmFy", null, "c3lkbmV5", "Y2FtZXJvbg=="]`, string(out))

	back, _, err := array.FromJSON(mem, arrow.BinaryTypes.Binary, strings.NewReader(string(out)))
	require.NoError(t, err)
	defer back.Release()
	assert.True(t, array.Equal(arr, back))
}

func TestStringArraySlice(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sb := array.NewStringBuilder(mem)
	defer sb.Release()

	sb.AppendValues([]string{"hello", "", "世界", "go"}, []bool{true, false, true, true})
	assert.Equal(t, "世界", sb.Value(2))

	arr := sb.NewArray().(*array.String)
	defer arr.Release()

	assert.Equal(t, `["hello" (null) "世界" "go"]`, arr.String())

	slice := array.NewSlice(arr, 1, 3).(*array.String)
	defer slice.Release()

	assert.Equal(t, 2, slice.Len())
	assert.Equal(t, 1, slice.NullN())
	assert.Equal(t, "世界", slice.Value(1))
	assert.Equal(t, []int32{5, 5, 11}, slice.ValueOffsets())
	assert.Equal(t, []byte("世界"), slice.ValueBytes())
}

func TestBinaryBuilderAppendValue(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sb := array.NewStringBuilder(mem)
	defer sb.Release()

	require.NoError(t, sb.AppendValue("a"))
	require.NoError(t, sb.AppendValue([]byte("b")))
	require.NoError(t, sb.AppendValue(nil))
	assert.ErrorIs(t, sb.AppendValue(1), arrow.ErrInvalid)

	arr := sb.NewArray()
	defer arr.Release()
	assert.Equal(t, `["a" "b" (null)]`, arr.String())
}
