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
	"testing"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/array"
	"github.com/apache/arrow/go/lists/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullArray(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewNullBuilder(mem)
	defer b.Release()

	b.AppendNull()
	b.AppendNull()
	require.NoError(t, b.AppendValue(nil))
	assert.ErrorIs(t, b.AppendValue(1), arrow.ErrInvalid)

	arr := b.NewArray().(*array.Null)
	defer arr.Release()

	assert.Equal(t, 3, arr.Len())
	assert.Equal(t, 3, arr.NullN())
	assert.Equal(t, arrow.NULL, arr.DataType().ID())
	assert.True(t, arr.IsNull(0))
	assert.False(t, arr.IsValid(2))
	assert.Equal(t, "[(null) (null) (null)]", arr.String())

	slice := array.NewSlice(arr, 1, 3)
	defer slice.Release()
	assert.Equal(t, 2, slice.NullN())

	n := array.NewNull(4)
	defer n.Release()
	assert.Equal(t, 4, n.NullN())

	out, err := n.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[null, null, null, null]`, string(out))
}

func TestBooleanBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewBooleanBuilder(mem)
	defer b.Release()

	exp := []bool{true, false, true, true, false, true, false, true, false, true, true}
	b.AppendValues(exp[:5], nil)
	for _, v := range exp[5:] {
		b.Append(v)
	}
	b.AppendNull()
	require.NoError(t, b.AppendValue(true))
	assert.ErrorIs(t, b.AppendValue("true"), arrow.ErrInvalid)

	arr := b.NewArray().(*array.Boolean)
	defer arr.Release()

	assert.Equal(t, len(exp)+2, arr.Len())
	assert.Equal(t, 1, arr.NullN())
	for i, v := range exp {
		assert.Equal(t, v, arr.Value(i), "value %d", i)
	}
	assert.True(t, arr.IsNull(len(exp)))
	assert.True(t, arr.Value(len(exp)+1))

	require.NoError(t, b.UnmarshalJSON([]byte(`[true, null, "false"]`)))
	arr2 := b.NewBooleanArray()
	defer arr2.Release()
	assert.Equal(t, "[true (null) false]", arr2.String())
}
