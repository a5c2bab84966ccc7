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

func TestFromJSONRoundTrip(t *testing.T) {
	tests := []struct {
		dt   arrow.DataType
		json string
	}{
		{arrow.Null, `[null, null]`},
		{arrow.FixedWidthTypes.Boolean, `[true, null, false]`},
		{arrow.PrimitiveTypes.Int32, `[1, -2, null, 2147483647]`},
		{arrow.PrimitiveTypes.Int64, `[9007199254740993, null]`},
		{arrow.PrimitiveTypes.Float64, `[1.5, null, -0.25]`},
		{arrow.BinaryTypes.String, `["a", "", null, "日本"]`},
		{arrow.ListOf(arrow.BinaryTypes.String), `[["a", "b"], [], null, ["c", "d", "e"]]`},
		{arrow.LargeListOf(arrow.PrimitiveTypes.Float64), `[[1.5], null, [2, null]]`},
		{arrow.ListOf(arrow.ListOf(arrow.PrimitiveTypes.Int32)), `[[[1, 2], null, []], [], null]`},
	}

	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			arr, n, err := array.FromJSON(mem, tt.dt, strings.NewReader(tt.json))
			require.NoError(t, err)
			defer arr.Release()

			assert.Positive(t, n)
			assert.True(t, arrow.TypeEqual(tt.dt, arr.DataType()))

			out, err := arr.MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(out))
		})
	}
}

func TestFromJSONErrors(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	tests := []struct {
		name string
		dt   arrow.DataType
		json string
	}{
		{"not an array", arrow.PrimitiveTypes.Int64, `{"a": 1}`},
		{"wrong scalar", arrow.PrimitiveTypes.Int64, `["a"]`},
		{"list of scalar", arrow.ListOf(arrow.PrimitiveTypes.Int64), `[1]`},
		{"truncated", arrow.ListOf(arrow.PrimitiveTypes.Int64), `[[1, 2`},
		{"empty input", arrow.PrimitiveTypes.Int64, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr, _, err := array.FromJSON(mem, tt.dt, strings.NewReader(tt.json))
			assert.Error(t, err)
			assert.Nil(t, arr)
		})
	}
}

func TestFromJSONConsumesOneArray(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	const first = `[[1], [2, 3]]`
	r := strings.NewReader(first + ` [[4]]`)

	arr, n, err := array.FromJSON(mem, arrow.ListOf(arrow.PrimitiveTypes.Int64), r)
	require.NoError(t, err)
	defer arr.Release()

	assert.EqualValues(t, len(first), n)
	assert.Equal(t, 2, arr.Len())
}
