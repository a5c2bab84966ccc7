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

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/array"
	"github.com/apache/arrow/go/lists/arrow/ipc"
	"github.com/apache/arrow/go/lists/arrow/ipc/compress"
	"github.com/apache/arrow/go/lists/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	var out bytes.Buffer
	cfg := config{Compression: compress.Codecs.Zstd, Name: "lists", BatchSize: 2}
	require.NoError(t, process(&out, strings.NewReader(`[[1, 2], null, [], [3, 4.5]]`), cfg))

	r, err := ipc.NewReader(&out, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Release()

	assert.Equal(t, "lists", r.Field().Name)
	assert.True(t, arrow.TypeEqual(arrow.ListOf(arrow.PrimitiveTypes.Float64), r.Field().Type))

	var got []interface{}
	for r.Next() {
		assert.LessOrEqual(t, r.Array().Len(), 2)
		got = append(got, array.ToValues(r.Array())...)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []interface{}{
		[]interface{}{1.0, 2.0},
		nil,
		[]interface{}{},
		[]interface{}{3.0, 4.5},
	}, got)
}

func TestProcessSingleArray(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	var out bytes.Buffer
	require.NoError(t, process(&out, strings.NewReader(`[["a"], ["b", null]]`), config{Name: "values"}))

	r, err := ipc.NewReader(&out, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Release()

	require.True(t, r.Next())
	lst, err := array.AsList(r.Array())
	require.NoError(t, err)
	assert.Equal(t, 2, lst.Len())
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, lst.ValueType()))
	assert.False(t, r.Next())
}

func TestDecodeValues(t *testing.T) {
	values, err := decodeValues(strings.NewReader(`[1, 2.5, [3, [4]], "x", true, null, 9007199254740993]`))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		int64(1), 2.5, []interface{}{int64(3), []interface{}{int64(4)}}, "x", true, nil, int64(9007199254740993),
	}, values)

	_, err = decodeValues(strings.NewReader(`[{"a": 1}]`))
	assert.ErrorIs(t, err, arrow.ErrNotImplemented)

	_, err = decodeValues(strings.NewReader(`{"a": 1}`))
	assert.Error(t, err)
}

func TestProcessMixedNesting(t *testing.T) {
	var out bytes.Buffer
	err := process(&out, strings.NewReader(`[1, [2]]`), config{Name: "values"})
	assert.ErrorIs(t, err, arrow.ErrInvalid)
}
