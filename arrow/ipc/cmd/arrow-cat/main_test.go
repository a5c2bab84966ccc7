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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/array"
	"github.com/apache/arrow/go/lists/arrow/ipc"
	"github.com/apache/arrow/go/lists/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArrays(t *testing.T, mem memory.Allocator, w ipc.ArrayWriter, dt arrow.DataType, inputs ...string) {
	t.Helper()
	for _, s := range inputs {
		arr, _, err := array.FromJSON(mem, dt, strings.NewReader(s))
		require.NoError(t, err)
		require.NoError(t, w.Write(arr))
		arr.Release()
	}
}

func TestCatStream(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf)
	writeArrays(t, mem, w, arrow.ListOf(arrow.BinaryTypes.String), `[["a", "b"], [], null]`, `[["c", null]]`)
	require.NoError(t, w.Close())

	var out bytes.Buffer
	require.NoError(t, processStream(&out, &buf))

	want := `field: values: type=list<item: utf8, nullable>, nullable
array 1...
  list[0]: ["a" "b"]
  list[1]: []
  list[2]: (null)
array 2...
  list[0]: ["c" (null)]
`
	assert.Equal(t, want, out.String())
}

func TestCatFile(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	var buf bytes.Buffer
	w, err := ipc.NewFileWriter(&buf, ipc.WithField(arrow.Field{Name: "ints", Type: arrow.PrimitiveTypes.Int64}))
	require.NoError(t, err)
	writeArrays(t, mem, w, arrow.PrimitiveTypes.Int64, `[1, null, 3]`, `[]`)
	require.NoError(t, w.Close())

	fname := filepath.Join(t.TempDir(), "ints.arrow")
	require.NoError(t, os.WriteFile(fname, buf.Bytes(), 0o644))

	var out bytes.Buffer
	require.NoError(t, processFiles(&out, []string{fname}))

	want := `field: ints: type=int64
array 1/2...
  [1 (null) 3]
array 2/2...
  []
`
	assert.Equal(t, want, out.String())
}

func TestCatFileAsStream(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf)
	writeArrays(t, mem, w, arrow.LargeListOf(arrow.PrimitiveTypes.Int64), `[[1, 2]]`)
	require.NoError(t, w.Close())

	fname := filepath.Join(t.TempDir(), "lists.stream")
	require.NoError(t, os.WriteFile(fname, buf.Bytes(), 0o644))

	var out bytes.Buffer
	require.NoError(t, processFile(&out, fname))
	assert.Equal(t, "field: values: type=large_list<item: int64, nullable>, nullable\narray 1...\n  list[0]: [1 2]\n", out.String())
}
