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

package ipc_test

import (
	"bytes"
	"io"
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

var allCodecs = []compress.Compression{
	compress.Codecs.Uncompressed,
	compress.Codecs.Snappy,
	compress.Codecs.Gzip,
	compress.Codecs.Brotli,
	compress.Codecs.Lz4,
	compress.Codecs.Zstd,
}

func fromJSON(t *testing.T, mem memory.Allocator, dt arrow.DataType, s string) arrow.Array {
	t.Helper()
	arr, _, err := array.FromJSON(mem, dt, strings.NewReader(s))
	require.NoError(t, err)
	return arr
}

type testCase struct {
	name   string
	dt     arrow.DataType
	arrays []string
}

func testCases() []testCase {
	strs := arrow.ListOf(arrow.BinaryTypes.String)
	return []testCase{
		{"list<utf8>", strs, []string{
			`[["a", "b"], [], ["c", null, "e"], null]`,
			`[]`,
			`[[], null, ["` + strings.Repeat("x", 300) + `"]]`,
		}},
		{"list<list<int64>>", arrow.ListOf(arrow.ListOf(arrow.PrimitiveTypes.Int64)), []string{
			`[[[1, 2], [3]], [], null, [null, [4, 5, 6]]]`,
		}},
		{"large_list<float64>", arrow.LargeListOf(arrow.PrimitiveTypes.Float64), []string{
			`[[1.5, null], [2.5], null, []]`,
		}},
		{"list<bool>", arrow.ListOf(arrow.FixedWidthTypes.Boolean), []string{
			`[[true, false, null], [true]]`,
		}},
		{"list<null>", arrow.ListOf(arrow.Null), []string{`[[null, null], [], null]`}},
		{"list<binary>", arrow.ListOf(arrow.BinaryTypes.Binary), []string{`[["AAE="], [null, ""]]`}},
		{"list<timestamp>", arrow.ListOf(&arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}), []string{
			`[["2021-01-02T03:04:05.006Z"], null]`,
		}},
		{"int32", arrow.PrimitiveTypes.Int32, []string{`[1, null, 3]`, `[4]`}},
	}
}

func TestStreamRoundTrip(t *testing.T) {
	for _, codec := range allCodecs {
		for _, tc := range testCases() {
			t.Run(codec.String()+"/"+tc.name, func(t *testing.T) {
				mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
				defer mem.AssertSize(t, 0)

				var want []arrow.Array
				for _, s := range tc.arrays {
					arr := fromJSON(t, mem, tc.dt, s)
					defer arr.Release()
					want = append(want, arr)
				}

				var buf bytes.Buffer
				w := ipc.NewWriter(&buf, ipc.WithCompression(codec))
				for _, arr := range want {
					require.NoError(t, w.Write(arr))
				}
				require.NoError(t, w.Close())

				r, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
				require.NoError(t, err)
				defer r.Release()

				assert.True(t, arrow.TypeEqual(tc.dt, r.Field().Type))
				n := 0
				for r.Next() {
					require.Less(t, n, len(want))
					got := r.Array()
					assert.Truef(t, array.Equal(want[n], got), "array %d: got=%v, want=%v", n, got, want[n])
					n++
				}
				require.NoError(t, r.Err())
				assert.Equal(t, len(want), n)
			})
		}
	}
}

func TestFileRoundTrip(t *testing.T) {
	for _, codec := range allCodecs {
		for _, tc := range testCases() {
			t.Run(codec.String()+"/"+tc.name, func(t *testing.T) {
				mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
				defer mem.AssertSize(t, 0)

				var want []arrow.Array
				for _, s := range tc.arrays {
					arr := fromJSON(t, mem, tc.dt, s)
					defer arr.Release()
					want = append(want, arr)
				}

				var buf bytes.Buffer
				w, err := ipc.NewFileWriter(&buf, ipc.WithCompression(codec), ipc.WithField(arrow.Field{Name: "lists", Type: tc.dt, Nullable: true}))
				require.NoError(t, err)
				for _, arr := range want {
					require.NoError(t, w.Write(arr))
				}
				require.NoError(t, w.Close())

				r, err := ipc.NewFileReader(bytes.NewReader(buf.Bytes()), ipc.WithAllocator(mem))
				require.NoError(t, err)
				defer r.Close()

				assert.Equal(t, "lists", r.Field().Name)
				require.Equal(t, len(want), r.NumArrays())

				// random access, last first
				for i := r.NumArrays() - 1; i >= 0; i-- {
					got, err := r.Array(i)
					require.NoError(t, err)
					assert.Truef(t, array.Equal(want[i], got), "array %d: got=%v, want=%v", i, got, want[i])
					got.Release()
				}
			})
		}
	}
}

func TestReadListValuesAreZeroCopy(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	arr := fromJSON(t, mem, arrow.ListOf(arrow.PrimitiveTypes.Int64), `[[0, 1], [], [2, 3, 4]]`)
	defer arr.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf)
	require.NoError(t, w.Write(arr))
	require.NoError(t, w.Close())

	r, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
	require.NoError(t, err)

	require.True(t, r.Next())
	lst, err := array.AsList(r.Array())
	require.NoError(t, err)

	v, err := lst.Value(2)
	require.NoError(t, err)
	lst.Retain()
	r.Release()
	lst.Release()

	// the view keeps the message body alive on its own.
	assert.Equal(t, []int64{2, 3, 4}, v.(*array.Int64).Int64Values())
	v.Release()
}

func TestWriteSlicedArrays(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := arrow.ListOf(arrow.BinaryTypes.String)
	arr := fromJSON(t, mem, dt, `[["a"], null, ["b", "c"], [], ["d", null], ["e"], null, ["f"], ["g", "h"], ["i"]]`)
	defer arr.Release()

	for _, codec := range []compress.Compression{compress.Codecs.Uncompressed, compress.Codecs.Zstd} {
		for _, bounds := range [][2]int64{{0, 10}, {1, 4}, {3, 3}, {9, 10}, {2, 10}} {
			slice := array.NewSlice(arr, bounds[0], bounds[1])

			var buf bytes.Buffer
			w := ipc.NewWriter(&buf, ipc.WithCompression(codec))
			require.NoError(t, w.Write(slice))
			require.NoError(t, w.Close())

			r, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
			require.NoError(t, err)
			got, err := r.Read()
			require.NoError(t, err)
			assert.Truef(t, array.Equal(slice, got), "slice %v: got=%v, want=%v", bounds, got, slice)
			assert.Equal(t, slice.NullN(), got.NullN())

			_, err = r.Read()
			assert.ErrorIs(t, err, io.EOF)
			r.Release()
			slice.Release()
		}
	}
}

func TestChecksumMismatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	arr := fromJSON(t, mem, arrow.ListOf(arrow.PrimitiveTypes.Int64), `[[1, 2], [3]]`)
	defer arr.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf)
	require.NoError(t, w.Write(arr))
	require.NoError(t, w.Close())

	// the last body byte sits right before the end-of-stream marker.
	raw := buf.Bytes()
	raw[len(raw)-9] ^= 0xFF

	r, err := ipc.NewReader(bytes.NewReader(raw), ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Release()

	assert.False(t, r.Next())
	assert.ErrorIs(t, r.Err(), arrow.ErrInvalid)
	assert.Equal(t, arrow.ErrorInvalid, arrow.ErrorCodeOf(r.Err()))
}

func TestWriteTypeMismatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	lists := fromJSON(t, mem, arrow.ListOf(arrow.PrimitiveTypes.Int64), `[[1]]`)
	defer lists.Release()
	ints := fromJSON(t, mem, arrow.PrimitiveTypes.Int64, `[1]`)
	defer ints.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf)
	require.NoError(t, w.Write(lists))
	assert.ErrorIs(t, w.Write(ints), arrow.ErrType)
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Write(lists), arrow.ErrInvalid)
}

func TestEmptyStream(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		var buf bytes.Buffer
		dt := arrow.ListOf(arrow.BinaryTypes.String)
		w := ipc.NewWriter(&buf, ipc.WithField(arrow.Field{Name: "f", Type: dt}))
		require.NoError(t, w.Close())

		r, err := ipc.NewReader(&buf)
		require.NoError(t, err)
		defer r.Release()
		assert.True(t, arrow.TypeEqual(dt, r.Field().Type))
		assert.False(t, r.Field().Nullable)
		assert.False(t, r.Next())
		assert.NoError(t, r.Err())
	})

	t.Run("without field", func(t *testing.T) {
		var buf bytes.Buffer
		w := ipc.NewWriter(&buf)
		require.NoError(t, w.Close())

		_, err := ipc.NewReader(&buf)
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestReaderFieldMismatch(t *testing.T) {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithField(arrow.Field{Name: "f", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32)}))
	require.NoError(t, w.Close())

	_, err := ipc.NewReader(&buf, ipc.WithField(arrow.Field{Name: "f", Type: arrow.ListOf(arrow.PrimitiveTypes.Int64)}))
	assert.ErrorIs(t, err, arrow.ErrType)
}

func TestInvalidStream(t *testing.T) {
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{"bad marker", []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{"negative length", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xF0, 0xFF, 0xFF, 0xFF}},
		{"bad metadata", append([]byte{0xFF, 0xFF, 0xFF, 0xFF, 8, 0, 0, 0}, []byte("{{{{{{{{")...)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ipc.NewReader(bytes.NewReader(tc.data))
			assert.ErrorIs(t, err, arrow.ErrInvalid)
		})
	}

	_, err := ipc.NewReader(bytes.NewReader([]byte{0xFF, 0xFF}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFileReaderErrors(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	_, err := ipc.NewFileReader(bytes.NewReader([]byte("not an arrow file at all")))
	assert.ErrorIs(t, err, arrow.ErrInvalid)

	arr := fromJSON(t, mem, arrow.ListOf(arrow.PrimitiveTypes.Int64), `[[1], [2, 3]]`)
	defer arr.Release()

	var buf bytes.Buffer
	w, err := ipc.NewFileWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Write(arr))
	require.NoError(t, w.Close())

	r, err := ipc.NewFileReader(bytes.NewReader(buf.Bytes()), ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Array(1)
	assert.ErrorIs(t, err, arrow.ErrIndex)
	_, err = r.Array(-1)
	assert.ErrorIs(t, err, arrow.ErrIndex)

	truncated := buf.Bytes()[:buf.Len()-1]
	_, err = ipc.NewFileReader(bytes.NewReader(truncated))
	assert.ErrorIs(t, err, arrow.ErrInvalid)
}

func TestEmptyFileNeedsField(t *testing.T) {
	var buf bytes.Buffer
	w, err := ipc.NewFileWriter(&buf)
	require.NoError(t, err)
	assert.ErrorIs(t, w.Close(), arrow.ErrInvalid)
}

func TestCopyStreamToFile(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := arrow.ListOf(arrow.PrimitiveTypes.Int64)
	inputs := []string{`[[1, 2], null]`, `[[]]`, `[[3], [4, 5]]`}

	var stream bytes.Buffer
	sw := ipc.NewWriter(&stream, ipc.WithCompression(compress.Codecs.Lz4))
	var want []arrow.Array
	for _, s := range inputs {
		arr := fromJSON(t, mem, dt, s)
		defer arr.Release()
		want = append(want, arr)
		require.NoError(t, sw.Write(arr))
	}
	require.NoError(t, sw.Close())

	sr, err := ipc.NewReader(&stream, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer sr.Release()

	var file bytes.Buffer
	fw, err := ipc.NewFileWriter(&file, ipc.WithField(sr.Field()))
	require.NoError(t, err)
	n, err := ipc.Copy(fw, sr)
	require.NoError(t, err)
	assert.EqualValues(t, len(inputs), n)
	require.NoError(t, fw.Close())

	fr, err := ipc.NewFileReader(bytes.NewReader(file.Bytes()), ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer fr.Close()

	i := 0
	for {
		got, err := fr.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.True(t, array.Equal(want[i], got))
		i++
	}
	assert.Equal(t, len(inputs), i)
}
