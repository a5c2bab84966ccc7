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
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/memory"
)

func toInt64(v interface{}) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if uint64(v) > 1<<63-1 {
			return 0, false
		}
		return int64(v), true
	case uint64:
		if v > 1<<63-1 {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch v := v.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	if n, ok := toInt64(v); ok {
		return float64(n), true
	}
	return 0, false
}

// listElements returns the elements of v when v is a Go slice or array other
// than []byte.
func listElements(v interface{}) ([]interface{}, bool) {
	switch v := v.(type) {
	case []interface{}:
		return v, true
	case []byte, string, nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// InferType picks the array type able to hold every value, following these
// rules: nil is compatible with anything, bools give bool, Go integers give
// int64 unless mixed with floats (float64), strings give utf8 unless mixed
// with []byte (binary), time.Time gives timestamp[us] and slices give a list
// of the type inferred from all their elements. An empty or all-nil input
// gives null.
//
// Mixing lists with scalars, or scalar kinds not listed above, fails with an
// error wrapping arrow.ErrInvalid.
func InferType(values []interface{}) (arrow.DataType, error) {
	var inf typeInferrer
	for _, v := range values {
		if err := inf.visit(v); err != nil {
			return nil, err
		}
	}
	return inf.dataType()
}

type typeInferrer struct {
	nulls, bools, ints, floats int
	strs, bins, times, lists   int

	child *typeInferrer
}

func (inf *typeInferrer) visit(v interface{}) error {
	switch v := v.(type) {
	case nil:
		inf.nulls++
	case bool:
		inf.bools++
	case string:
		inf.strs++
	case []byte:
		inf.bins++
	case time.Time:
		inf.times++
	case float32, float64:
		inf.floats++
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint, uint64:
		if _, ok := toInt64(v); !ok {
			return fmt.Errorf("%w: integer %d overflows int64", arrow.ErrInvalid, v)
		}
		inf.ints++
	default:
		elems, ok := listElements(v)
		if !ok {
			return fmt.Errorf("%w: cannot infer arrow type of %T", arrow.ErrInvalid, v)
		}
		inf.lists++
		if inf.child == nil {
			inf.child = &typeInferrer{}
		}
		for _, e := range elems {
			if err := inf.child.visit(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (inf *typeInferrer) dataType() (arrow.DataType, error) {
	scalars := inf.bools + inf.ints + inf.floats + inf.strs + inf.bins + inf.times
	switch {
	case inf.lists > 0 && scalars > 0:
		return nil, fmt.Errorf("%w: cannot mix lists and scalar values", arrow.ErrInvalid)
	case inf.lists > 0:
		elem, err := inf.child.dataType()
		if err != nil {
			return nil, err
		}
		return arrow.ListOf(elem), nil
	case scalars == 0:
		return arrow.Null, nil
	case inf.bools == scalars:
		return arrow.FixedWidthTypes.Boolean, nil
	case inf.times == scalars:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	case inf.ints+inf.floats == scalars:
		if inf.floats > 0 {
			return arrow.PrimitiveTypes.Float64, nil
		}
		return arrow.PrimitiveTypes.Int64, nil
	case inf.strs+inf.bins == scalars:
		if inf.bins > 0 {
			return arrow.BinaryTypes.Binary, nil
		}
		return arrow.BinaryTypes.String, nil
	}
	return nil, fmt.Errorf("%w: cannot mix %s values", arrow.ErrInvalid, inf.kinds())
}

func (inf *typeInferrer) kinds() string {
	var kinds []string
	for _, k := range []struct {
		n    int
		name string
	}{
		{inf.bools, "bool"}, {inf.ints, "integer"}, {inf.floats, "float"},
		{inf.strs, "string"}, {inf.bins, "bytes"}, {inf.times, "time"},
	} {
		if k.n > 0 {
			kinds = append(kinds, k.name)
		}
	}
	return strings.Join(kinds, " and ")
}

// FromValues builds an array out of Go values. A nil dt infers the type with
// InferType; otherwise every value is converted to dt and a value that does
// not fit fails with an error wrapping arrow.ErrInvalid.
func FromValues(mem memory.Allocator, values []interface{}, dt arrow.DataType) (arrow.Array, error) {
	if dt == nil {
		var err error
		if dt, err = InferType(values); err != nil {
			return nil, err
		}
	}

	bldr := NewBuilder(mem, dt)
	defer bldr.Release()

	bldr.Reserve(len(values))
	for i, v := range values {
		if err := bldr.AppendValue(v); err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
	}
	return bldr.NewArray(), nil
}

// ToValues copies the contents of arr into Go values: nil for nulls, bool,
// int32, int64, float64, string, []byte, time.Time and []interface{} for
// lists.
func ToValues(arr arrow.Array) []interface{} {
	out := make([]interface{}, arr.Len())
	for i := range out {
		out[i] = valueAt(arr, i)
	}
	return out
}

func valueAt(arr arrow.Array, i int) interface{} {
	if arr.IsNull(i) {
		return nil
	}

	switch a := arr.(type) {
	case *Boolean:
		return a.Value(i)
	case *Int32:
		return a.Value(i)
	case *Int64:
		return a.Value(i)
	case *Float64:
		return a.Value(i)
	case *Timestamp:
		return a.ValueTime(i)
	case *String:
		return strings.Clone(a.Value(i))
	case *Binary:
		return append([]byte(nil), a.Value(i)...)
	case ListLike:
		sub, _ := a.Value(int64(i))
		defer sub.Release()
		return ToValues(sub)
	}
	return arr.GetOneForMarshal(i)
}
