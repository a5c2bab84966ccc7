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
	"strconv"
	"sync/atomic"
	"time"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/bitutil"
	"github.com/apache/arrow/go/lists/arrow/internal/debug"
	"github.com/apache/arrow/go/lists/arrow/memory"
	"github.com/goccy/go-json"
)

// numericBuilder is the shared implementation of the fixed-width builders.
type numericBuilder[T arrow.FixedWidthType] struct {
	builder

	dtype   arrow.DataType
	data    *memory.Buffer
	rawData []T
}

func newNumericBuilder[T arrow.FixedWidthType](mem memory.Allocator, dtype arrow.DataType) numericBuilder[T] {
	return numericBuilder[T]{builder: builder{refCount: 1, mem: mem}, dtype: dtype}
}

func (b *numericBuilder[T]) Type() arrow.DataType { return b.dtype }

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
// Release may be called simultaneously from multiple goroutines.
func (b *numericBuilder[T]) Release() {
	debug.Assert(atomic.LoadInt64(&b.refCount) > 0, "too many releases")

	if atomic.AddInt64(&b.refCount, -1) == 0 {
		if b.nullBitmap != nil {
			b.nullBitmap.Release()
			b.nullBitmap = nil
		}
		if b.data != nil {
			b.data.Release()
			b.data = nil
			b.rawData = nil
		}
	}
}

func (b *numericBuilder[T]) Append(v T) {
	b.Reserve(1)
	b.UnsafeAppend(v)
}

func (b *numericBuilder[T]) UnsafeAppend(v T) {
	bitutil.SetBit(b.nullBitmap.Bytes(), b.length)
	b.rawData[b.length] = v
	b.length++
}

func (b *numericBuilder[T]) AppendNull() {
	b.Reserve(1)
	b.unsafeAppendBoolToBitmap(false)
}

func (b *numericBuilder[T]) AppendEmptyValue() {
	b.Append(0)
}

// AppendValues will append the values in the v slice. The valid slice determines which values
// in v are valid (not null). The valid slice must either be empty or be equal in length to v. If empty,
// all values in v are appended and considered valid.
func (b *numericBuilder[T]) AppendValues(v []T, valid []bool) {
	if len(v) != len(valid) && len(valid) != 0 {
		panic("len(v) != len(valid) && len(valid) != 0")
	}

	if len(v) == 0 {
		return
	}

	b.Reserve(len(v))
	copy(b.rawData[b.length:], v)
	b.builder.unsafeAppendBoolsToBitmap(valid, len(v))
}

func (b *numericBuilder[T]) init(capacity int) {
	b.builder.init(capacity)

	b.data = memory.NewResizableBuffer(b.mem)
	b.data.Resize(arrow.BytesRequired[T](capacity))
	b.rawData = arrow.GetData[T](b.data.Bytes())
}

// Reserve ensures there is enough space for appending n elements
// by checking the capacity and calling Resize if necessary.
func (b *numericBuilder[T]) Reserve(n int) {
	b.builder.reserve(n, b.Resize)
}

// Resize adjusts the space allocated by b to n elements. If n is greater than b.Cap(),
// additional memory will be allocated. If n is smaller, the allocated memory may reduced.
func (b *numericBuilder[T]) Resize(n int) {
	nBuilder := n
	if n < minBuilderCapacity {
		n = minBuilderCapacity
	}

	if b.capacity == 0 {
		b.init(n)
	} else {
		b.builder.resize(nBuilder, b.init)
		b.data.Resize(arrow.BytesRequired[T](n))
		b.rawData = arrow.GetData[T](b.data.Bytes())
	}
}

func (b *numericBuilder[T]) newData() (data *Data) {
	bytesRequired := arrow.BytesRequired[T](b.length)
	if bytesRequired > 0 && bytesRequired < b.data.Len() {
		// trim buffers
		b.data.Resize(bytesRequired)
	}
	data = NewData(b.dtype, b.length, []*memory.Buffer{b.nullBitmap, b.data}, nil, b.nulls, 0)
	b.reset()

	if b.data != nil {
		b.data.Release()
		b.data = nil
		b.rawData = nil
	}

	return
}

// AppendValue appends v converted to T. Integers and floats of any width are
// accepted as long as the value fits.
func (b *numericBuilder[T]) AppendValue(v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	if x, ok := v.(T); ok {
		b.Append(x)
		return nil
	}

	var z T
	switch any(z).(type) {
	case float32, float64:
		if f, ok := toFloat64(v); ok {
			b.Append(T(f))
			return nil
		}
	default:
		if n, ok := toInt64(v); ok {
			if int64(T(n)) != n {
				return fmt.Errorf("%w: value %d overflows %s", arrow.ErrInvalid, n, b.dtype)
			}
			b.Append(T(n))
			return nil
		}
	}
	return fmt.Errorf("%w: cannot append %T to %s builder", arrow.ErrInvalid, v, b.dtype)
}

func (b *numericBuilder[T]) parseNumber(n json.Number) (T, error) {
	var z T
	switch any(z).(type) {
	case float32, float64:
		f, err := n.Float64()
		return T(f), err
	default:
		v, err := strconv.ParseInt(string(n), 10, arrow.BytesRequired[T](1)*8)
		return T(v), err
	}
}

func (b *numericBuilder[T]) unmarshalOne(dec *json.Decoder) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := t.(type) {
	case nil:
		b.AppendNull()
	case json.Number:
		x, err := b.parseNumber(v)
		if err != nil {
			return &json.UnmarshalTypeError{
				Value:  v.String(),
				Type:   reflect.TypeOf(zeroOf[T]()),
				Offset: dec.InputOffset(),
			}
		}
		b.Append(x)
	case float64:
		b.Append(T(v))
	default:
		return &json.UnmarshalTypeError{
			Value:  fmt.Sprint(t),
			Type:   reflect.TypeOf(zeroOf[T]()),
			Offset: dec.InputOffset(),
		}
	}
	return nil
}

func (b *numericBuilder[T]) unmarshal(dec *json.Decoder) error {
	for dec.More() {
		if err := b.unmarshalOne(dec); err != nil {
			return err
		}
	}
	return nil
}

func zeroOf[T any]() (out T) { return }

type Int32Builder struct {
	numericBuilder[int32]
}

func NewInt32Builder(mem memory.Allocator) *Int32Builder {
	return &Int32Builder{newNumericBuilder[int32](mem, arrow.PrimitiveTypes.Int32)}
}

// NewArray creates a Int32 array from the memory buffers used by the builder and resets the Int32Builder
// so it can be used to build a new array.
func (b *Int32Builder) NewArray() arrow.Array { return b.NewInt32Array() }

// NewInt32Array creates a Int32 array from the memory buffers used by the builder and resets the Int32Builder
// so it can be used to build a new array.
func (b *Int32Builder) NewInt32Array() (a *Int32) {
	data := b.newData()
	a = NewInt32Data(data)
	data.Release()
	return
}

func (b *Int32Builder) UnmarshalJSON(data []byte) error { return unmarshalJSONArray(b, data, b.dtype) }

type Int64Builder struct {
	numericBuilder[int64]
}

func NewInt64Builder(mem memory.Allocator) *Int64Builder {
	return &Int64Builder{newNumericBuilder[int64](mem, arrow.PrimitiveTypes.Int64)}
}

func (b *Int64Builder) NewArray() arrow.Array { return b.NewInt64Array() }

// NewInt64Array creates a Int64 array from the memory buffers used by the builder and resets the Int64Builder
// so it can be used to build a new array.
func (b *Int64Builder) NewInt64Array() (a *Int64) {
	data := b.newData()
	a = NewInt64Data(data)
	data.Release()
	return
}

func (b *Int64Builder) UnmarshalJSON(data []byte) error { return unmarshalJSONArray(b, data, b.dtype) }

type Float64Builder struct {
	numericBuilder[float64]
}

func NewFloat64Builder(mem memory.Allocator) *Float64Builder {
	return &Float64Builder{newNumericBuilder[float64](mem, arrow.PrimitiveTypes.Float64)}
}

func (b *Float64Builder) NewArray() arrow.Array { return b.NewFloat64Array() }

func (b *Float64Builder) NewFloat64Array() (a *Float64) {
	data := b.newData()
	a = NewFloat64Data(data)
	data.Release()
	return
}

func (b *Float64Builder) UnmarshalJSON(data []byte) error { return unmarshalJSONArray(b, data, b.dtype) }

type TimestampBuilder struct {
	numericBuilder[arrow.Timestamp]
}

func NewTimestampBuilder(mem memory.Allocator, dtype *arrow.TimestampType) *TimestampBuilder {
	return &TimestampBuilder{newNumericBuilder[arrow.Timestamp](mem, dtype)}
}

func (b *TimestampBuilder) unit() arrow.TimeUnit { return b.dtype.(*arrow.TimestampType).Unit }

// AppendTime appends t converted to the builder's unit.
func (b *TimestampBuilder) AppendTime(t time.Time) {
	b.Append(arrow.TimestampFromTime(t, b.unit()))
}

func (b *TimestampBuilder) AppendValue(v interface{}) error {
	if t, ok := v.(time.Time); ok {
		b.AppendTime(t)
		return nil
	}
	return b.numericBuilder.AppendValue(v)
}

func (b *TimestampBuilder) NewArray() arrow.Array { return b.NewTimestampArray() }

func (b *TimestampBuilder) NewTimestampArray() (a *Timestamp) {
	data := b.newData()
	a = NewTimestampData(data)
	data.Release()
	return
}

func (b *TimestampBuilder) unmarshalOne(dec *json.Decoder) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := t.(type) {
	case nil:
		b.AppendNull()
	case string:
		for _, layout := range []string{timestampFormat, time.RFC3339Nano, "2006-01-02"} {
			tm, err := time.ParseInLocation(layout, v, time.UTC)
			if err == nil {
				b.AppendTime(tm)
				return nil
			}
		}
		return &json.UnmarshalTypeError{
			Value:  v,
			Type:   reflect.TypeOf(arrow.Timestamp(0)),
			Offset: dec.InputOffset(),
		}
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return err
		}
		b.Append(arrow.Timestamp(n))
	default:
		return &json.UnmarshalTypeError{
			Value:  fmt.Sprint(t),
			Type:   reflect.TypeOf(arrow.Timestamp(0)),
			Offset: dec.InputOffset(),
		}
	}
	return nil
}

func (b *TimestampBuilder) unmarshal(dec *json.Decoder) error { return unmarshalArray(b, dec) }

func (b *TimestampBuilder) UnmarshalJSON(data []byte) error {
	return unmarshalJSONArray(b, data, b.dtype)
}

var (
	_ Builder = (*Int32Builder)(nil)
	_ Builder = (*Int64Builder)(nil)
	_ Builder = (*Float64Builder)(nil)
	_ Builder = (*TimestampBuilder)(nil)
)
