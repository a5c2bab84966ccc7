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
	"strings"
	"time"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/goccy/go-json"
)

// numeric is the shared implementation of the fixed-width arrays.
type numeric[T arrow.FixedWidthType] struct {
	array
	values []T
}

func (a *numeric[T]) setData(data *Data) {
	a.array.setData(data)
	if len(data.buffers) > 1 && data.buffers[1] != nil {
		vals := arrow.GetData[T](data.buffers[1].Bytes())
		if vals != nil {
			beg := a.array.data.offset
			end := beg + a.array.data.length
			a.values = vals[beg:end]
		}
	}
}

// Value returns the value at index i.
func (a *numeric[T]) Value(i int) T { return a.values[i] }

// Values returns the values, starting at the array offset.
func (a *numeric[T]) Values() []T { return a.values }

func (a *numeric[T]) String() string {
	o := new(strings.Builder)
	o.WriteString("[")
	for i, v := range a.values {
		if i > 0 {
			fmt.Fprintf(o, " ")
		}
		switch {
		case a.IsNull(i):
			o.WriteString("(null)")
		default:
			fmt.Fprintf(o, "%v", v)
		}
	}
	o.WriteString("]")
	return o.String()
}

func (a *numeric[T]) GetOneForMarshal(i int) interface{} {
	if a.IsNull(i) {
		return nil
	}
	return a.values[i]
}

func (a *numeric[T]) MarshalJSON() ([]byte, error) {
	vals := make([]interface{}, a.Len())
	for i := range vals {
		vals[i] = a.GetOneForMarshal(i)
	}
	return json.Marshal(vals)
}

// A type which represents an immutable sequence of int32 values.
type Int32 struct {
	numeric[int32]
}

// NewInt32Data creates a new Int32.
func NewInt32Data(data arrow.ArrayData) *Int32 {
	a := &Int32{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (a *Int32) Int32Values() []int32 { return a.Values() }

// A type which represents an immutable sequence of int64 values.
type Int64 struct {
	numeric[int64]
}

// NewInt64Data creates a new Int64.
func NewInt64Data(data arrow.ArrayData) *Int64 {
	a := &Int64{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (a *Int64) Int64Values() []int64 { return a.Values() }

// A type which represents an immutable sequence of float64 values.
type Float64 struct {
	numeric[float64]
}

// NewFloat64Data creates a new Float64.
func NewFloat64Data(data arrow.ArrayData) *Float64 {
	a := &Float64{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (a *Float64) Float64Values() []float64 { return a.Values() }

// timestampFormat is the layout used to print and marshal timestamps.
const timestampFormat = "2006-01-02 15:04:05.999999999"

// A type which represents an immutable sequence of arrow.Timestamp values.
type Timestamp struct {
	numeric[arrow.Timestamp]
}

// NewTimestampData creates a new Timestamp.
func NewTimestampData(data arrow.ArrayData) *Timestamp {
	a := &Timestamp{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (a *Timestamp) TimestampValues() []arrow.Timestamp { return a.Values() }

func (a *Timestamp) unit() arrow.TimeUnit { return a.DataType().(*arrow.TimestampType).Unit }

// ValueTime returns the value at index i as a UTC time.Time.
func (a *Timestamp) ValueTime(i int) time.Time { return a.values[i].ToTime(a.unit()) }

func (a *Timestamp) GetOneForMarshal(i int) interface{} {
	if a.IsNull(i) {
		return nil
	}
	return a.ValueTime(i).Format(timestampFormat)
}

func (a *Timestamp) MarshalJSON() ([]byte, error) {
	vals := make([]interface{}, a.Len())
	for i := range vals {
		vals[i] = a.GetOneForMarshal(i)
	}
	return json.Marshal(vals)
}

var (
	_ arrow.Array = (*Int32)(nil)
	_ arrow.Array = (*Int64)(nil)
	_ arrow.Array = (*Float64)(nil)
	_ arrow.Array = (*Timestamp)(nil)
)
