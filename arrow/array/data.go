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
	"sync/atomic"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/bitutil"
	"github.com/apache/arrow/go/lists/arrow/internal/debug"
	"github.com/apache/arrow/go/lists/arrow/memory"
)

// UnknownNullCount is the null count of a Data whose nulls have not been
// counted yet. It is resolved lazily from the validity bitmap by NullN.
const UnknownNullCount = -1

// Data represents the memory and metadata of an Arrow array.
type Data struct {
	refCount  int64
	dtype     arrow.DataType
	nulls     int64
	offset    int
	length    int
	buffers   []*memory.Buffer // mutable in the builders only
	childData []arrow.ArrayData
}

// NewData creates a new Data. The buffers and children are retained.
func NewData(dtype arrow.DataType, length int, buffers []*memory.Buffer, childData []arrow.ArrayData, nulls, offset int) *Data {
	for _, b := range buffers {
		if b != nil {
			b.Retain()
		}
	}

	for _, child := range childData {
		if child != nil {
			child.Retain()
		}
	}

	return &Data{
		refCount:  1,
		dtype:     dtype,
		nulls:     int64(nulls),
		length:    length,
		offset:    offset,
		buffers:   buffers,
		childData: childData,
	}
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (d *Data) Retain() {
	atomic.AddInt64(&d.refCount, 1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
// Release may be called simultaneously from multiple goroutines.
func (d *Data) Release() {
	debug.Assert(atomic.LoadInt64(&d.refCount) > 0, "too many releases")

	if atomic.AddInt64(&d.refCount, -1) == 0 {
		for _, b := range d.buffers {
			if b != nil {
				b.Release()
			}
		}

		for _, b := range d.childData {
			b.Release()
		}
		d.buffers, d.childData = nil, nil
	}
}

// DataType returns the DataType of the data.
func (d *Data) DataType() arrow.DataType { return d.dtype }

// NullN returns the number of nulls, counting them from the validity bitmap
// the first time it is called on a slice.
func (d *Data) NullN() int {
	n := atomic.LoadInt64(&d.nulls)
	if n < 0 {
		n = int64(d.countNulls())
		atomic.StoreInt64(&d.nulls, n)
	}
	return int(n)
}

func (d *Data) countNulls() int {
	switch {
	case d.dtype.ID() == arrow.NULL:
		return d.length
	case len(d.buffers) == 0 || d.buffers[0] == nil:
		return 0
	}
	return d.length - bitutil.CountSetBits(d.buffers[0].Bytes(), d.offset, d.length)
}

// Len returns the length.
func (d *Data) Len() int { return d.length }

// Offset returns the offset.
func (d *Data) Offset() int { return d.offset }

// Buffers returns the buffers.
func (d *Data) Buffers() []*memory.Buffer { return d.buffers }

func (d *Data) Children() []arrow.ArrayData { return d.childData }

// NewSliceData returns a new slice that shares backing data with the input.
// The returned Data slice starts at i and extends j-i elements, such as:
//
//	slice := data[i:j]
//
// The returned value must be Release'd after use.
//
// NewSliceData panics if the slice is outside the valid range of the input Data.
// NewSliceData panics if j < i.
func NewSliceData(data arrow.ArrayData, i, j int64) arrow.ArrayData {
	if j > int64(data.Len()) || i > j || i < 0 {
		panic(fmt.Errorf("arrow/array: index out of range: [%d:%d] with length %d", i, j, data.Len()))
	}

	d := data.(*Data)
	for _, b := range d.buffers {
		if b != nil {
			b.Retain()
		}
	}

	for _, child := range d.childData {
		if child != nil {
			child.Retain()
		}
	}

	nulls := int64(UnknownNullCount)
	switch n := atomic.LoadInt64(&d.nulls); {
	case d.dtype.ID() == arrow.NULL || (n >= 0 && n == int64(d.length)):
		nulls = j - i
	case n == 0:
		nulls = 0
	}

	return &Data{
		refCount:  1,
		dtype:     d.dtype,
		nulls:     nulls,
		length:    int(j - i),
		offset:    d.offset + int(i),
		buffers:   d.buffers,
		childData: d.childData,
	}
}

var _ arrow.ArrayData = (*Data)(nil)
