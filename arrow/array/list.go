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
	"sync/atomic"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/bitutil"
	"github.com/apache/arrow/go/lists/arrow/internal/debug"
	"github.com/apache/arrow/go/lists/arrow/memory"
	"github.com/goccy/go-json"
)

// ListLike is the common interface of the list arrays. Each slot holds a
// variable-length run of elements taken from a single shared child array.
type ListLike interface {
	arrow.Array
	// ValueType returns the element type of the lists.
	ValueType() arrow.DataType
	// Value returns a zero-copy view of the elements of list i.
	Value(i int64) (arrow.Array, error)
	// ListValues returns the shared child array.
	ListValues() arrow.Array
	ValueOffsets(i int) (start, end int64)
	ValueLen(i int) int
	Validate() error
	ValidateFull() error
}

// baseList holds the layout shared by List and LargeList, which only differ
// in the width of their offsets.
type baseList[O arrow.OffsetType] struct {
	array
	values  arrow.Array
	offsets []O
}

func (a *baseList[O]) setData(data *Data) {
	if len(data.buffers) < 2 {
		panic("arrow/array: list data must have a validity and an offsets buffer")
	}

	a.array.setData(data)
	a.offsets = nil
	if buf := data.buffers[1]; buf != nil {
		a.offsets = arrow.GetData[O](buf.Bytes())
	}

	if a.values != nil {
		a.values.Release()
		a.values = nil
	}
	if len(data.childData) > 0 {
		a.values = MakeFromData(data.childData[0])
	}
}

// ValueType returns the data type of the list elements.
func (a *baseList[O]) ValueType() arrow.DataType {
	return a.DataType().(arrow.ListLikeType).Elem()
}

// Value returns the elements of list i as a zero-copy slice of the child
// array. The slice is returned for null lists too; use IsNull to tell them
// apart. The caller must Release the returned array.
//
// Value fails with an error wrapping arrow.ErrIndex when i is not in [0, Len()).
func (a *baseList[O]) Value(i int64) (arrow.Array, error) {
	if i < 0 || i >= int64(a.array.data.length) {
		return nil, fmt.Errorf("%w: list index %d not in [0, %d)", arrow.ErrIndex, i, a.array.data.length)
	}
	j := i + int64(a.array.data.offset)
	return NewSlice(a.values, int64(a.offsets[j]), int64(a.offsets[j+1])), nil
}

// ValueOffsets returns the child range [start, end) of list i.
func (a *baseList[O]) ValueOffsets(i int) (start, end int64) {
	debug.Assert(i >= 0 && i < a.array.data.length, "index out of range")
	j := i + a.array.data.offset
	start, end = int64(a.offsets[j]), int64(a.offsets[j+1])
	return
}

// ValueLen returns the number of elements in list i.
func (a *baseList[O]) ValueLen(i int) int {
	start, end := a.ValueOffsets(i)
	return int(end - start)
}

// Offsets returns the Len()+1 offsets of this array, starting at its
// slice offset.
func (a *baseList[O]) Offsets() []O {
	if len(a.offsets) == 0 {
		return nil
	}
	beg := a.array.data.offset
	return a.offsets[beg : beg+a.array.data.length+1]
}

// ListValues returns the child array shared by every list.
func (a *baseList[O]) ListValues() arrow.Array { return a.values }

func (a *baseList[O]) Retain() {
	a.array.Retain()
	if a.values != nil {
		a.values.Retain()
	}
}

func (a *baseList[O]) Release() {
	a.array.Release()
	if a.values != nil {
		a.values.Release()
	}
}

func (a *baseList[O]) String() string {
	o := new(strings.Builder)
	o.WriteString("[")
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			o.WriteString(" ")
		}
		if a.IsNull(i) {
			o.WriteString("(null)")
			continue
		}
		sub, _ := a.Value(int64(i))
		fmt.Fprintf(o, "%v", sub)
		sub.Release()
	}
	o.WriteString("]")
	return o.String()
}

func (a *baseList[O]) GetOneForMarshal(i int) interface{} {
	if a.IsNull(i) {
		return nil
	}

	slice, _ := a.Value(int64(i))
	defer slice.Release()
	v, err := json.Marshal(slice)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(v)
}

func (a *baseList[O]) MarshalJSON() ([]byte, error) {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)

	buf.WriteByte('[')
	for i := 0; i < a.Len(); i++ {
		if i != 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(a.GetOneForMarshal(i)); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return []byte(buf.String()), nil
}

// List represents an immutable sequence of array values using 32-bit offsets.
type List struct {
	baseList[int32]
}

// NewListData returns a new List array value, from data.
func NewListData(data arrow.ArrayData) *List {
	a := &List{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

// ListType returns the type of the array.
func (a *List) ListType() *arrow.ListType { return a.DataType().(*arrow.ListType) }

// LargeList represents an immutable sequence of array values using 64-bit
// offsets.
type LargeList struct {
	baseList[int64]
}

// NewLargeListData returns a new LargeList array value, from data.
func NewLargeListData(data arrow.ArrayData) *LargeList {
	a := &LargeList{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (a *LargeList) ListType() *arrow.LargeListType { return a.DataType().(*arrow.LargeListType) }

func describe(arr arrow.Array) string {
	if arr == nil {
		return "<nil>"
	}
	return arr.DataType().String()
}

// AsList returns arr as a *List, or an error wrapping arrow.ErrType when arr
// is some other kind of array.
func AsList(arr arrow.Array) (*List, error) {
	if l, ok := arr.(*List); ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w: expected list array, got %s", arrow.ErrType, describe(arr))
}

// AsLargeList returns arr as a *LargeList, or an error wrapping arrow.ErrType.
func AsLargeList(arr arrow.Array) (*LargeList, error) {
	if l, ok := arr.(*LargeList); ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w: expected large_list array, got %s", arrow.ErrType, describe(arr))
}

// AsListLike accepts either list variant.
func AsListLike(arr arrow.Array) (ListLike, error) {
	if l, ok := arr.(ListLike); ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w: expected a list-like array, got %s", arrow.ErrType, describe(arr))
}

// NewListFromArrays builds a List over values from explicit offsets and an
// optional validity slice (nil means every list is valid). The offsets are
// copied; values is retained. The result is fully validated.
func NewListFromArrays(mem memory.Allocator, offsets []int32, valid []bool, values arrow.Array) (*List, error) {
	if values == nil {
		return nil, fmt.Errorf("%w: list values must not be nil", arrow.ErrInvalid)
	}
	data, err := listDataFromArrays(mem, arrow.ListOf(values.DataType()), offsets, valid, values)
	if err != nil {
		return nil, err
	}
	defer data.Release()

	out := NewListData(data)
	if err := out.ValidateFull(); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// NewLargeListFromArrays is the 64-bit offset counterpart of NewListFromArrays.
func NewLargeListFromArrays(mem memory.Allocator, offsets []int64, valid []bool, values arrow.Array) (*LargeList, error) {
	if values == nil {
		return nil, fmt.Errorf("%w: list values must not be nil", arrow.ErrInvalid)
	}
	data, err := listDataFromArrays(mem, arrow.LargeListOf(values.DataType()), offsets, valid, values)
	if err != nil {
		return nil, err
	}
	defer data.Release()

	out := NewLargeListData(data)
	if err := out.ValidateFull(); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

func listDataFromArrays[O arrow.OffsetType](mem memory.Allocator, dt arrow.DataType, offsets []O, valid []bool, values arrow.Array) (*Data, error) {
	if len(offsets) == 0 {
		return nil, fmt.Errorf("%w: list offsets must have at least one entry", arrow.ErrInvalid)
	}
	n := len(offsets) - 1
	if valid != nil && len(valid) != n {
		return nil, fmt.Errorf("%w: validity has %d entries, want %d", arrow.ErrInvalid, len(valid), n)
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	offBuf := memory.NewResizableBuffer(mem)
	defer offBuf.Release()
	offBuf.Resize(arrow.BytesRequired[O](len(offsets)))
	copy(arrow.GetData[O](offBuf.Bytes()), offsets)

	buffers := []*memory.Buffer{nil, offBuf}
	nulls := 0
	if valid != nil {
		bitmap := memory.NewResizableBuffer(mem)
		defer bitmap.Release()
		bitmap.Resize(int(bitutil.BytesForBits(int64(n))))
		clear(bitmap.Bytes())
		for i, v := range valid {
			if v {
				bitutil.SetBit(bitmap.Bytes(), i)
			} else {
				nulls++
			}
		}
		buffers[0] = bitmap
	}

	return NewData(dt, n, buffers, []arrow.ArrayData{values.Data()}, nulls, 0), nil
}

// ListLikeBuilder is the common interface of the list builders.
type ListLikeBuilder interface {
	Builder
	ValueBuilder() Builder
	Append(bool)
}

// baseListBuilder is the builder shared by ListBuilder and LargeListBuilder.
type baseListBuilder[O arrow.OffsetType] struct {
	builder

	values  Builder // value builder for the list's elements.
	offsets *offsetBufferBuilder[O]
	dt      arrow.DataType
}

func newBaseListBuilder[O arrow.OffsetType](mem memory.Allocator, dt arrow.ListLikeType) baseListBuilder[O] {
	return baseListBuilder[O]{
		builder: builder{refCount: 1, mem: mem},
		values:  NewBuilder(mem, dt.Elem()),
		offsets: newOffsetBufferBuilder[O](mem),
		dt:      dt,
	}
}

func (b *baseListBuilder[O]) Type() arrow.DataType { return b.dt }

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
func (b *baseListBuilder[O]) Release() {
	debug.Assert(atomic.LoadInt64(&b.refCount) > 0, "too many releases")

	if atomic.AddInt64(&b.refCount, -1) == 0 {
		if b.nullBitmap != nil {
			b.nullBitmap.Release()
			b.nullBitmap = nil
		}
		b.values.Release()
		b.offsets.Release()
	}
}

func (b *baseListBuilder[O]) checkOffset(n int) error {
	if int(O(n)) != n {
		return fmt.Errorf("%w: list child length %d overflows %s offsets", arrow.ErrInvalid, n, b.dt)
	}
	return nil
}

func (b *baseListBuilder[O]) appendNextOffset() {
	n := b.values.Len()
	if err := b.checkOffset(n); err != nil {
		panic(err)
	}
	b.offsets.AppendValue(O(n))
}

// Append starts a new list. The elements appended to ValueBuilder until the
// next Append or AppendNull belong to it.
//
// Append panics with an error wrapping arrow.ErrInvalid if the child length
// no longer fits the offset width.
func (b *baseListBuilder[O]) Append(v bool) {
	b.Reserve(1)
	b.unsafeAppendBoolToBitmap(v)
	b.appendNextOffset()
}

func (b *baseListBuilder[O]) AppendNull() {
	b.Reserve(1)
	b.unsafeAppendBoolToBitmap(false)
	b.appendNextOffset()
}

func (b *baseListBuilder[O]) AppendEmptyValue() {
	b.Append(true)
}

// AppendValues appends one list per offset, each starting at the given child
// position. A nil valid marks every list as valid.
func (b *baseListBuilder[O]) AppendValues(offsets []O, valid []bool) {
	if len(valid) != 0 && len(valid) != len(offsets) {
		panic("len(offsets) != len(valid) && len(valid) != 0")
	}
	b.Reserve(len(offsets))
	b.offsets.AppendValues(offsets)
	b.builder.unsafeAppendBoolsToBitmap(valid, len(offsets))
}

// AppendValue appends v as one list. v must be nil or a Go slice; each
// element is appended through the value builder. On error nothing is
// appended.
func (b *baseListBuilder[O]) AppendValue(v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	elems, ok := listElements(v)
	if !ok {
		return fmt.Errorf("%w: cannot append %T to %s builder", arrow.ErrInvalid, v, b.dt)
	}

	if err := b.checkOffset(b.values.Len() + len(elems)); err != nil {
		return err
	}
	if err := b.stage(elems); err != nil {
		return err
	}

	b.Append(true)
	for _, e := range elems {
		if err := b.values.AppendValue(e); err != nil {
			return err
		}
	}
	return nil
}

// stage appends elems to a scratch builder, so that an element the value
// builder rejects leaves b unchanged.
func (b *baseListBuilder[O]) stage(elems []interface{}) error {
	scratch := NewBuilder(b.mem, b.dt.(arrow.ListLikeType).Elem())
	defer scratch.Release()
	for _, e := range elems {
		if err := scratch.AppendValue(e); err != nil {
			return err
		}
	}
	return nil
}

func (b *baseListBuilder[O]) init(capacity int) {
	b.builder.init(capacity)
}

// Reserve ensures there is enough space for appending n elements
// by checking the capacity and calling Resize if necessary.
func (b *baseListBuilder[O]) Reserve(n int) {
	b.builder.reserve(n, b.Resize)
}

// Resize adjusts the space allocated by b to n elements. If n is greater than b.Cap(),
// additional memory will be allocated. If n is smaller, the allocated memory may reduced.
func (b *baseListBuilder[O]) Resize(n int) {
	if n < minBuilderCapacity {
		n = minBuilderCapacity
	}

	if b.capacity == 0 {
		b.init(n)
	} else {
		b.builder.resize(n, b.builder.init)
	}
}

// ValueBuilder returns the builder of the child array.
func (b *baseListBuilder[O]) ValueBuilder() Builder {
	return b.values
}

func (b *baseListBuilder[O]) newData() (data *Data) {
	if b.offsets.Len() != b.length+1 {
		b.appendNextOffset()
	}
	values := b.values.NewArray()
	defer values.Release()

	offsets := b.offsets.Finish()
	defer offsets.Release()

	data = NewData(b.dt, b.length, []*memory.Buffer{b.nullBitmap, offsets}, []arrow.ArrayData{values.Data()}, b.nulls, 0)
	b.reset()

	return
}

func (b *baseListBuilder[O]) unmarshalOne(dec *json.Decoder) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}

	switch t {
	case json.Delim('['):
		b.Append(true)
		if err := b.values.unmarshal(dec); err != nil {
			return err
		}
		// consume ']'
		_, err := dec.Token()
		return err
	case nil:
		b.AppendNull()
	default:
		return &json.UnmarshalTypeError{
			Value:  fmt.Sprint(t),
			Struct: b.dt.String(),
			Offset: dec.InputOffset(),
		}
	}

	return nil
}

func (b *baseListBuilder[O]) unmarshal(dec *json.Decoder) error {
	for dec.More() {
		if err := b.unmarshalOne(dec); err != nil {
			return err
		}
	}
	return nil
}

// ListBuilder builds List arrays.
type ListBuilder struct {
	baseListBuilder[int32]
}

// NewListBuilder returns a builder, using the provided memory allocator.
// The created list builder will create a list whose elements will be of type etype.
func NewListBuilder(mem memory.Allocator, etype arrow.DataType) *ListBuilder {
	return &ListBuilder{newBaseListBuilder[int32](mem, arrow.ListOf(etype))}
}

// NewListBuilderWithField takes a field to use for the child rather than just
// a datatype to allow for more customization.
func NewListBuilderWithField(mem memory.Allocator, field arrow.Field) *ListBuilder {
	return &ListBuilder{newBaseListBuilder[int32](mem, arrow.ListOfField(field))}
}

// NewArray creates a List array from the memory buffers used by the builder and resets the ListBuilder
// so it can be used to build a new array.
func (b *ListBuilder) NewArray() arrow.Array {
	return b.NewListArray()
}

// NewListArray creates a List array from the memory buffers used by the builder and resets the ListBuilder
// so it can be used to build a new array.
func (b *ListBuilder) NewListArray() (a *List) {
	data := b.newData()
	a = NewListData(data)
	data.Release()
	return
}

func (b *ListBuilder) UnmarshalJSON(data []byte) error {
	return unmarshalJSONArray(b, data, b.dt)
}

// LargeListBuilder builds LargeList arrays.
type LargeListBuilder struct {
	baseListBuilder[int64]
}

// NewLargeListBuilder returns a builder, using the provided memory allocator.
// The created list builder will create a list whose elements will be of type etype.
func NewLargeListBuilder(mem memory.Allocator, etype arrow.DataType) *LargeListBuilder {
	return &LargeListBuilder{newBaseListBuilder[int64](mem, arrow.LargeListOf(etype))}
}

func NewLargeListBuilderWithField(mem memory.Allocator, field arrow.Field) *LargeListBuilder {
	return &LargeListBuilder{newBaseListBuilder[int64](mem, arrow.LargeListOfField(field))}
}

func (b *LargeListBuilder) NewArray() arrow.Array {
	return b.NewLargeListArray()
}

// NewLargeListArray creates a LargeList array from the memory buffers used by the builder and resets the LargeListBuilder
// so it can be used to build a new array.
func (b *LargeListBuilder) NewLargeListArray() (a *LargeList) {
	data := b.newData()
	a = NewLargeListData(data)
	data.Release()
	return
}

func (b *LargeListBuilder) UnmarshalJSON(data []byte) error {
	return unmarshalJSONArray(b, data, b.dt)
}

var (
	_ ListLike        = (*List)(nil)
	_ ListLike        = (*LargeList)(nil)
	_ ListLikeBuilder = (*ListBuilder)(nil)
	_ ListLikeBuilder = (*LargeListBuilder)(nil)
)
