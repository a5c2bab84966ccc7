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

package arrow_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/stretchr/testify/assert"
)

func TestListTypeString(t *testing.T) {
	tests := []struct {
		dt   arrow.DataType
		want string
	}{
		{arrow.ListOf(arrow.PrimitiveTypes.Int64), "list<item: int64, nullable>"},
		{arrow.ListOfNonNullable(arrow.BinaryTypes.String), "list<item: utf8>"},
		{arrow.LargeListOf(arrow.PrimitiveTypes.Float64), "large_list<item: float64, nullable>"},
		{arrow.ListOf(arrow.ListOf(arrow.FixedWidthTypes.Boolean)), "list<item: list<item: bool, nullable>, nullable>"},
		{arrow.ListOfField(arrow.Field{Name: "ts", Type: arrow.FixedWidthTypes.Timestamp_us}), "list<ts: timestamp[us, tz=UTC]>"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dt.String())
		})
	}
}

func TestListTypeElem(t *testing.T) {
	dt := arrow.ListOf(arrow.PrimitiveTypes.Int32)
	assert.Equal(t, arrow.LIST, dt.ID())
	assert.Equal(t, "list", dt.Name())
	assert.Same(t, arrow.PrimitiveTypes.Int32, dt.Elem())
	assert.Equal(t, "item", dt.ElemField().Name)
	assert.True(t, dt.ElemField().Nullable)
	assert.Equal(t, 4, dt.OffsetBytes())
	assert.Equal(t, 8, arrow.LargeListOf(arrow.Null).OffsetBytes())

	assert.Panics(t, func() { arrow.ListOf(nil) })
	assert.Panics(t, func() { arrow.LargeListOfField(arrow.Field{Name: "x"}) })
}

func TestTypeEqual(t *testing.T) {
	tests := []struct {
		left, right arrow.DataType
		want        bool
	}{
		{nil, nil, true},
		{arrow.Null, nil, false},
		{arrow.PrimitiveTypes.Int64, &arrow.Int64Type{}, true},
		{arrow.PrimitiveTypes.Int64, arrow.PrimitiveTypes.Int32, false},
		{arrow.ListOf(arrow.PrimitiveTypes.Int64), arrow.ListOf(arrow.PrimitiveTypes.Int64), true},
		{arrow.ListOf(arrow.PrimitiveTypes.Int64), arrow.ListOfNonNullable(arrow.PrimitiveTypes.Int64), false},
		{arrow.ListOf(arrow.PrimitiveTypes.Int64), arrow.LargeListOf(arrow.PrimitiveTypes.Int64), false},
		{arrow.ListOf(arrow.PrimitiveTypes.Int64), arrow.ListOf(arrow.PrimitiveTypes.Float64), false},
		{
			arrow.ListOfField(arrow.Field{Name: "a", Type: arrow.BinaryTypes.String, Nullable: true}),
			arrow.ListOf(arrow.BinaryTypes.String),
			true,
		},
		{arrow.FixedWidthTypes.Timestamp_us, &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, true},
		{arrow.FixedWidthTypes.Timestamp_us, &arrow.TimestampType{Unit: arrow.Microsecond}, false},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			assert.Equal(t, tt.want, arrow.TypeEqual(tt.left, tt.right))
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := arrow.ListOf(arrow.PrimitiveTypes.Int64)
	b := arrow.ListOf(arrow.PrimitiveTypes.Int64)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), arrow.LargeListOf(arrow.PrimitiveTypes.Int64).Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), arrow.ListOfNonNullable(arrow.PrimitiveTypes.Int64).Fingerprint())
}

func TestTimestampConversion(t *testing.T) {
	tm := time.Date(2007, 7, 13, 1, 23, 34, 123456000, time.UTC)
	ts := arrow.TimestampFromTime(tm, arrow.Microsecond)
	assert.Equal(t, arrow.Timestamp(tm.UnixMicro()), ts)
	assert.True(t, tm.Equal(ts.ToTime(arrow.Microsecond)))
	assert.Equal(t, "us", arrow.Microsecond.String())
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "LIST", arrow.LIST.String())
	assert.Equal(t, "LARGE_LIST", arrow.LARGE_LIST.String())
	assert.Equal(t, "Type(99)", arrow.Type(99).String())
}
