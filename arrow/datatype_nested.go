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

package arrow

import (
	"fmt"
	"strings"
)

// Field describes a named, possibly nullable, value of some DataType.
type Field struct {
	Name     string   // Field name
	Type     DataType // The field's data type
	Nullable bool     // Fields can be nullable
}

func (f Field) Equal(o Field) bool {
	switch {
	case f.Name != o.Name:
		return false
	case f.Nullable != o.Nullable:
		return false
	case !TypeEqual(f.Type, o.Type):
		return false
	}
	return true
}

func (f Field) String() string {
	var o strings.Builder
	nullable := ""
	if f.Nullable {
		nullable = ", nullable"
	}
	fmt.Fprintf(&o, "%s: type=%v%v", f.Name, f.Type, nullable)
	return o.String()
}

// ListLikeType is implemented by the list types that store variable-length
// lists through an offsets buffer.
type ListLikeType interface {
	NestedType
	Elem() DataType
	ElemField() Field
	// OffsetBytes reports the width of a single offset in bytes.
	OffsetBytes() int
}

// ListType describes a nested type in which each array slot contains
// a variable-size sequence of values, all having the same relative type.
type ListType struct {
	elem Field
}

// ListOfField returns the list type whose element is described by f.
func ListOfField(f Field) *ListType {
	if f.Type == nil {
		panic("arrow: nil type for list field")
	}
	return &ListType{elem: f}
}

// ListOf returns the list type with element type t.
// For example, if t represents int32, ListOf(t) represents []int32.
//
// ListOf panics if t is nil or invalid. NullableElem defaults to true
func ListOf(t DataType) *ListType {
	if t == nil {
		panic("arrow: nil DataType")
	}
	return &ListType{elem: Field{Name: "item", Type: t, Nullable: true}}
}

// ListOfNonNullable is like ListOf but NullableElem defaults to false, indicating
// that the child type should be marked as non-nullable.
func ListOfNonNullable(t DataType) *ListType {
	if t == nil {
		panic("arrow: nil DataType")
	}
	return &ListType{elem: Field{Name: "item", Type: t, Nullable: false}}
}

func (*ListType) ID() Type     { return LIST }
func (*ListType) Name() string { return "list" }

func (t *ListType) String() string { return listTypeString(t.Name(), t.elem) }

func (t *ListType) Fingerprint() string { return listFingerprint(t, t.elem) }

// Elem returns the ListType's element type.
func (t *ListType) Elem() DataType { return t.elem.Type }

func (t *ListType) ElemField() Field { return t.elem }

func (t *ListType) Fields() []Field { return []Field{t.elem} }

func (*ListType) OffsetBytes() int { return Int32SizeBytes }

// LargeListType is like ListType but uses 64-bit offsets, so a single
// array may reference more than 2^31-1 child values.
type LargeListType struct {
	elem Field
}

func LargeListOfField(f Field) *LargeListType {
	if f.Type == nil {
		panic("arrow: nil type for list field")
	}
	return &LargeListType{elem: f}
}

// LargeListOf returns the large list type with element type t.
//
// LargeListOf panics if t is nil. NullableElem defaults to true
func LargeListOf(t DataType) *LargeListType {
	if t == nil {
		panic("arrow: nil DataType")
	}
	return &LargeListType{elem: Field{Name: "item", Type: t, Nullable: true}}
}

func (*LargeListType) ID() Type     { return LARGE_LIST }
func (*LargeListType) Name() string { return "large_list" }

func (t *LargeListType) String() string      { return listTypeString(t.Name(), t.elem) }
func (t *LargeListType) Fingerprint() string { return listFingerprint(t, t.elem) }
func (t *LargeListType) Elem() DataType      { return t.elem.Type }
func (t *LargeListType) ElemField() Field    { return t.elem }
func (t *LargeListType) Fields() []Field     { return []Field{t.elem} }
func (*LargeListType) OffsetBytes() int      { return Int64SizeBytes }

func listTypeString(name string, elem Field) string {
	if elem.Nullable {
		return fmt.Sprintf("%s<%s: %s, nullable>", name, elem.Name, elem.Type)
	}
	return fmt.Sprintf("%s<%s: %s>", name, elem.Name, elem.Type)
}

func listFingerprint(t DataType, elem Field) string {
	child := elem.Type.Fingerprint()
	if len(child) == 0 {
		return ""
	}
	if elem.Nullable {
		return typeFingerprint(t) + "{" + child + "}n"
	}
	return typeFingerprint(t) + "{" + child + "}"
}

var (
	_ ListLikeType = (*ListType)(nil)
	_ ListLikeType = (*LargeListType)(nil)
)
