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
	"bytes"

	"github.com/apache/arrow/go/lists/arrow"
)

// Equal reports whether both arrays have the same type, length, validity
// and valid values. Null slots are not compared, so two null lists are equal
// whatever their offsets.
func Equal(left, right arrow.Array) bool {
	switch {
	case !arrow.TypeEqual(left.DataType(), right.DataType()):
		return false
	case left.Len() != right.Len():
		return false
	case left.NullN() != right.NullN():
		return false
	}

	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) != right.IsNull(i) {
			return false
		}
	}

	switch l := left.(type) {
	case *Null:
		return true
	case *Boolean:
		r := right.(*Boolean)
		return validEqual(l, func(i int) bool { return l.Value(i) == r.Value(i) })
	case *Int32:
		return numericEqual(&l.numeric, &right.(*Int32).numeric)
	case *Int64:
		return numericEqual(&l.numeric, &right.(*Int64).numeric)
	case *Float64:
		return numericEqual(&l.numeric, &right.(*Float64).numeric)
	case *Timestamp:
		return numericEqual(&l.numeric, &right.(*Timestamp).numeric)
	case *String:
		r := right.(*String)
		return validEqual(l, func(i int) bool { return l.Value(i) == r.Value(i) })
	case *Binary:
		r := right.(*Binary)
		return validEqual(l, func(i int) bool { return bytes.Equal(l.Value(i), r.Value(i)) })
	case ListLike:
		return listEqual(l, right.(ListLike))
	}
	return false
}

func validEqual(arr arrow.Array, eq func(i int) bool) bool {
	for i := 0; i < arr.Len(); i++ {
		if arr.IsValid(i) && !eq(i) {
			return false
		}
	}
	return true
}

func numericEqual[T arrow.FixedWidthType](l, r *numeric[T]) bool {
	return validEqual(l, func(i int) bool { return l.Value(i) == r.Value(i) })
}

func listEqual(l, r ListLike) bool {
	return validEqual(l, func(i int) bool {
		lv, _ := l.Value(int64(i))
		defer lv.Release()
		rv, _ := r.Value(int64(i))
		defer rv.Release()
		return Equal(lv, rv)
	})
}
