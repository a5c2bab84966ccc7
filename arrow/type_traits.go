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
	"unsafe"

	"golang.org/x/exp/constraints"
)

const (
	Int32SizeBytes   = int(unsafe.Sizeof(int32(0)))
	Int64SizeBytes   = int(unsafe.Sizeof(int64(0)))
	Float64SizeBytes = int(unsafe.Sizeof(float64(0)))
)

// FixedWidthType is the set of Go value types that are stored in Arrow
// buffers as plain little-endian values.
type FixedWidthType interface {
	constraints.Integer | constraints.Float
}

// OffsetType is the set of integer types used to encode list offsets.
type OffsetType interface {
	int32 | int64
}

// GetData reinterprets the bytes of in as a slice of T without copying.
func GetData[T FixedWidthType](in []byte) []T {
	var z T
	if len(in) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&in[0])), len(in)/int(unsafe.Sizeof(z)))
}

// GetBytes reinterprets in as its raw bytes without copying.
func GetBytes[T FixedWidthType](in []T) []byte {
	var z T
	if len(in) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&in[0])), len(in)*int(unsafe.Sizeof(z)))
}

// BytesRequired returns the number of bytes needed to hold n values of T.
func BytesRequired[T FixedWidthType](n int) int {
	var z T
	return int(unsafe.Sizeof(z)) * n
}
