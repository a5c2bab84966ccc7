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
package memory

import "unsafe"

// GoAllocator is an Allocator backed by the Go runtime. Allocations start on
// a 64-byte boundary and are reclaimed by the garbage collector, so Free is
// a no-op.
type GoAllocator struct{}

func NewGoAllocator() *GoAllocator { return &GoAllocator{} }

func (a *GoAllocator) Allocate(size int) []byte {
	raw := make([]byte, size+alignment)
	shift := int(-uintptr(unsafe.Pointer(&raw[0])) & (alignment - 1))
	return raw[shift : shift+size : shift+size]
}

func (a *GoAllocator) Reallocate(size int, b []byte) []byte {
	if size == len(b) {
		return b
	}
	out := a.Allocate(size)
	copy(out, b)
	return out
}

func (a *GoAllocator) Free([]byte) {}

var _ Allocator = (*GoAllocator)(nil)
