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

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestGoAllocatorAlignment(t *testing.T) {
	for _, sz := range []int{1, 33, 64, 65, 4097, 8192} {
		a := NewGoAllocator()
		buf := a.Allocate(sz)
		assert.Zero(t, uintptr(unsafe.Pointer(&buf[0]))%alignment)
		assert.Equal(t, sz, len(buf))
		assert.Equal(t, sz, cap(buf))
	}
}

func TestGoAllocatorReallocateCopies(t *testing.T) {
	a := NewGoAllocator()
	buf := a.Allocate(200)
	for i := range buf {
		buf[i] = byte(i)
	}

	exp := make([]byte, 100)
	copy(exp, buf)
	assert.Equal(t, exp, a.Reallocate(100, buf))
	assert.Len(t, a.Reallocate(300, buf), 300)
}

func TestRoundUpToMultipleOf64(t *testing.T) {
	assert.Equal(t, 0, roundUpToMultipleOf64(0))
	assert.Equal(t, 64, roundUpToMultipleOf64(1))
	assert.Equal(t, 64, roundUpToMultipleOf64(64))
	assert.Equal(t, 128, roundUpToMultipleOf64(65))
}
