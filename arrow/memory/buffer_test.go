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

package memory_test

import (
	"fmt"
	"testing"

	"github.com/apache/arrow/go/lists/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizableBufferLifetime(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	buf := memory.NewResizableBuffer(mem)
	buf.Retain()

	buf.Resize(10)
	assert.Len(t, buf.Bytes(), 10)
	assert.Equal(t, 64, buf.Cap())
	assert.Equal(t, 64, mem.CurrentAlloc())

	buf.Release()
	assert.NotNil(t, buf.Bytes())

	buf.Release()
	assert.Nil(t, buf.Bytes())
	assert.Zero(t, buf.Len())
}

func TestBufferShrink(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	buf := memory.NewResizableBuffer(mem)
	defer buf.Release()

	buf.Resize(500)
	assert.Equal(t, 512, mem.CurrentAlloc())

	buf.ResizeNoShrink(100)
	assert.Equal(t, 100, buf.Len())
	assert.Equal(t, 512, mem.CurrentAlloc())

	buf.Resize(100)
	assert.Equal(t, 128, mem.CurrentAlloc())

	buf.Resize(0)
	assert.Zero(t, mem.CurrentAlloc())
}

func TestSliceBufferKeepsParentAlive(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	buf := memory.NewResizableBuffer(mem)
	buf.Resize(1024)
	for i := range buf.Bytes() {
		buf.Bytes()[i] = byte(i)
	}

	slice := memory.SliceBuffer(buf, 512, 256)
	buf.Release()
	require.Equal(t, 1024, mem.CurrentAlloc())
	assert.Equal(t, byte(0), slice.Bytes()[0])
	assert.Equal(t, 256, slice.Len())
	assert.Same(t, buf, slice.Parent())

	slice.Release()
	assert.Zero(t, mem.CurrentAlloc())
}

func TestNewBufferBytesIsNotOwned(t *testing.T) {
	data := []byte("hello")
	buf := memory.NewBufferBytes(data)
	buf.Retain()
	buf.Release()
	buf.Release()
	assert.Equal(t, data, buf.Bytes())
}

type recordingT struct{ errs []string }

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

func (*recordingT) Helper() {}

func TestCheckedAllocatorReportsLeaks(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)

	b := mem.Allocate(100)
	b = mem.Reallocate(200, b)
	assert.Equal(t, 200, mem.CurrentAlloc())

	var rec recordingT
	mem.AssertSize(&rec, 0)
	require.Len(t, rec.errs, 1)
	assert.Contains(t, rec.errs[0], "exp=0, got=200")
	assert.Contains(t, rec.errs[0], "200 bytes from")
	assert.Contains(t, rec.errs[0], "TestCheckedAllocatorReportsLeaks")

	mem.Free(b)
	mem.AssertSize(t, 0)
}
