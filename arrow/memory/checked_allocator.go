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
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"
)

// CheckedAllocator wraps another Allocator and tracks every live allocation
// together with the code outside this package that requested it, so tests
// can assert that all buffers were released.
type CheckedAllocator struct {
	mem  Allocator
	size int64

	mu   sync.Mutex
	live map[*byte]allocSite
}

type allocSite struct {
	where string
	size  int
}

func NewCheckedAllocator(mem Allocator) *CheckedAllocator {
	return &CheckedAllocator{mem: mem, live: make(map[*byte]allocSite)}
}

// CurrentAlloc returns the number of bytes currently allocated.
func (a *CheckedAllocator) CurrentAlloc() int { return int(atomic.LoadInt64(&a.size)) }

func (a *CheckedAllocator) Allocate(size int) []byte {
	out := a.mem.Allocate(size)
	atomic.AddInt64(&a.size, int64(size))
	a.track(nil, out)
	return out
}

func (a *CheckedAllocator) Reallocate(size int, b []byte) []byte {
	out := a.mem.Reallocate(size, b)
	atomic.AddInt64(&a.size, int64(size-len(b)))
	a.track(b, out)
	return out
}

func (a *CheckedAllocator) Free(b []byte) {
	atomic.AddInt64(&a.size, -int64(len(b)))
	a.track(b, nil)
	a.mem.Free(b)
}

// track forgets old and records cur, either of which may be empty.
func (a *CheckedAllocator) track(old, cur []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(old) > 0 {
		delete(a.live, unsafe.SliceData(old))
	}
	if len(cur) > 0 {
		a.live[unsafe.SliceData(cur)] = allocSite{where: caller(), size: len(cur)}
	}
}

// caller names the first frame outside this package.
func caller() string {
	var pcs [16]uintptr
	frames := runtime.CallersFrames(pcs[:runtime.Callers(3, pcs[:])])
	for {
		f, more := frames.Next()
		if !strings.Contains(f.Function, "/arrow/memory.") {
			return fmt.Sprintf("%s:%d", f.Function, f.Line)
		}
		if !more {
			return "unknown"
		}
	}
}

type TestingT interface {
	Errorf(format string, args ...interface{})
	Helper()
}

// AssertSize fails t when the number of live bytes differs from sz, listing
// the allocations still outstanding.
func (a *CheckedAllocator) AssertSize(t TestingT, sz int) {
	t.Helper()

	cur := a.CurrentAlloc()
	if cur == sz {
		return
	}

	a.mu.Lock()
	leaks := make([]string, 0, len(a.live))
	for _, s := range a.live {
		leaks = append(leaks, fmt.Sprintf("%d bytes from %s", s.size, s.where))
	}
	a.mu.Unlock()
	sort.Strings(leaks)

	t.Errorf("invalid memory size exp=%d, got=%d\n%s", sz, cur, strings.Join(leaks, "\n"))
}

var _ Allocator = (*CheckedAllocator)(nil)
