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

// Package ipc reads and writes streams and files of arrays sharing a single
// field, the way Arrow IPC does for record batches.
//
// A stream is a sequence of framed messages: one schema message carrying the
// field, any number of batch messages each carrying one array, and an
// end-of-stream marker. A file wraps the same messages between magic bytes
// and adds a footer indexing the batches for random access.
package ipc

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/ipc/compress"
	"github.com/apache/arrow/go/lists/arrow/memory"
)

var (
	errNotArrowFile             = fmt.Errorf("arrow/ipc: %w: not an Arrow file", arrow.ErrInvalid)
	errInconsistentFileMetadata = fmt.Errorf("arrow/ipc: %w: file is smaller than indicated metadata size", arrow.ErrInvalid)
)

// Magic string identifying an Apache Arrow file.
var Magic = []byte("ARROW1")

type ReadAtSeeker interface {
	io.Reader
	io.Seeker
	io.ReaderAt
}

type config struct {
	alloc memory.Allocator
	field *arrow.Field
	codec compress.Compression
	level int

	maxBuffer int64
}

// DefaultMaxBufferSize is the largest decompressed buffer a reader accepts
// unless WithMaxBufferSize says otherwise.
const DefaultMaxBufferSize = 1 << 31

func newConfig(opts ...Option) *config {
	cfg := &config{
		alloc: memory.NewGoAllocator(),
		codec: compress.Codecs.Uncompressed,
		level: compress.DefaultCompressionLevel,

		maxBuffer: DefaultMaxBufferSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option is a functional option to configure opening or creating Arrow files
// and streams.
type Option func(*config)

// WithAllocator specifies the Arrow memory allocator used while reading arrays.
func WithAllocator(mem memory.Allocator) Option {
	return func(cfg *config) {
		cfg.alloc = mem
	}
}

// WithField specifies the field of the arrays written to a stream or file.
// Without it, the field is derived from the type of the first array written.
func WithField(f arrow.Field) Option {
	return func(cfg *config) {
		cfg.field = &f
	}
}

// WithCompression sets the codec applied to the buffers of written batches.
func WithCompression(c compress.Compression) Option {
	return func(cfg *config) {
		cfg.codec = c
	}
}

// WithCompressionLevel sets the level passed to the codec.
func WithCompressionLevel(level int) Option {
	return func(cfg *config) {
		cfg.level = level
	}
}

// WithMaxBufferSize bounds the size of a single decompressed buffer while
// reading. Batches announcing a larger buffer fail with arrow.ErrInvalid.
func WithMaxBufferSize(n int64) Option {
	return func(cfg *config) {
		cfg.maxBuffer = n
	}
}

// ArrayReader is the interface that wraps the Read method.
type ArrayReader interface {
	// Read returns the next array. The array is owned by the reader and is
	// only valid until the next call to Read. Read returns io.EOF at the end
	// of the input.
	Read() (arrow.Array, error)
}

// ArrayWriter is the interface that wraps the Write method.
type ArrayWriter interface {
	Write(arr arrow.Array) error
}

// Copy copies all the arrays available from src to dst.
// Copy returns the number of arrays copied and the first error
// encountered while copying, if any.
//
// A successful Copy returns err == nil, not err == EOF. Because Copy is
// defined to read from src until EOF, it does not treat an EOF from Read as an
// error to be reported.
func Copy(dst ArrayWriter, src ArrayReader) (n int64, err error) {
	for {
		arr, err := src.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}
		err = dst.Write(arr)
		if err != nil {
			return n, err
		}
		n++
	}
}
