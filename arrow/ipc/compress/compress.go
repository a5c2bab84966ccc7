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

// Package compress provides the block codecs used to compress the buffers
// of IPC message bodies.
package compress

import (
	"compress/flate"
	"fmt"
	"strings"

	"github.com/apache/arrow/go/lists/arrow"
)

// Compression identifies the codec applied to a message body.
type Compression int8

// DefaultCompressionLevel will use flate.DefaultCompression since many of the compression libraries
// use that to denote "use the default".
const DefaultCompressionLevel = flate.DefaultCompression

// Codecs is a useful struct to provide namespaced enum values to use for specifying the compression type to use.
var Codecs = struct {
	Uncompressed Compression
	Snappy       Compression
	Gzip         Compression
	Brotli       Compression
	Lz4          Compression
	Zstd         Compression
}{
	Uncompressed: 0,
	Snappy:       1,
	Gzip:         2,
	Brotli:       3,
	Lz4:          4,
	Zstd:         5,
}

var compressionNames = [...]string{
	"UNCOMPRESSED",
	"SNAPPY",
	"GZIP",
	"BROTLI",
	"LZ4",
	"ZSTD",
}

func (c Compression) String() string {
	if c < 0 || int(c) >= len(compressionNames) {
		return fmt.Sprintf("Compression(%d)", int8(c))
	}
	return compressionNames[c]
}

// ParseCompression returns the Compression named s, ignoring case.
func ParseCompression(s string) (Compression, error) {
	for i, name := range compressionNames {
		if strings.EqualFold(s, name) {
			return Compression(i), nil
		}
	}
	return Codecs.Uncompressed, fmt.Errorf("%w: unknown compression %q", arrow.ErrInvalid, s)
}

func (c Compression) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Compression) UnmarshalText(b []byte) (err error) {
	*c, err = ParseCompression(string(b))
	return
}

// Codec is an interface which is implemented for each compression type in order to make the interactions easy to
// implement. Most consumers won't be calling GetCodec directly.
type Codec interface {
	// Encode encodes a block of data given by src and returns the compressed block. dst needs to be either nil
	// or sized large enough to fit the compressed block (use CompressBound to allocate). dst and src should not
	// overlap since some of the compression types don't allow it.
	//
	// The returned slice *might* be a slice of dst if it was able to fit the whole compressed data in it.
	Encode(dst, src []byte) []byte
	// EncodeLevel is like Encode, but specifies a particular encoding level instead of the default.
	EncodeLevel(dst, src []byte, level int) []byte
	// CompressBound returns the boundary of maximum size of compressed data under the chosen codec.
	CompressBound(int64) int64
	// Decode is for decoding a single block rather than a stream, like with Encode, dst must be either nil or
	// sized large enough to accommodate the uncompressed data and should not overlap with src.
	//
	// the returned slice *might* be a slice of dst.
	Decode(dst, src []byte) []byte
}

var codecs = map[Compression]Codec{}

type nocodec struct{}

func (nocodec) Decode(dst, src []byte) []byte {
	if cap(dst) < len(src) {
		return append([]byte(nil), src...)
	}
	dst = dst[:len(src)]
	copy(dst, src)
	return dst
}

func (nocodec) Encode(dst, src []byte) []byte {
	if cap(dst) < len(src) {
		dst = make([]byte, len(src))
	}
	dst = dst[:len(src)]
	copy(dst, src)
	return dst
}

func (n nocodec) EncodeLevel(dst, src []byte, _ int) []byte {
	return n.Encode(dst, src)
}

func (nocodec) CompressBound(len int64) int64 { return len }

func init() {
	codecs[Codecs.Uncompressed] = nocodec{}
}

// GetCodec returns a Codec interface for the requested Compression type
func GetCodec(typ Compression) (Codec, error) {
	ret, ok := codecs[typ]
	if !ok {
		return nil, fmt.Errorf("%w: compression for %s", arrow.ErrNotImplemented, typ)
	}
	return ret, nil
}
