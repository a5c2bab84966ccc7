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

package compress

import (
	"github.com/pierrec/lz4/v4"
)

type lz4Codec struct{}

// EncodeLevel uses the high compression block compressor for any level
// other than the default.
func (c lz4Codec) EncodeLevel(dst, src []byte, level int) []byte {
	if level == DefaultCompressionLevel {
		return c.Encode(dst, src)
	}

	dst = c.dest(dst, src)
	var hc lz4.CompressorHC
	n, err := hc.CompressBlock(src, dst[:cap(dst)])
	if err != nil {
		panic(err)
	}
	return dst[:n]
}

func (c lz4Codec) Encode(dst, src []byte) []byte {
	dst = c.dest(dst, src)
	var comp lz4.Compressor
	n, err := comp.CompressBlock(src, dst[:cap(dst)])
	if err != nil {
		panic(err)
	}
	return dst[:n]
}

func (c lz4Codec) dest(dst, src []byte) []byte {
	if bound := int(c.CompressBound(int64(len(src)))); cap(dst) < bound {
		return make([]byte, 0, bound)
	}
	return dst
}

func (lz4Codec) Decode(dst, src []byte) []byte {
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		panic(err)
	}
	return dst[:n]
}

func (lz4Codec) CompressBound(len int64) int64 {
	return int64(lz4.CompressBlockBound(int(len)))
}

func init() {
	codecs[Codecs.Lz4] = lz4Codec{}
}
