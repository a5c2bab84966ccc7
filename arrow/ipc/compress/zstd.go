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
	"sync"

	"github.com/klauspost/compress/zstd"
)

type zstdCodec struct{}

var (
	zstdDecoder     *zstd.Decoder
	initZstdDecoder sync.Once

	// zstdEncoders holds one shared encoder per zstd.EncoderLevel.
	zstdEncoders sync.Map
)

func decoder() *zstd.Decoder {
	initZstdDecoder.Do(func() {
		zstdDecoder, _ = zstd.NewReader(nil)
	})
	return zstdDecoder
}

func encoder(level int) *zstd.Encoder {
	lvl := zstd.SpeedDefault
	if level != DefaultCompressionLevel {
		lvl = zstd.EncoderLevelFromZstd(level)
	}
	if enc, ok := zstdEncoders.Load(lvl); ok {
		return enc.(*zstd.Encoder)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithZeroFrames(true), zstd.WithEncoderLevel(lvl))
	if err != nil {
		panic(err)
	}
	actual, loaded := zstdEncoders.LoadOrStore(lvl, enc)
	if loaded {
		enc.Close()
	}
	return actual.(*zstd.Encoder)
}

func (zstdCodec) Encode(dst, src []byte) []byte {
	return encoder(DefaultCompressionLevel).EncodeAll(src, dst[:0])
}

func (zstdCodec) EncodeLevel(dst, src []byte, level int) []byte {
	return encoder(level).EncodeAll(src, dst[:0])
}

func (zstdCodec) Decode(dst, src []byte) []byte {
	out, err := decoder().DecodeAll(src, dst[:0])
	if err != nil {
		panic(err)
	}
	return out
}

// CompressBound is ZSTD_COMPRESSBOUND from zstd.h.
func (zstdCodec) CompressBound(n int64) int64 {
	const smallBlock = 128 << 10
	bound := n + n>>8
	if n < smallBlock {
		bound += (smallBlock - n) >> 11
	}
	return bound
}

func init() {
	codecs[Codecs.Zstd] = zstdCodec{}
}
