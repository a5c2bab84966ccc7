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
	"io"

	"github.com/andybalholm/brotli"
)

// brotliBound follows BrotliEncoderMaxCompressedSize: window bits, 4 bytes
// of metablock header per 16KiB and a final empty metablock.
func brotliBound(n int64) int64 {
	if n == 0 {
		return 2
	}
	return n + 2 + 4*(n>>14) + 3 + 1
}

func init() {
	codecs[Codecs.Brotli] = streamCodec{
		defaultLevel: brotli.DefaultCompression,
		bound:        brotliBound,
		newWriter: func(w io.Writer, level int) (io.WriteCloser, error) {
			return brotli.NewWriterLevel(w, level), nil
		},
		newReader: func(r io.Reader) (io.Reader, error) {
			return brotli.NewReader(r), nil
		},
	}
}
