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
	"bytes"
	"io"
)

// streamCodec adapts a streaming compression format to the block Codec
// interface by running a whole block through one writer or reader.
type streamCodec struct {
	defaultLevel int
	bound        func(n int64) int64
	newWriter    func(w io.Writer, level int) (io.WriteCloser, error)
	newReader    func(r io.Reader) (io.Reader, error)
}

func (c streamCodec) Encode(dst, src []byte) []byte {
	return c.EncodeLevel(dst, src, DefaultCompressionLevel)
}

func (c streamCodec) EncodeLevel(dst, src []byte, level int) []byte {
	if level == DefaultCompressionLevel {
		level = c.defaultLevel
	}
	if need := int(c.bound(int64(len(src)))); cap(dst) < need {
		dst = make([]byte, 0, need)
	}

	buf := bytes.NewBuffer(dst[:0])
	w, err := c.newWriter(buf, level)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write(src); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func (c streamCodec) CompressBound(n int64) int64 { return c.bound(n) }

// Decode reads at most len(dst) bytes into dst. A nil dst is grown to fit
// the whole block.
func (c streamCodec) Decode(dst, src []byte) []byte {
	r, err := c.newReader(bytes.NewReader(src))
	if err != nil {
		panic(err)
	}

	if dst == nil {
		out, err := io.ReadAll(r)
		if err != nil {
			panic(err)
		}
		return out
	}

	n, err := io.ReadFull(r, dst)
	switch err {
	case nil, io.EOF, io.ErrUnexpectedEOF:
	default:
		panic(err)
	}
	return dst[:n]
}
