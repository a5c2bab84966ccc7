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

package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/bitutil"
	"github.com/apache/arrow/go/lists/arrow/internal/debug"
	"github.com/apache/arrow/go/lists/arrow/ipc/compress"
	"github.com/apache/arrow/go/lists/arrow/memory"
	"github.com/zeebo/xxh3"
	"golang.org/x/xerrors"
)

// continuationMarker precedes the metadata length of every message.
const continuationMarker = 0xFFFFFFFF

// MessageType represents the type of Message in an Arrow stream.
type MessageType int8

const (
	MessageNone MessageType = iota
	MessageSchema
	MessageBatch
)

var messageTypeNames = [...]string{
	MessageNone:   "none",
	MessageSchema: "schema",
	MessageBatch:  "batch",
}

func (m MessageType) String() string {
	if m >= 0 && int(m) < len(messageTypeNames) {
		return messageTypeNames[m]
	}
	return fmt.Sprintf("MessageType(%d)", int(m))
}

func (m MessageType) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(messageTypeNames) {
		return nil, xerrors.Errorf("arrow/ipc: %w: unknown message type %d", arrow.ErrInvalid, int(m))
	}
	return []byte(messageTypeNames[m]), nil
}

func (m *MessageType) UnmarshalText(text []byte) error {
	for i, name := range messageTypeNames {
		if name == string(text) {
			*m = MessageType(i)
			return nil
		}
	}
	return xerrors.Errorf("arrow/ipc: %w: unknown message type %q", arrow.ErrInvalid, text)
}

// fieldNode describes one array of a batch, in pre-order.
type fieldNode struct {
	Length int64
	Nulls  int64
}

// bufferSpec locates one buffer inside a message body. A zero length
// marks an absent buffer.
type bufferSpec struct {
	Offset int64
	Length int64
}

// messageHeader is the decoded form of a flatbuf.Message.
type messageHeader struct {
	Version  int
	Type     MessageType
	Field    *arrow.Field
	Nodes    []fieldNode
	Buffers  []bufferSpec
	Codec    compress.Compression
	BodyLen  int64
	Checksum uint64
}

// Message is an IPC message, including metadata and body.
type Message struct {
	refCount int64
	header   *messageHeader
	body     *memory.Buffer
}

func newMessage(hdr *messageHeader, body *memory.Buffer) *Message {
	if body != nil {
		body.Retain()
	}
	return &Message{refCount: 1, header: hdr, body: body}
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (msg *Message) Retain() {
	atomic.AddInt64(&msg.refCount, 1)
}

// Release decreases the reference count by 1.
// Release may be called simultaneously from multiple goroutines.
// When the reference count goes to zero, the memory is freed.
func (msg *Message) Release() {
	debug.Assert(atomic.LoadInt64(&msg.refCount) > 0, "too many releases")

	if atomic.AddInt64(&msg.refCount, -1) == 0 {
		if msg.body != nil {
			msg.body.Release()
		}
		msg.header, msg.body = nil, nil
	}
}

func (msg *Message) Version() int      { return msg.header.Version }
func (msg *Message) Type() MessageType { return msg.header.Type }
func (msg *Message) BodyLen() int64    { return msg.header.BodyLen }

// MessageReader reads messages from a stream.
type MessageReader struct {
	r   io.Reader
	mem memory.Allocator
	msg *Message
}

// NewMessageReader returns a reader that reads messages from an input stream.
func NewMessageReader(r io.Reader, opts ...Option) *MessageReader {
	cfg := newConfig(opts...)
	return &MessageReader{r: r, mem: cfg.alloc}
}

// Message returns the current message that has been extracted from the
// underlying stream. It is valid until the next call to Message.
// Message returns io.EOF once the end-of-stream marker is reached.
func (r *MessageReader) Message() (*Message, error) {
	if r.msg != nil {
		r.msg.Release()
		r.msg = nil
	}

	msg, err := readMessage(r.r, r.mem)
	if err != nil {
		return nil, err
	}
	r.msg = msg
	return msg, nil
}

// Release releases the current message, if any.
func (r *MessageReader) Release() {
	if r.msg != nil {
		r.msg.Release()
		r.msg = nil
	}
}

// readMessage reads one framed message. It returns io.EOF at the
// end-of-stream marker or at a clean end of input.
func readMessage(r io.Reader, mem memory.Allocator) (*Message, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, xerrors.Errorf("arrow/ipc: could not read continuation marker: %w", err)
		}
		return nil, err
	}
	if marker := binary.LittleEndian.Uint32(buf[:]); marker != continuationMarker {
		return nil, xerrors.Errorf("arrow/ipc: %w: invalid continuation marker 0x%x", arrow.ErrInvalid, marker)
	}

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, xerrors.Errorf("arrow/ipc: could not read message length: %w", unexpectedEOF(err))
	}
	msgLen := int32(binary.LittleEndian.Uint32(buf[:]))
	switch {
	case msgLen == 0:
		return nil, io.EOF
	case msgLen < 0:
		return nil, xerrors.Errorf("arrow/ipc: %w: negative message length %d", arrow.ErrInvalid, msgLen)
	}

	meta, err := io.ReadAll(io.LimitReader(r, int64(msgLen)))
	if err == nil && len(meta) < int(msgLen) {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, xerrors.Errorf("arrow/ipc: could not read message metadata: %w", err)
	}

	hdr, err := decodeHeader(meta)
	if err != nil {
		return nil, err
	}
	if hdr.BodyLen < 0 {
		return nil, xerrors.Errorf("arrow/ipc: %w: negative body length %d", arrow.ErrInvalid, hdr.BodyLen)
	}

	body, err := readBody(r, mem, hdr.BodyLen)
	if err != nil {
		return nil, xerrors.Errorf("arrow/ipc: could not read message body: %w", err)
	}
	defer body.Release()
	if sum := xxh3.Hash(body.Bytes()); sum != hdr.Checksum {
		return nil, xerrors.Errorf("arrow/ipc: %w: body checksum mismatch (got=%x, want=%x)", arrow.ErrInvalid, sum, hdr.Checksum)
	}

	return newMessage(hdr, body), nil
}

// readBody reads n bytes into a buffer that grows with the data read, so a
// forged body length fails on the short input rather than on allocation.
func readBody(r io.Reader, mem memory.Allocator, n int64) (*memory.Buffer, error) {
	const minChunk = 1 << 16

	body := memory.NewResizableBuffer(mem)
	var got int64
	for got < n {
		step := n - got
		if grow := max(got, minChunk); step > grow {
			step = grow
		}
		body.Resize(int(got + step))
		if _, err := io.ReadFull(r, body.Bytes()[got:]); err != nil {
			body.Release()
			return nil, unexpectedEOF(err)
		}
		got += step
	}
	return body, nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// writeMessage frames hdr followed by body. It returns the number of bytes
// taken by the framed metadata and by the body.
func writeMessage(w io.Writer, hdr *messageHeader, body []byte) (int32, int64, error) {
	hdr.Version = currentMetadataVersion
	hdr.BodyLen = int64(len(body))
	hdr.Checksum = xxh3.Hash(body)

	meta, err := hdr.encode()
	if err != nil {
		return 0, 0, xerrors.Errorf("arrow/ipc: could not encode message metadata: %w", err)
	}
	if pad := bitutil.CeilByte(len(meta)) - len(meta); pad > 0 {
		meta = append(meta, make([]byte, pad)...)
	}

	var prefix [8]byte
	binary.LittleEndian.PutUint32(prefix[:4], continuationMarker)
	binary.LittleEndian.PutUint32(prefix[4:], uint32(len(meta)))

	for _, b := range [][]byte{prefix[:], meta, body} {
		if _, err := w.Write(b); err != nil {
			return 0, 0, xerrors.Errorf("arrow/ipc: could not write message: %w", err)
		}
	}
	return int32(len(prefix) + len(meta)), int64(len(body)), nil
}

// writeEOS writes the end-of-stream marker.
func writeEOS(w io.Writer) error {
	var eos [8]byte
	binary.LittleEndian.PutUint32(eos[:4], continuationMarker)
	if _, err := w.Write(eos[:]); err != nil {
		return xerrors.Errorf("arrow/ipc: could not write end-of-stream: %w", err)
	}
	return nil
}
