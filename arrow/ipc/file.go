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
	"io"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/bitutil"
	"golang.org/x/xerrors"
)

// fileBlock locates one batch message inside a file.
type fileBlock struct {
	Offset int64
	Meta   int32
	Body   int64
}

// footer is the decoded form of a flatbuf.Footer.
type footer struct {
	Version int
	Field   arrow.Field
	Blocks  []fileBlock
}

// paddedMagic is Magic padded to 8 bytes, as written at the start of a file.
var paddedMagic = append(append([]byte{}, Magic...), make([]byte, bitutil.CeilByte(len(Magic))-len(Magic))...)

type countingWriter struct {
	w   io.Writer
	pos int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}

// FileWriter is an Arrow file writer.
type FileWriter struct {
	w      *countingWriter
	bw     *batchWriter
	blocks []fileBlock
	closed bool
}

// NewFileWriter opens an Arrow file using the provided writer w.
func NewFileWriter(w io.Writer, opts ...Option) (*FileWriter, error) {
	cw := &countingWriter{w: w}
	bw, err := newBatchWriter(cw, newConfig(opts...))
	if err != nil {
		return nil, err
	}

	if _, err := cw.Write(paddedMagic); err != nil {
		return nil, xerrors.Errorf("arrow/ipc: could not write magic Arrow bytes: %w", err)
	}

	f := &FileWriter{w: cw, bw: bw}
	bw.onBatch = f.addBlock
	return f, nil
}

func (f *FileWriter) addBlock(meta int32, body int64) {
	offset := f.w.pos - int64(meta) - body
	f.blocks = append(f.blocks, fileBlock{Offset: offset, Meta: meta, Body: body})
}

// Write writes arr as one batch. The array is not retained.
func (f *FileWriter) Write(arr arrow.Array) error { return f.bw.write(arr) }

// Close writes the end-of-stream marker and the footer. It does not close
// the underlying writer.
func (f *FileWriter) Close() error {
	if f.closed {
		return nil
	}
	if err := f.bw.close(); err != nil {
		return err
	}
	f.closed = true

	if f.bw.field == nil {
		return xerrors.Errorf("arrow/ipc: %w: no field for empty file, use WithField", arrow.ErrInvalid)
	}
	buf, err := (&footer{Version: currentMetadataVersion, Field: *f.bw.field, Blocks: f.blocks}).encode()
	if err != nil {
		return xerrors.Errorf("arrow/ipc: could not encode footer: %w", err)
	}

	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(buf)))
	for _, b := range [][]byte{buf, size[:], Magic} {
		if _, err := f.w.Write(b); err != nil {
			return xerrors.Errorf("arrow/ipc: could not write footer: %w", err)
		}
	}
	return nil
}

// FileReader is an Arrow file reader.
type FileReader struct {
	r      ReadAtSeeker
	cfg    *config
	field  arrow.Field
	blocks []fileBlock

	irec int
	cur  arrow.Array
}

// NewFileReader opens an Arrow file using the provided reader r.
func NewFileReader(r ReadAtSeeker, opts ...Option) (*FileReader, error) {
	cfg := newConfig(opts...)

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, xerrors.Errorf("arrow/ipc: could not retrieve file size: %w", err)
	}
	trailer := int64(len(Magic) + 4)
	if size < int64(len(paddedMagic))+trailer {
		return nil, errNotArrowFile
	}

	head := make([]byte, len(paddedMagic))
	if err := readAt(r, head, 0); err != nil {
		return nil, err
	}
	tail := make([]byte, trailer)
	if err := readAt(r, tail, size-trailer); err != nil {
		return nil, err
	}
	if string(head[:len(Magic)]) != string(Magic) || string(tail[4:]) != string(Magic) {
		return nil, errNotArrowFile
	}

	flen := int64(int32(binary.LittleEndian.Uint32(tail[:4])))
	if flen <= 0 || flen > size-trailer-int64(len(paddedMagic)) {
		return nil, errInconsistentFileMetadata
	}
	buf := make([]byte, flen)
	if err := readAt(r, buf, size-trailer-flen); err != nil {
		return nil, err
	}

	ft, err := decodeFooter(buf)
	if err != nil {
		return nil, err
	}
	field := ft.Field
	if cfg.field != nil && !arrow.TypeEqual(cfg.field.Type, field.Type) {
		return nil, xerrors.Errorf("arrow/ipc: %w: inconsistent field (got=%s, want=%s)", arrow.ErrType, field.Type, cfg.field.Type)
	}

	return &FileReader{r: r, cfg: cfg, field: field, blocks: ft.Blocks}, nil
}

func readAt(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if err == io.EOF && n == len(buf) {
		err = nil
	}
	if err != nil {
		return xerrors.Errorf("arrow/ipc: could not read %d bytes at offset %d: %w", len(buf), off, unexpectedEOF(err))
	}
	return nil
}

// Field returns the field of the arrays in the file.
func (f *FileReader) Field() arrow.Field { return f.field }

// NumArrays returns the number of arrays in the file.
func (f *FileReader) NumArrays() int { return len(f.blocks) }

// Array returns the i-th array from the file. The returned array is owned
// by the caller and must be released.
func (f *FileReader) Array(i int) (arrow.Array, error) {
	if i < 0 || i >= len(f.blocks) {
		return nil, xerrors.Errorf("arrow/ipc: %w: array index %d not in [0, %d)", arrow.ErrIndex, i, len(f.blocks))
	}

	blk := f.blocks[i]
	if blk.Offset < 0 || blk.Meta <= 0 || blk.Body < 0 {
		return nil, xerrors.Errorf("arrow/ipc: %w: invalid block %d (offset=%d, meta=%d, body=%d)",
			arrow.ErrInvalid, i, blk.Offset, blk.Meta, blk.Body)
	}
	sr := io.NewSectionReader(f.r, blk.Offset, int64(blk.Meta)+blk.Body)
	msg, err := readMessage(sr, f.cfg.alloc)
	if err != nil {
		if err == io.EOF {
			err = xerrors.Errorf("arrow/ipc: %w: block %d holds no message", arrow.ErrInvalid, i)
		}
		return nil, xerrors.Errorf("arrow/ipc: could not read array %d: %w", i, err)
	}
	defer msg.Release()

	return loadArray(f.cfg, f.field, msg)
}

// Read reads the next array from the file. The array is owned by the reader
// and is valid until the next call to Read or Close. Read returns io.EOF
// after the last array.
func (f *FileReader) Read() (arrow.Array, error) {
	if f.cur != nil {
		f.cur.Release()
		f.cur = nil
	}
	if f.irec >= len(f.blocks) {
		return nil, io.EOF
	}

	arr, err := f.Array(f.irec)
	if err != nil {
		return nil, err
	}
	f.irec++
	f.cur = arr
	return arr, nil
}

// Close releases the array returned by the last call to Read. It does not
// close the underlying reader.
func (f *FileReader) Close() error {
	if f.cur != nil {
		f.cur.Release()
		f.cur = nil
	}
	return nil
}
