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
	"fmt"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/internal/flatbuf"
	"github.com/apache/arrow/go/lists/arrow/ipc/compress"
	flatbuffers "github.com/google/flatbuffers/go"
)

// currentMetadataVersion is written in every message and footer. Readers
// reject any other version.
const currentMetadataVersion = 1

// kMaxNestingDepth is set arbitrarily to catch corrupt or hostile metadata.
const kMaxNestingDepth = 64

// typeDesc is the flat description of a data type stored in flatbuf.Type.
type typeDesc struct {
	Name      string
	Signed    bool
	BitWidth  int32
	Unit      string
	TimeZone  string
	Precision string
}

var timeUnitNames = map[arrow.TimeUnit]string{
	arrow.Second:      "SECOND",
	arrow.Millisecond: "MILLISECOND",
	arrow.Microsecond: "MICROSECOND",
	arrow.Nanosecond:  "NANOSECOND",
}

func describeType(dt arrow.DataType) (typeDesc, error) {
	switch dt := dt.(type) {
	case *arrow.NullType:
		return typeDesc{Name: "null"}, nil
	case *arrow.BooleanType:
		return typeDesc{Name: "bool"}, nil
	case *arrow.Int32Type:
		return typeDesc{Name: "int", Signed: true, BitWidth: 32}, nil
	case *arrow.Int64Type:
		return typeDesc{Name: "int", Signed: true, BitWidth: 64}, nil
	case *arrow.Float64Type:
		return typeDesc{Name: "floatingpoint", Precision: "DOUBLE"}, nil
	case *arrow.BinaryType:
		return typeDesc{Name: "binary"}, nil
	case *arrow.StringType:
		return typeDesc{Name: "utf8"}, nil
	case *arrow.TimestampType:
		if unit, ok := timeUnitNames[dt.Unit]; ok {
			return typeDesc{Name: "timestamp", Unit: unit, TimeZone: dt.TimeZone}, nil
		}
	case *arrow.ListType:
		return typeDesc{Name: "list"}, nil
	case *arrow.LargeListType:
		return typeDesc{Name: "largelist"}, nil
	}
	return typeDesc{}, fmt.Errorf("arrow/ipc: %w: unknown arrow.DataType %v", arrow.ErrNotImplemented, dt)
}

func typeFromFB(field *flatbuf.Field, depth int) (arrow.DataType, error) {
	fbt := field.Type(nil)
	if fbt == nil {
		return nil, fmt.Errorf("arrow/ipc: %w: field %q has no type", arrow.ErrInvalid, field.Name())
	}
	td := typeDesc{
		Name:      string(fbt.Name()),
		Signed:    fbt.IsSigned(),
		BitWidth:  fbt.BitWidth(),
		Unit:      string(fbt.Unit()),
		TimeZone:  string(fbt.Timezone()),
		Precision: string(fbt.Precision()),
	}

	switch td.Name {
	case "null":
		return arrow.Null, nil
	case "bool":
		return arrow.FixedWidthTypes.Boolean, nil
	case "int":
		switch {
		case td.Signed && td.BitWidth == 32:
			return arrow.PrimitiveTypes.Int32, nil
		case td.Signed && td.BitWidth == 64:
			return arrow.PrimitiveTypes.Int64, nil
		}
	case "floatingpoint":
		if td.Precision == "DOUBLE" {
			return arrow.PrimitiveTypes.Float64, nil
		}
	case "binary":
		return arrow.BinaryTypes.Binary, nil
	case "utf8":
		return arrow.BinaryTypes.String, nil
	case "timestamp":
		for unit, name := range timeUnitNames {
			if name == td.Unit {
				return &arrow.TimestampType{Unit: unit, TimeZone: td.TimeZone}, nil
			}
		}
	case "list", "largelist":
		if n := field.ChildrenLength(); n != 1 {
			return nil, fmt.Errorf("arrow/ipc: %w: %s type must have exactly one child, got %d", arrow.ErrInvalid, td.Name, n)
		}
		var child flatbuf.Field
		field.Children(&child, 0)
		elem, err := fieldFromFB(&child, depth+1)
		if err != nil {
			return nil, err
		}
		if td.Name == "list" {
			return arrow.ListOfField(elem), nil
		}
		return arrow.LargeListOfField(elem), nil
	}
	return nil, fmt.Errorf("arrow/ipc: %w: unknown DataType %+v", arrow.ErrInvalid, td)
}

func fieldFromFB(field *flatbuf.Field, depth int) (arrow.Field, error) {
	if depth > kMaxNestingDepth {
		return arrow.Field{}, fmt.Errorf("arrow/ipc: %w: type nesting deeper than %d", arrow.ErrInvalid, kMaxNestingDepth)
	}

	dt, err := typeFromFB(field, depth)
	if err != nil {
		return arrow.Field{}, err
	}
	return arrow.Field{Name: string(field.Name()), Type: dt, Nullable: field.Nullable()}, nil
}

func fieldToFB(b *flatbuffers.Builder, f arrow.Field) (flatbuffers.UOffsetT, error) {
	td, err := describeType(f.Type)
	if err != nil {
		return 0, err
	}

	var children []flatbuffers.UOffsetT
	if lt, ok := f.Type.(arrow.ListLikeType); ok {
		child, err := fieldToFB(b, lt.ElemField())
		if err != nil {
			return 0, err
		}
		children = append(children, child)
	}
	return buildField(b, f.Name, f.Nullable, td, children), nil
}

func buildField(b *flatbuffers.Builder, name string, nullable bool, td typeDesc, children []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	fbType := buildType(b, td)

	var kids flatbuffers.UOffsetT
	if len(children) > 0 {
		flatbuf.FieldStartChildrenVector(b, len(children))
		for i := len(children) - 1; i >= 0; i-- {
			b.PrependUOffsetT(children[i])
		}
		kids = b.EndVector(len(children))
	}
	fname := b.CreateString(name)

	flatbuf.FieldStart(b)
	flatbuf.FieldAddName(b, fname)
	flatbuf.FieldAddNullable(b, nullable)
	flatbuf.FieldAddType(b, fbType)
	if kids != 0 {
		flatbuf.FieldAddChildren(b, kids)
	}
	return flatbuf.FieldEnd(b)
}

func buildType(b *flatbuffers.Builder, td typeDesc) flatbuffers.UOffsetT {
	str := func(s string) flatbuffers.UOffsetT {
		if s == "" {
			return 0
		}
		return b.CreateString(s)
	}
	name, unit, tz, prec := b.CreateString(td.Name), str(td.Unit), str(td.TimeZone), str(td.Precision)

	flatbuf.TypeStart(b)
	flatbuf.TypeAddName(b, name)
	flatbuf.TypeAddIsSigned(b, td.Signed)
	flatbuf.TypeAddBitWidth(b, td.BitWidth)
	flatbuf.TypeAddUnit(b, unit)
	flatbuf.TypeAddTimezone(b, tz)
	flatbuf.TypeAddPrecision(b, prec)
	return flatbuf.TypeEnd(b)
}

// encode serializes hdr as a flatbuf.Message.
func (hdr *messageHeader) encode() ([]byte, error) {
	b := flatbuffers.NewBuilder(1024)

	var field flatbuffers.UOffsetT
	if hdr.Field != nil {
		var err error
		if field, err = fieldToFB(b, *hdr.Field); err != nil {
			return nil, err
		}
	}

	var nodes, buffers flatbuffers.UOffsetT
	if n := len(hdr.Nodes); n > 0 {
		flatbuf.MessageStartNodesVector(b, n)
		for i := n - 1; i >= 0; i-- {
			flatbuf.CreateFieldNode(b, hdr.Nodes[i].Length, hdr.Nodes[i].Nulls)
		}
		nodes = b.EndVector(n)
	}
	if n := len(hdr.Buffers); n > 0 {
		flatbuf.MessageStartBuffersVector(b, n)
		for i := n - 1; i >= 0; i-- {
			flatbuf.CreateBuffer(b, hdr.Buffers[i].Offset, hdr.Buffers[i].Length)
		}
		buffers = b.EndVector(n)
	}

	flatbuf.MessageStart(b)
	flatbuf.MessageAddVersion(b, int32(hdr.Version))
	flatbuf.MessageAddHeaderType(b, int8(hdr.Type))
	flatbuf.MessageAddField(b, field)
	flatbuf.MessageAddNodes(b, nodes)
	flatbuf.MessageAddBuffers(b, buffers)
	flatbuf.MessageAddCodec(b, int8(hdr.Codec))
	flatbuf.MessageAddBodyLength(b, hdr.BodyLen)
	flatbuf.MessageAddChecksum(b, hdr.Checksum)
	b.Finish(flatbuf.MessageEnd(b))
	return b.FinishedBytes(), nil
}

// decodeHeader parses a flatbuf.Message. Offsets pointing outside meta
// panic inside the flatbuffers accessors; those become arrow.ErrInvalid.
func decodeHeader(meta []byte) (hdr *messageHeader, err error) {
	defer func() {
		if r := recover(); r != nil {
			hdr, err = nil, fmt.Errorf("arrow/ipc: %w: could not decode message metadata: %v", arrow.ErrInvalid, r)
		}
	}()

	if len(meta) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("arrow/ipc: %w: message metadata of %d bytes", arrow.ErrInvalid, len(meta))
	}
	msg := flatbuf.GetRootAsMessage(meta, 0)
	if v := msg.Version(); v != currentMetadataVersion {
		return nil, fmt.Errorf("arrow/ipc: %w: unsupported metadata version %d", arrow.ErrInvalid, v)
	}

	hdr = &messageHeader{
		Version:  int(msg.Version()),
		Type:     MessageType(msg.HeaderType()),
		Codec:    compress.Compression(msg.Codec()),
		BodyLen:  msg.BodyLength(),
		Checksum: msg.Checksum(),
	}
	if fb := msg.Field(nil); fb != nil {
		f, err := fieldFromFB(fb, 0)
		if err != nil {
			return nil, err
		}
		hdr.Field = &f
	}

	const structSize = 16
	if n := msg.NodesLength(); n > 0 {
		if n > len(meta)/structSize {
			return nil, fmt.Errorf("arrow/ipc: %w: %d field nodes in %d bytes of metadata", arrow.ErrInvalid, n, len(meta))
		}
		var node flatbuf.FieldNode
		hdr.Nodes = make([]fieldNode, n)
		for i := range hdr.Nodes {
			msg.Nodes(&node, i)
			hdr.Nodes[i] = fieldNode{Length: node.Length(), Nulls: node.NullCount()}
		}
	}
	if n := msg.BuffersLength(); n > 0 {
		if n > len(meta)/structSize {
			return nil, fmt.Errorf("arrow/ipc: %w: %d buffers in %d bytes of metadata", arrow.ErrInvalid, n, len(meta))
		}
		var buf flatbuf.Buffer
		hdr.Buffers = make([]bufferSpec, n)
		for i := range hdr.Buffers {
			msg.Buffers(&buf, i)
			hdr.Buffers[i] = bufferSpec{Offset: buf.Offset(), Length: buf.Length()}
		}
	}
	return hdr, nil
}

// encode serializes ft as a flatbuf.Footer.
func (ft *footer) encode() ([]byte, error) {
	b := flatbuffers.NewBuilder(1024)

	field, err := fieldToFB(b, ft.Field)
	if err != nil {
		return nil, err
	}

	n := len(ft.Blocks)
	flatbuf.FooterStartBlocksVector(b, n)
	for i := n - 1; i >= 0; i-- {
		blk := ft.Blocks[i]
		flatbuf.CreateBlock(b, blk.Offset, blk.Meta, blk.Body)
	}
	blocks := b.EndVector(n)

	flatbuf.FooterStart(b)
	flatbuf.FooterAddVersion(b, int32(ft.Version))
	flatbuf.FooterAddField(b, field)
	flatbuf.FooterAddBlocks(b, blocks)
	b.Finish(flatbuf.FooterEnd(b))
	return b.FinishedBytes(), nil
}

func decodeFooter(buf []byte) (ft *footer, err error) {
	defer func() {
		if r := recover(); r != nil {
			ft, err = nil, fmt.Errorf("arrow/ipc: %w: could not decode footer: %v", arrow.ErrInvalid, r)
		}
	}()

	if len(buf) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("arrow/ipc: %w: footer of %d bytes", arrow.ErrInvalid, len(buf))
	}
	fb := flatbuf.GetRootAsFooter(buf, 0)
	if v := fb.Version(); v != currentMetadataVersion {
		return nil, fmt.Errorf("arrow/ipc: %w: unsupported metadata version %d", arrow.ErrInvalid, v)
	}
	fbField := fb.Field(nil)
	if fbField == nil {
		return nil, fmt.Errorf("arrow/ipc: %w: footer has no field", arrow.ErrInvalid)
	}
	field, err := fieldFromFB(fbField, 0)
	if err != nil {
		return nil, err
	}

	const blockSize = 24
	n := fb.BlocksLength()
	if n > len(buf)/blockSize {
		return nil, fmt.Errorf("arrow/ipc: %w: %d blocks in a footer of %d bytes", arrow.ErrInvalid, n, len(buf))
	}
	ft = &footer{Version: int(fb.Version()), Field: field, Blocks: make([]fileBlock, n)}
	var blk flatbuf.Block
	for i := range ft.Blocks {
		fb.Blocks(&blk, i)
		ft.Blocks[i] = fileBlock{Offset: blk.Offset(), Meta: blk.MetaDataLength(), Body: blk.BodyLength()}
	}
	return ft, nil
}
