// Package vsdtest builds synthetic VisioDocument streams for tests.
package vsdtest

import (
	"bytes"
	"encoding/binary"

	"github.com/dgallion1/vsdgest/internal/vsd"
)

// Directory format values: uncompressed directory, and the same marked as
// a foreground page.
const (
	DirFormat        = 0x50
	ForegroundFormat = 0x51
)

// Builder lays out a VisioDocument stream: a zeroed prefix holding the
// trailer pointer, then appended chunks.
type Builder struct {
	buf []byte
}

func NewBuilder() *Builder {
	return &Builder{buf: make([]byte, 0x100)}
}

// Leaf appends a blob chunk.
func (b *Builder) Leaf(t vsd.ChunkType, data []byte) vsd.Pointer {
	off := uint32(len(b.buf))
	b.buf = append(b.buf, data...)
	return vsd.Pointer{Tag: uint32(t), Offset: off, Length: uint32(len(data))}
}

// Dir appends an uncompressed directory chunk with no order list. Zero
// pointers leave empty slots, so children keep their array index as id.
func (b *Builder) Dir(t vsd.ChunkType, format uint32, ptrs ...vsd.Pointer) vsd.Pointer {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, []uint32{8, 0, uint32(len(ptrs)), 0})
	for _, p := range ptrs {
		binary.Write(&buf, binary.LittleEndian, p)
	}
	p := b.Leaf(t, buf.Bytes())
	p.Format = format
	return p
}

// Finish writes the trailer pointer and returns the stream.
func (b *Builder) Finish(trailer vsd.Pointer) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, trailer)
	copy(b.buf[vsd.TrailerOffset:], buf.Bytes())
	return b.buf
}

// SampleDrawing is one foreground page holding group 2 (containing shape 5,
// which carries foreign data 4) and shape 3, plus stencil 0 with master 1.
func SampleDrawing() []byte {
	b := NewBuilder()
	var empty vsd.Pointer

	master := b.Leaf(vsd.TypeShapeShape, []byte{1, 2, 3, 4})
	spage := b.Dir(vsd.TypeStencilPage, DirFormat, empty, master)
	stencils := b.Dir(vsd.TypeStencils, DirFormat, spage)

	ole := b.Leaf(vsd.TypeOLEList, []byte{9, 9})
	inner := b.Dir(vsd.TypeShapeShape, DirFormat, empty, empty, empty, empty, ole)
	group := b.Dir(vsd.TypeShapeGroup, DirFormat, empty, empty, empty, empty, empty, inner)
	other := b.Leaf(vsd.TypeShapeShape, []byte{5, 6, 7, 8})
	list := b.Dir(vsd.TypeShapeList, DirFormat, empty, empty, group, other)
	page := b.Dir(vsd.TypePage, ForegroundFormat, list)
	pages := b.Dir(vsd.TypePages, DirFormat, page)

	return b.Finish(b.Dir(vsd.TypeTrailer, DirFormat, stencils, pages))
}
