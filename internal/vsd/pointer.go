package vsd

import (
	"encoding/binary"
	"io"
)

// TrailerOffset is the fixed location of the bootstrap pointer in the
// document stream.
const TrailerOffset = 0x24

// PointerSize is the encoded size of a Pointer.
const PointerSize = 20

const (
	formatCompressed = 0x2
	formatForeground = 0x1
)

// Pointer locates one child chunk in the raw document.
type Pointer struct {
	Tag    uint32
	_      uint32
	Offset uint32
	Length uint32
	Format uint32
}

// ReadPointer decodes one little-endian pointer record.
func ReadPointer(r io.Reader) (Pointer, error) {
	var p Pointer
	if err := binary.Read(r, binary.LittleEndian, &p); err != nil {
		return Pointer{}, err
	}
	return p, nil
}

// Type is the significant low byte of the tag.
func (p Pointer) Type() ChunkType { return ChunkType(p.Tag) }

// Empty reports an unused directory slot.
func (p Pointer) Empty() bool { return p.Tag == 0 }

// Compressed reports whether the stored chunk is LZ-compressed.
func (p Pointer) Compressed() bool { return p.Format&formatCompressed != 0 }

// Shift is the number of leading bytes in the decoded chunk that precede
// its directory offset field.
func (p Pointer) Shift() int64 {
	if p.Compressed() {
		return 4
	}
	return 0
}

// ContentKind selects how the decoded chunk is interpreted.
func (p Pointer) ContentKind() uint32 { return p.Format >> 4 }

// Layout maps the content kind to a chunk layout.
func (p Pointer) Layout() Layout {
	switch p.ContentKind() {
	case 0x0, 0x4:
		return LayoutBlob
	case 0x5:
		if p.Type() == TypeColors {
			return LayoutBlob
		}
		return LayoutDirectory
	case 0x8, 0xc, 0xd:
		return LayoutRecords
	}
	return LayoutOpaque
}
