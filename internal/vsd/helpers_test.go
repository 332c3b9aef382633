package vsd

import (
	"bytes"
	"encoding/binary"
)

// docBuilder lays out a synthetic VisioDocument stream. Chunks are
// appended after a zeroed prefix that holds the trailer pointer.
type docBuilder struct {
	buf []byte
}

func newDoc() *docBuilder {
	return &docBuilder{buf: make([]byte, 0x100)}
}

// next is the offset the next appended chunk will start at.
func (b *docBuilder) next() uint32 { return uint32(len(b.buf)) }

func (b *docBuilder) add(data []byte) uint32 {
	off := b.next()
	b.buf = append(b.buf, data...)
	return off
}

func (b *docBuilder) setTrailer(p Pointer) {
	copy(b.buf[TrailerOffset:], encodePointer(p))
}

func (b *docBuilder) reader() *bytes.Reader {
	return bytes.NewReader(b.buf)
}

func encodePointer(p Pointer) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, p)
	return buf.Bytes()
}

// dirBytes encodes a decoded directory chunk: shift leading bytes, the
// header offset field, the header, the pointer array, and the order list.
func dirBytes(shift int, ptrs []Pointer, order []uint32) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, shift))
	binary.Write(&buf, binary.LittleEndian, uint32(8))
	binary.Write(&buf, binary.LittleEndian, uint32(len(order)))
	binary.Write(&buf, binary.LittleEndian, uint32(len(ptrs)))
	buf.Write(make([]byte, 4))
	for _, p := range ptrs {
		buf.Write(encodePointer(p))
	}
	for _, o := range order {
		binary.Write(&buf, binary.LittleEndian, o)
	}
	return buf.Bytes()
}

// leaf appends a flat blob chunk and returns a pointer to it.
func (b *docBuilder) leaf(t ChunkType, data []byte) Pointer {
	off := b.add(data)
	return Pointer{Tag: uint32(t), Offset: off, Length: uint32(len(data))}
}

// dir appends an uncompressed directory chunk and returns a pointer to it.
func (b *docBuilder) dir(t ChunkType, ptrs []Pointer, order []uint32) Pointer {
	data := dirBytes(0, ptrs, order)
	off := b.add(data)
	return Pointer{Tag: uint32(t), Offset: off, Length: uint32(len(data)), Format: 0x50}
}

// compressedDir appends a compressed directory chunk.
func (b *docBuilder) compressedDir(t ChunkType, ptrs []Pointer, order []uint32) Pointer {
	data := compressRef(dirBytes(4, ptrs, order))
	off := b.add(data)
	return Pointer{Tag: uint32(t), Offset: off, Length: uint32(len(data)), Format: 0x52}
}

// compressRef is a greedy reference encoder for the VSD LZ scheme.
func compressRef(src []byte) []byte {
	const maxMatch = 0x0f + minMatch
	var out []byte
	for p := 0; p < len(src); {
		flagAt := len(out)
		out = append(out, 0)
		var flag byte
		for bit := uint(0); bit < 8 && p < len(src); bit++ {
			bestLen, bestPos := 0, 0
			start := p - (historySize - 1)
			if start < 0 {
				start = 0
			}
			for i := start; i < p; i++ {
				n := 0
				for n < maxMatch && p+n < len(src) && src[i+n] == src[p+n] {
					n++
				}
				if n > bestLen {
					bestLen, bestPos = n, i
				}
			}
			if bestLen >= minMatch {
				raw := (bestPos&historyMask - pointerBias) & historyMask
				out = append(out, byte(raw), byte((raw>>4)&0xf0)|byte(bestLen-minMatch))
				p += bestLen
				continue
			}
			flag |= 1 << bit
			out = append(out, src[p])
			p++
		}
		out[flagAt] = flag
	}
	return out
}

// backRef encodes a back-reference token to history position pos.
func backRef(pos, length int) []byte {
	raw := (pos - pointerBias) & historyMask
	return []byte{byte(raw), byte((raw>>4)&0xf0) | byte(length-minMatch)}
}

// recorder captures collector events as strings and chunk headers.
type recorder struct {
	events   []string
	pages    []Page
	chunks   []ChunkHeader
	stencils map[uint32]*Stencil
}

func newRecorder() *recorder {
	return &recorder{stencils: make(map[uint32]*Stencil)}
}

func (r *recorder) StartPage(p Page) {
	r.events = append(r.events, "start_page")
	r.pages = append(r.pages, p)
}
func (r *recorder) EndPage()  { r.events = append(r.events, "end_page") }
func (r *recorder) EndPages() { r.events = append(r.events, "end_pages") }
func (r *recorder) StartShape(id uint32, t ChunkType) {
	r.events = append(r.events, "start_shape:"+t.String())
}
func (r *recorder) EndShape()             { r.events = append(r.events, "end_shape") }
func (r *recorder) ForeignData(id uint32) { r.events = append(r.events, "foreign") }
func (r *recorder) RegisterStencil(id uint32, s *Stencil) {
	r.events = append(r.events, "stencil")
	r.stencils[id] = s
}
func (r *recorder) Chunk(h ChunkHeader, data []byte) {
	r.chunks = append(r.chunks, h)
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func (r *recorder) offsets() []uint32 {
	out := make([]uint32, len(r.chunks))
	for i, h := range r.chunks {
		out[i] = h.Offset
	}
	return out
}
