// Package storagetest builds compound file images for tests.
package storagetest

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"
)

var signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

const (
	sectorSize = 512
	endOfChain = 0xFFFFFFFE
	freeSect   = 0xFFFFFFFF
	fatSect    = 0xFFFFFFFD
	noStream   = 0xFFFFFFFF
)

// MinStreamSize is the smallest stream Compound stores in regular sectors.
// Shorter payloads are zero-padded to it.
const MinStreamSize = 4096

// Compound lays out a version 3 compound file holding one top-level stream.
func Compound(name string, payload []byte) []byte {
	if len(payload) < MinStreamSize {
		payload = append(append([]byte(nil), payload...), make([]byte, MinStreamSize-len(payload))...)
	}
	nsect := (len(payload) + sectorSize - 1) / sectorSize
	le := binary.LittleEndian

	header := make([]byte, sectorSize)
	copy(header, signature)
	le.PutUint16(header[24:], 0x3E)
	le.PutUint16(header[26:], 3)
	le.PutUint16(header[28:], 0xFFFE)
	le.PutUint16(header[30:], 9)
	le.PutUint16(header[32:], 6)
	le.PutUint32(header[44:], 1)
	le.PutUint32(header[48:], 1)
	le.PutUint32(header[56:], 4096)
	le.PutUint32(header[60:], endOfChain)
	le.PutUint32(header[68:], endOfChain)
	le.PutUint32(header[76:], 0)
	for i := 1; i < 109; i++ {
		le.PutUint32(header[76+4*i:], freeSect)
	}

	fat := make([]byte, sectorSize)
	for i := 0; i < sectorSize/4; i++ {
		le.PutUint32(fat[4*i:], freeSect)
	}
	le.PutUint32(fat[0:], fatSect)
	le.PutUint32(fat[4:], endOfChain)
	for i := 0; i < nsect; i++ {
		next := uint32(2 + i + 1)
		if i == nsect-1 {
			next = endOfChain
		}
		le.PutUint32(fat[4*(2+i):], next)
	}

	dir := make([]byte, sectorSize)
	putEntry(dir[0:], "Root Entry", 5, 1, endOfChain, 0)
	putEntry(dir[128:], name, 2, noStream, 2, uint64(len(payload)))
	for _, off := range []int{256, 384} {
		le.PutUint32(dir[off+68:], noStream)
		le.PutUint32(dir[off+72:], noStream)
		le.PutUint32(dir[off+76:], noStream)
	}

	var buf bytes.Buffer
	buf.Write(header)
	buf.Write(fat)
	buf.Write(dir)
	data := make([]byte, nsect*sectorSize)
	copy(data, payload)
	buf.Write(data)
	return buf.Bytes()
}

func putEntry(b []byte, name string, typ byte, child, start uint32, size uint64) {
	le := binary.LittleEndian
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		le.PutUint16(b[2*i:], u)
	}
	le.PutUint16(b[64:], uint16(2*(len(units)+1)))
	b[66] = typ
	b[67] = 1
	le.PutUint32(b[68:], noStream)
	le.PutUint32(b[72:], noStream)
	le.PutUint32(b[76:], child)
	le.PutUint32(b[116:], start)
	le.PutUint64(b[120:], size)
}
