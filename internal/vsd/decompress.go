package vsd

const (
	historySize = 4096
	historyMask = historySize - 1

	minMatch = 3

	// Back-reference pointers are stored relative to a ring position
	// that starts pointerBias bytes behind the write cursor.
	pointerThreshold = 4078
	pointerBias      = 18
)

// Decompress expands a VSD LZ-compressed byte range.
//
// The input is a sequence of groups: one flag byte followed by up to eight
// tokens, consumed from the least significant flag bit upwards. A set bit
// is a literal byte; a clear bit is a two-byte back-reference into a
// 4096-byte history ring. A truncated trailing token is dropped, and fewer
// than two input bytes decode to an empty buffer.
func Decompress(src []byte) []byte {
	if len(src) < 2 {
		return []byte{}
	}

	out := make([]byte, 0, 2*len(src))
	var history [historySize]byte
	pos := 0

	for i := 0; i < len(src); {
		flag := src[i]
		i++
		if i >= len(src) {
			break
		}

		for bit := uint(0); bit < 8 && i < len(src); bit++ {
			if flag&(1<<bit) != 0 {
				b := src[i]
				i++
				history[pos&historyMask] = b
				out = append(out, b)
				pos++
				continue
			}

			if i+1 >= len(src) {
				return out
			}
			addr1, addr2 := int(src[i]), int(src[i+1])
			i += 2

			length := addr2&0x0f + minMatch
			ptr := (addr2&0xf0)<<4 | addr1
			if ptr > pointerThreshold {
				ptr -= pointerThreshold
			} else {
				ptr += pointerBias
			}

			// Source and destination may overlap, which is how runs are encoded.
			for j := 0; j < length; j++ {
				b := history[(ptr+j)&historyMask]
				history[(pos+j)&historyMask] = b
				out = append(out, b)
			}
			pos += length
		}
	}
	return out
}

// decodeChunk turns the stored bytes of a chunk into its decoded form.
// The result never aliases raw.
func decodeChunk(raw []byte, compressed bool) []byte {
	if len(raw) < 2 {
		return []byte{}
	}
	if compressed {
		return Decompress(raw)
	}
	buf := make([]byte, len(raw))
	copy(buf, raw)
	return buf
}
