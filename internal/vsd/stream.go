package vsd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Stream is a decoded chunk with a read cursor. Seeks clamp to the
// buffer bounds instead of failing.
type Stream struct {
	buf []byte
	off int
}

// NewStream reads up to size bytes from r and decodes them. A short read
// truncates the chunk to the bytes actually available.
func NewStream(r io.Reader, size int64, compressed bool) (*Stream, error) {
	if size < 0 {
		size = 0
	}
	raw, err := io.ReadAll(io.LimitReader(r, size))
	if err != nil {
		return nil, fmt.Errorf("read chunk: %w", err)
	}
	return &Stream{buf: decodeChunk(raw, compressed)}, nil
}

// NewStreamBytes wraps an already decoded buffer.
func NewStreamBytes(buf []byte) *Stream {
	return &Stream{buf: buf}
}

// Read copies from the cursor. At the end of the buffer it returns io.EOF.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if s.off >= len(s.buf) {
		return 0, io.EOF
	}
	n := copy(p, s.buf[s.off:])
	s.off += n
	return n, nil
}

// Seek moves the cursor, clamping the result to [0, Len()].
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(s.off) + offset
	case io.SeekEnd:
		abs = int64(len(s.buf)) + offset
	default:
		return int64(s.off), errors.New("vsd: invalid whence")
	}
	switch {
	case abs < 0:
		abs = 0
	case abs > int64(len(s.buf)):
		abs = int64(len(s.buf))
	}
	s.off = int(abs)
	return abs, nil
}

// Len is the decoded size.
func (s *Stream) Len() int { return len(s.buf) }

// Tell is the cursor position.
func (s *Stream) Tell() int64 { return int64(s.off) }

// AtEnd reports whether the cursor is at the end of the buffer.
func (s *Stream) AtEnd() bool { return s.off >= len(s.buf) }

// Bytes returns the decoded buffer. Callers must not modify it.
func (s *Stream) Bytes() []byte { return s.buf }

func (s *Stream) readU32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(s, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
