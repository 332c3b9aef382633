package vsd

import (
	"fmt"
	"io"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// dirEntry is a non-empty pointer together with its array index.
type dirEntry struct {
	index uint32
	ptr   Pointer
}

// directory is the decoded pointer table of a directory chunk.
type directory struct {
	entries []dirEntry
	order   []uint32
}

// readDirectory decodes the pointer table of s. The header is found through
// the offset field at shift; it is followed by four reserved bytes, the
// pointer array, and the explicit order list.
func readDirectory(s *Stream, shift int64) (*directory, error) {
	s.Seek(shift, io.SeekStart)
	off, err := s.readU32()
	if err != nil {
		return nil, fmt.Errorf("read header offset: %w", err)
	}
	s.Seek(int64(off)+shift-4, io.SeekStart)

	listSize, err := s.readU32()
	if err != nil {
		return nil, fmt.Errorf("read list size: %w", err)
	}
	count, err := s.readU32()
	if err != nil {
		return nil, fmt.Errorf("read pointer count: %w", err)
	}
	s.Seek(4, io.SeekCurrent)

	d := &directory{}
	for i := uint32(0); i < count; i++ {
		ptr, err := ReadPointer(s)
		if err != nil {
			return nil, fmt.Errorf("read pointer %d of %d: %w", i, count, err)
		}
		if ptr.Empty() {
			continue
		}
		d.entries = append(d.entries, dirEntry{index: i, ptr: ptr})
	}

	if listSize <= 1 {
		listSize = 0
	}
	for i := uint32(0); i < listSize; i++ {
		idx, err := s.readU32()
		if err != nil {
			// A short order list keeps what was read; the rest falls
			// through to the unordered tail.
			break
		}
		d.order = append(d.order, idx)
	}
	return d, nil
}

// dispatchOrder arranges entries for traversal: name lists, then name
// indexes, then font faces, then generic entries in explicit order, then
// the remaining generic entries. Within a bucket entries keep array order
// so repeated passes visit chunks identically.
func dispatchOrder(entries []dirEntry, order []uint32) []dirEntry {
	var names, nameIdx, fonts []dirEntry
	generic := make(map[uint32]Pointer)
	for _, e := range entries {
		switch e.ptr.Type().bucket() {
		case bucketNameList:
			names = append(names, e)
		case bucketNameIdx:
			nameIdx = append(nameIdx, e)
		case bucketFontFaces:
			fonts = append(fonts, e)
		default:
			generic[e.index] = e.ptr
		}
	}

	out := make([]dirEntry, 0, len(entries))
	out = append(out, names...)
	out = append(out, nameIdx...)
	out = append(out, fonts...)
	for _, idx := range order {
		ptr, ok := generic[idx]
		if !ok {
			continue
		}
		delete(generic, idx)
		out = append(out, dirEntry{index: idx, ptr: ptr})
	}

	rest := maps.Keys(generic)
	slices.Sort(rest)
	for _, idx := range rest {
		out = append(out, dirEntry{index: idx, ptr: generic[idx]})
	}
	return out
}

// handleStreams resolves the directory in s and dispatches its children.
func (t *traversal) handleStreams(s *Stream, shift int64, level int) error {
	if level > t.maxDepth {
		return fmt.Errorf("%w (level %d)", ErrMaxDepth, level)
	}
	d, err := readDirectory(s, shift)
	if err != nil {
		return fmt.Errorf("directory at level %d: %w", level, err)
	}
	for _, e := range dispatchOrder(d.entries, d.order) {
		if err := t.handleStream(e.ptr, e.index, level+1); err != nil {
			return err
		}
	}
	return nil
}
