package vsd

import (
	"fmt"
	"io"
	"log/slog"
)

// traversal is the state of one pass over a document.
type traversal struct {
	doc      io.ReadSeeker
	c        Collector
	log      *slog.Logger
	maxDepth int
	extract  bool

	// visited holds the offsets of directories on the current expansion path.
	visited map[uint32]struct{}

	inStencils bool
	stencil    *Stencil
}

// materialize reads and decodes the chunk ptr refers to.
func (t *traversal) materialize(ptr Pointer) (*Stream, error) {
	if _, err := t.doc.Seek(int64(ptr.Offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to 0x%x: %w", ptr.Offset, err)
	}
	return NewStream(t.doc, int64(ptr.Length), ptr.Compressed())
}

// handleStream materializes one chunk, notifies the collector, and descends
// into it when it is itself a directory.
func (t *traversal) handleStream(ptr Pointer, idx uint32, level int) error {
	cat := ptr.Type().Category()
	if t.extract && (cat == CategoryPage || cat == CategoryPages) {
		return nil
	}

	s, err := t.materialize(ptr)
	if err != nil {
		return fmt.Errorf("chunk %d (%s): %w", idx, ptr.Type(), err)
	}

	t.log.Debug("chunk",
		"idx", idx,
		"type", ptr.Type().String(),
		"offset", ptr.Offset,
		"length", ptr.Length,
		"format", ptr.Format,
		"level", level,
	)

	prevStencil := t.begin(ptr, idx, cat)
	err = t.handleContent(ptr, idx, level, s)
	t.end(ptr, idx, cat, prevStencil)
	return err
}

func (t *traversal) begin(ptr Pointer, idx uint32, cat Category) *Stencil {
	prev := t.stencil
	switch cat {
	case CategoryPage:
		t.c.StartPage(Page{ID: idx, Background: ptr.Format&formatForeground == 0})
	case CategoryStencils:
		if !t.extract {
			t.inStencils = true
		}
	case CategoryStencilPage:
		if t.extract {
			t.c.StartPage(Page{ID: idx})
		} else {
			t.stencil = newStencil(idx)
		}
	case CategoryShape:
		t.c.StartShape(idx, ptr.Type())
	case CategoryOLEList:
		t.c.ForeignData(idx)
	}
	return prev
}

func (t *traversal) end(ptr Pointer, idx uint32, cat Category, prevStencil *Stencil) {
	switch cat {
	case CategoryPage:
		t.c.EndPage()
	case CategoryPages:
		t.c.EndPages()
	case CategoryStencils:
		if t.extract {
			t.c.EndPages()
		} else {
			t.inStencils = false
		}
	case CategoryStencilPage:
		if t.extract {
			t.c.EndPage()
			break
		}
		t.c.RegisterStencil(idx, t.stencil)
		t.stencil = prevStencil
	case CategoryShape:
		if t.inStencils && t.stencil != nil {
			t.stencil.Shapes[idx] = StencilShape{
				ID:     idx,
				Type:   ptr.Type(),
				Offset: ptr.Offset,
				Length: ptr.Length,
			}
		}
		t.c.EndShape()
	}
}

func (t *traversal) handleContent(ptr Pointer, idx uint32, level int, s *Stream) error {
	h := ChunkHeader{
		Index:    idx,
		Type:     ptr.Type(),
		Category: ptr.Type().Category(),
		Layout:   ptr.Layout(),
		Offset:   ptr.Offset,
		Length:   ptr.Length,
		Format:   ptr.Format,
		Level:    level,
		Size:     s.Len(),
	}
	if h.Layout == LayoutDirectory {
		_, h.Cyclic = t.visited[ptr.Offset]
	}
	t.c.Chunk(h, s.Bytes())

	if h.Layout != LayoutDirectory {
		return nil
	}
	if h.Cyclic {
		t.log.Warn("skipping cyclic directory pointer", "idx", idx, "offset", ptr.Offset, "level", level)
		return nil
	}

	t.visited[ptr.Offset] = struct{}{}
	defer delete(t.visited, ptr.Offset)
	return t.handleStreams(s, ptr.Shift(), level)
}
