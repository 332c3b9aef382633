package parser

import (
	"github.com/dgallion1/vsdgest/internal/doctree"
	"github.com/dgallion1/vsdgest/internal/vsd"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// treeCollector builds a DocTree from the content pass. Group membership
// comes from the structure pass collections.
type treeCollector struct {
	tree *doctree.DocTree
	coll *vsd.Collections

	// Chunk nodes nest by traversal level. The trailer is level 0.
	stack []stackEntry

	page   *doctree.Page
	pageNo int
	pages  int
	shapes []*doctree.Shape // open shapes, innermost last
}

type stackEntry struct {
	node  *doctree.DocNode
	level int
}

func newTreeCollector(tree *doctree.DocTree, coll *vsd.Collections) *treeCollector {
	return &treeCollector{tree: tree, coll: coll, pageNo: -1}
}

func (c *treeCollector) Chunk(h vsd.ChunkHeader, data []byte) {
	node := &doctree.DocNode{
		Index:    h.Index,
		Type:     h.Type.String(),
		TypeCode: uint8(h.Type),
		Layout:   h.Layout.String(),
		Offset:   h.Offset,
		Length:   h.Length,
		Format:   h.Format,
		Level:    h.Level,
		Size:     h.Size,
		Cyclic:   h.Cyclic,
		Page:     c.pageNo,
	}
	if h.Category != vsd.CategoryNone {
		node.Category = h.Category.String()
	}

	st := &c.tree.Stats
	st.Chunks++
	st.Bytes += h.Size
	if h.Layout == vsd.LayoutDirectory {
		st.Directories++
	}
	if h.Compressed() {
		st.Compressed++
	}
	if h.Cyclic {
		st.Cyclic++
	}
	if h.Level > st.MaxLevel {
		st.MaxLevel = h.Level
	}

	for len(c.stack) > 0 && c.stack[len(c.stack)-1].level >= h.Level {
		c.stack = c.stack[:len(c.stack)-1]
	}
	if len(c.stack) == 0 {
		c.tree.Root = node
	} else {
		parent := c.stack[len(c.stack)-1].node
		parent.Children = append(parent.Children, node)
	}
	c.stack = append(c.stack, stackEntry{node: node, level: h.Level})
}

func (c *treeCollector) StartPage(p vsd.Page) {
	c.page = &doctree.Page{ID: p.ID, Background: p.Background, Shapes: []*doctree.Shape{}}
	c.pageNo = c.pages
	c.pages++
	c.tree.Pages = append(c.tree.Pages, c.page)
	c.shapes = c.shapes[:0]
}

func (c *treeCollector) EndPage() {
	c.page = nil
	c.pageNo = -1
}

func (c *treeCollector) EndPages() {}

func (c *treeCollector) StartShape(id uint32, t vsd.ChunkType) {
	s := &doctree.Shape{ID: id, Type: t.String()}
	if c.page != nil {
		if c.pageNo < len(c.coll.GroupMemberships) {
			if g, ok := c.coll.GroupMemberships[c.pageNo][id]; ok {
				s.Group = &g
			}
		}
		c.page.Shapes = append(c.page.Shapes, s)
	}
	c.shapes = append(c.shapes, s)
}

func (c *treeCollector) EndShape() {
	if n := len(c.shapes); n > 0 {
		c.shapes = c.shapes[:n-1]
	}
}

func (c *treeCollector) ForeignData(id uint32) {
	if n := len(c.shapes); n > 0 {
		c.shapes[n-1].Foreign = &id
	}
}

func (c *treeCollector) RegisterStencil(id uint32, s *vsd.Stencil) {
	out := &doctree.Stencil{ID: id, Shapes: []*doctree.Master{}}
	ids := maps.Keys(s.Shapes)
	slices.Sort(ids)
	for _, sid := range ids {
		m := s.Shapes[sid]
		out.Shapes = append(out.Shapes, &doctree.Master{
			ID:     m.ID,
			Type:   m.Type.String(),
			Offset: m.Offset,
			Length: m.Length,
		})
	}
	c.tree.Stencils = append(c.tree.Stencils, out)
}
