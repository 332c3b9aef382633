package doctree

// DocTree is the root of a decoded document.
type DocTree struct {
	Title    string     `json:"title"`    // Document title (from filename)
	Kind     string     `json:"kind"`     // drawing, stencil or template
	Root     *DocNode   `json:"root"`     // Trailer chunk
	Pages    []*Page    `json:"pages"`    // Pages in traversal order
	Stencils []*Stencil `json:"stencils"` // Registered stencils, in registration order
	Stats    Stats      `json:"stats"`
	Streams  []string   `json:"streams,omitempty"` // Compound file entries, when known
}

// DocNode is one dispatched chunk and the chunks its directory points to.
type DocNode struct {
	Index    uint32     `json:"index"`
	Type     string     `json:"type"`
	TypeCode uint8      `json:"type_code"`
	Category string     `json:"category,omitempty"`
	Layout   string     `json:"layout"`
	Offset   uint32     `json:"offset"`
	Length   uint32     `json:"length"`
	Format   uint32     `json:"format"`
	Level    int        `json:"level"`
	Size     int        `json:"size"`             // Decoded size
	Cyclic   bool       `json:"cyclic,omitempty"` // Not descended
	Page     int        `json:"page"`             // Enclosing page index, -1 if none
	Children []*DocNode `json:"children,omitempty"`
}

// Page is a drawing page, or a stencil page when stencils are extracted.
type Page struct {
	ID         uint32   `json:"id"`
	Background bool     `json:"background"`
	Shapes     []*Shape `json:"shapes"` // Draw order
}

// Shape is a shape placed on a page.
type Shape struct {
	ID      uint32  `json:"id"`
	Type    string  `json:"type"`
	Group   *uint32 `json:"group,omitempty"`   // Enclosing group shape
	Foreign *uint32 `json:"foreign,omitempty"` // Foreign data (OLE list) chunk
}

// Stencil is a stencil page and its master shapes.
type Stencil struct {
	ID     uint32    `json:"id"`
	Shapes []*Master `json:"shapes"`
}

// Master is one master shape of a stencil.
type Master struct {
	ID     uint32 `json:"id"`
	Type   string `json:"type"`
	Offset uint32 `json:"offset"`
	Length uint32 `json:"length"`
}

// Stats summarizes a traversal.
type Stats struct {
	Chunks      int `json:"chunks"`
	Directories int `json:"directories"`
	Compressed  int `json:"compressed"`
	Cyclic      int `json:"cyclic"`
	MaxLevel    int `json:"max_level"`
	Bytes       int `json:"decoded_bytes"`
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *DocNode) Walk(fn func(*DocNode) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Shapes counts the shapes across all pages.
func (t *DocTree) Shapes() int {
	n := 0
	for _, p := range t.Pages {
		n += len(p.Shapes)
	}
	return n
}
