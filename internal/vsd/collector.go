package vsd

// ChunkHeader describes one dispatched chunk.
type ChunkHeader struct {
	Index    uint32
	Type     ChunkType
	Category Category
	Layout   Layout
	Offset   uint32
	Length   uint32
	Format   uint32
	Level    int
	Size     int  // decoded size
	Cyclic   bool // directory already being expanded on this path; not descended
}

// Compressed reports whether the chunk was stored LZ-compressed.
func (h ChunkHeader) Compressed() bool { return h.Format&formatCompressed != 0 }

// Page is passed to Collector.StartPage.
type Page struct {
	ID         uint32
	Background bool
}

// Collector receives traversal events in resolved order. The same
// traversal drives both passes; only the collector differs.
type Collector interface {
	StartPage(p Page)
	EndPage()
	EndPages()
	StartShape(id uint32, t ChunkType)
	EndShape()
	ForeignData(id uint32)
	RegisterStencil(id uint32, s *Stencil)

	// Chunk is called once per materialized chunk, before its children.
	// data is only valid for the duration of the call.
	Chunk(h ChunkHeader, data []byte)
}

// NopCollector ignores every event. Embed it to implement a subset.
type NopCollector struct{}

func (NopCollector) StartPage(Page)                   {}
func (NopCollector) EndPage()                         {}
func (NopCollector) EndPages()                        {}
func (NopCollector) StartShape(uint32, ChunkType)     {}
func (NopCollector) EndShape()                        {}
func (NopCollector) ForeignData(uint32)               {}
func (NopCollector) RegisterStencil(uint32, *Stencil) {}
func (NopCollector) Chunk(ChunkHeader, []byte)        {}

// StencilShape is a master shape found inside a stencil page.
type StencilShape struct {
	ID     uint32
	Type   ChunkType
	Offset uint32
	Length uint32
}

// Stencil is the set of master shapes of one stencil page.
type Stencil struct {
	ID     uint32
	Shapes map[uint32]StencilShape
}

func newStencil(id uint32) *Stencil {
	return &Stencil{ID: id, Shapes: make(map[uint32]StencilShape)}
}

// XForm is a shape's local transform. Geometry is filled by record-level
// decoders; the structure pass only creates the entry.
type XForm struct {
	PinX, PinY       float64
	Width, Height    float64
	PinLocX, PinLocY float64
	Angle            float64
	FlipX, FlipY     bool
	X, Y             float64
}

// Collections is the cross-pass state gathered by the first pass. Each
// slice is indexed by page number in traversal order.
type Collections struct {
	GroupXForms      []map[uint32]XForm
	GroupMemberships []map[uint32]uint32
	PageShapeOrders  [][]uint32
	Stencils         map[uint32]*Stencil
}

func newCollections() *Collections {
	return &Collections{Stencils: make(map[uint32]*Stencil)}
}

// Pages is the number of pages seen by the first pass.
func (c *Collections) Pages() int { return len(c.PageShapeOrders) }

// structureCollector is the first-pass collector. It records per-page
// shape order, group membership, and transform entries.
type structureCollector struct {
	NopCollector
	out    *Collections
	page   int
	groups []uint32 // enclosing shapes, innermost last
	kinds  []ChunkType
}

func newStructureCollector(out *Collections) *structureCollector {
	return &structureCollector{out: out, page: -1}
}

func (c *structureCollector) StartPage(Page) {
	c.out.GroupXForms = append(c.out.GroupXForms, make(map[uint32]XForm))
	c.out.GroupMemberships = append(c.out.GroupMemberships, make(map[uint32]uint32))
	c.out.PageShapeOrders = append(c.out.PageShapeOrders, nil)
	c.page = len(c.out.PageShapeOrders) - 1
	c.groups = c.groups[:0]
	c.kinds = c.kinds[:0]
}

func (c *structureCollector) EndPage() {
	c.page = -1
}

func (c *structureCollector) StartShape(id uint32, t ChunkType) {
	if c.page >= 0 {
		c.out.PageShapeOrders[c.page] = append(c.out.PageShapeOrders[c.page], id)
		c.out.GroupXForms[c.page][id] = XForm{}
		for i := len(c.groups) - 1; i >= 0; i-- {
			if c.kinds[i] == TypeShapeGroup {
				c.out.GroupMemberships[c.page][id] = c.groups[i]
				break
			}
		}
	}
	c.groups = append(c.groups, id)
	c.kinds = append(c.kinds, t)
}

func (c *structureCollector) EndShape() {
	if n := len(c.groups); n > 0 {
		c.groups = c.groups[:n-1]
		c.kinds = c.kinds[:n-1]
	}
}

func (c *structureCollector) RegisterStencil(id uint32, s *Stencil) {
	c.out.Stencils[id] = s
}
