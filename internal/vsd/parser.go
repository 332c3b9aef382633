// Package vsd decodes the VisioDocument stream of a legacy binary Visio
// file into an ordered traversal of typed chunks.
//
// The stream is rooted at a trailer pointer at a fixed offset. Each
// pointer names a chunk of the raw stream, optionally LZ-compressed,
// which may itself be a directory of further pointers. A Parser walks
// that graph twice: a structure pass that records per-page shape order
// and group membership, and a content pass that drives a caller-supplied
// Collector with the first pass's results available.
package vsd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

var (
	// ErrMaxDepth is returned when directories nest deeper than Options.MaxDepth.
	ErrMaxDepth = errors.New("vsd: directory nesting too deep")
	// ErrTruncatedTrailer is returned when the stream cannot hold a trailer pointer.
	ErrTruncatedTrailer = errors.New("vsd: truncated trailer pointer")
)

// DefaultMaxDepth bounds directory nesting when Options.MaxDepth is unset.
const DefaultMaxDepth = 256

// Options configures a Parser.
type Options struct {
	// MaxDepth bounds directory nesting. Zero means DefaultMaxDepth.
	MaxDepth int
	// ExtractStencils treats stencil pages as pages and skips drawing
	// pages, for stencil (.vss) files.
	ExtractStencils bool
	Logger          *slog.Logger
}

// Parser drives the two-pass traversal of a document stream.
type Parser struct {
	opts Options
	log  *slog.Logger
}

func NewParser(opts Options) *Parser {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Parser{opts: opts, log: log}
}

// Parse runs the structure pass and then the content pass over doc. The
// content collector is built by newContent from the structure pass's
// collections; a nil newContent runs the second pass with no observer.
func (p *Parser) Parse(doc io.ReadSeeker, newContent func(*Collections) Collector) (*Collections, error) {
	trailer, root, err := p.openTrailer(doc)
	if err != nil {
		return nil, err
	}

	coll := newCollections()
	p.log.Info("structure pass", "trailer_offset", trailer.Offset, "trailer_length", trailer.Length)
	if err := p.walk(doc, trailer, root, newStructureCollector(coll)); err != nil {
		return nil, fmt.Errorf("structure pass: %w", err)
	}

	var content Collector = NopCollector{}
	if newContent != nil {
		content = newContent(coll)
	}
	p.log.Info("content pass", "pages", coll.Pages(), "stencils", len(coll.Stencils))
	if err := p.walk(doc, trailer, root, content); err != nil {
		return nil, fmt.Errorf("content pass: %w", err)
	}
	return coll, nil
}

// Walk runs a single pass over doc with c.
func (p *Parser) Walk(doc io.ReadSeeker, c Collector) error {
	trailer, root, err := p.openTrailer(doc)
	if err != nil {
		return err
	}
	return p.walk(doc, trailer, root, c)
}

// ReadTrailer reads the bootstrap pointer at TrailerOffset.
func ReadTrailer(doc io.ReadSeeker) (Pointer, error) {
	if _, err := doc.Seek(TrailerOffset, io.SeekStart); err != nil {
		return Pointer{}, fmt.Errorf("seek trailer: %w", err)
	}
	ptr, err := ReadPointer(doc)
	if err != nil {
		return Pointer{}, fmt.Errorf("%w: %v", ErrTruncatedTrailer, err)
	}
	return ptr, nil
}

func (p *Parser) openTrailer(doc io.ReadSeeker) (Pointer, *Stream, error) {
	trailer, err := ReadTrailer(doc)
	if err != nil {
		return Pointer{}, nil, err
	}
	t := &traversal{doc: doc}
	root, err := t.materialize(trailer)
	if err != nil {
		return Pointer{}, nil, fmt.Errorf("trailer: %w", err)
	}
	return trailer, root, nil
}

func (p *Parser) walk(doc io.ReadSeeker, trailer Pointer, root *Stream, c Collector) error {
	t := &traversal{
		doc:      doc,
		c:        c,
		log:      p.log,
		maxDepth: p.opts.MaxDepth,
		extract:  p.opts.ExtractStencils,
		visited:  make(map[uint32]struct{}),
	}

	c.Chunk(ChunkHeader{
		Type:     TypeTrailer,
		Category: CategoryNone,
		Layout:   LayoutDirectory,
		Offset:   trailer.Offset,
		Length:   trailer.Length,
		Format:   trailer.Format,
		Size:     root.Len(),
	}, root.Bytes())

	t.visited[trailer.Offset] = struct{}{}
	err := t.handleStreams(root, trailer.Shift(), 0)
	delete(t.visited, trailer.Offset)

	if len(t.visited) != 0 {
		panic(fmt.Sprintf("vsd: %d offsets left in visited set after traversal", len(t.visited)))
	}
	return err
}
