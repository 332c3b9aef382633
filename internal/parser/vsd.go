package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/vsdgest/internal/doctree"
	"github.com/dgallion1/vsdgest/internal/storage"
	"github.com/dgallion1/vsdgest/internal/vsd"
)

const (
	KindDrawing  = "drawing"
	KindStencil  = "stencil"
	KindTemplate = "template"
)

// VSDParser handles legacy binary Visio files: drawings, stencils and
// templates.
type VSDParser struct {
	Kind    string
	Options vsd.Options
}

func (p *VSDParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	f, err := storage.Open(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	stream, err := f.Stream(storage.DocumentStream)
	if err != nil {
		return nil, err
	}

	tree, err := p.Decode(bytes.NewReader(stream), filename)
	if err != nil {
		return nil, err
	}
	for _, s := range f.Streams() {
		tree.Streams = append(tree.Streams, s.Path)
	}
	return tree, nil
}

// Decode builds a tree from an already extracted VisioDocument stream.
func (p *VSDParser) Decode(doc io.ReadSeeker, filename string) (*doctree.DocTree, error) {
	base := filepath.Base(filename)
	tree := &doctree.DocTree{
		Title:    strings.TrimSuffix(base, filepath.Ext(base)),
		Kind:     p.Kind,
		Pages:    []*doctree.Page{},
		Stencils: []*doctree.Stencil{},
	}

	_, err := vsd.NewParser(p.Options).Parse(doc, func(c *vsd.Collections) vsd.Collector {
		return newTreeCollector(tree, c)
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", base, err)
	}
	return tree, nil
}
