package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/vsdgest/internal/doctree"
	"github.com/dgallion1/vsdgest/internal/vsd"
)

// ErrUnsupported is returned by ForFile for extensions no parser handles.
var ErrUnsupported = errors.New("unsupported file extension")

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".vsd": true,
	".vss": true,
	".vst": true,
}

// ForFile returns the appropriate parser for a filename. opts carries the
// engine settings; ExtractStencils is forced on for stencil files.
func ForFile(filename string, opts vsd.Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".vsd":
		return &VSDParser{Kind: KindDrawing, Options: opts}, nil
	case ".vst":
		return &VSDParser{Kind: KindTemplate, Options: opts}, nil
	case ".vss":
		opts.ExtractStencils = true
		return &VSDParser{Kind: KindStencil, Options: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
