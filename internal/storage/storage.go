// Package storage opens OLE compound files and reads their named streams.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
)

// DocumentStream is the stream holding a Visio drawing's chunk graph.
const DocumentStream = "VisioDocument"

// Signature is the magic prefix of every compound file.
var Signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

var (
	ErrSignature      = errors.New("storage: not a compound file")
	ErrStreamNotFound = errors.New("storage: stream not found")
)

// StreamInfo describes one entry of a compound file.
type StreamInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// File is an opened compound file.
type File struct {
	entries []*mscfb.File
}

// Open checks the signature of ra and reads its directory.
func Open(ra io.ReaderAt) (*File, error) {
	magic := make([]byte, len(Signature))
	if _, err := ra.ReadAt(magic, 0); err != nil || !bytes.Equal(magic, Signature) {
		return nil, ErrSignature
	}

	doc, err := mscfb.New(ra)
	if err != nil {
		return nil, fmt.Errorf("read compound directory: %w", err)
	}
	f := &File{}
	for entry, err := doc.Next(); err != io.EOF; entry, err = doc.Next() {
		if err != nil {
			return nil, fmt.Errorf("read compound entry: %w", err)
		}
		f.entries = append(f.entries, entry)
	}
	return f, nil
}

// Streams lists every entry in directory order.
func (f *File) Streams() []StreamInfo {
	out := make([]StreamInfo, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, StreamInfo{
			Name: e.Name,
			Path: strings.Join(append(append([]string(nil), e.Path...), e.Name), "/"),
			Size: e.Size,
		})
	}
	return out
}

// Stream reads the top-level stream called name.
func (f *File) Stream(name string) ([]byte, error) {
	for _, e := range f.entries {
		if len(e.Path) != 0 || e.Name != name {
			continue
		}
		data, err := io.ReadAll(e)
		if err != nil {
			return nil, fmt.Errorf("read stream %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrStreamNotFound, name)
}
