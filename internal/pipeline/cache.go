package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/dgallion1/vsdgest/internal/doctree"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ResultCache holds recently decoded trees keyed by file kind and content
// fingerprint. Cached trees are shared and must not be modified.
type ResultCache struct {
	lru *lru.Cache[string, *doctree.DocTree]
}

func NewResultCache(size int) (*ResultCache, error) {
	c, err := lru.New[string, *doctree.DocTree](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{lru: c}, nil
}

// cacheKey separates drawings from stencils: the same bytes decode
// differently under a .vss name.
func cacheKey(filename, docID string) string {
	return strings.ToLower(filepath.Ext(filename)) + ":" + docID
}

func (c *ResultCache) Get(filename, docID string) (*doctree.DocTree, bool) {
	return c.lru.Get(cacheKey(filename, docID))
}

func (c *ResultCache) Add(filename, docID string, tree *doctree.DocTree) {
	c.lru.Add(cacheKey(filename, docID), tree)
}

func (c *ResultCache) Len() int {
	return c.lru.Len()
}
