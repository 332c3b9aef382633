package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/vsdgest/internal/doctree"
	"github.com/dgallion1/vsdgest/internal/parser"
	"github.com/dgallion1/vsdgest/internal/storage"
	"github.com/dgallion1/vsdgest/internal/storage/storagetest"
	"github.com/dgallion1/vsdgest/internal/vsd/vsdtest"
)

func writeSample(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := storagetest.Compound(storage.DocumentStream, vsdtest.SampleDrawing())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestRun_JSON(t *testing.T) {
	path := writeSample(t, "floor.vsd")
	var stdout, stderr bytes.Buffer
	if err := run([]string{path}, &stdout, &stderr); err != nil {
		t.Fatalf("unexpected error: %v (stderr %s)", err, stderr.String())
	}
	var tree doctree.DocTree
	if err := json.Unmarshal(stdout.Bytes(), &tree); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "floor" || tree.Kind != parser.KindDrawing {
		t.Errorf("expected floor drawing, got %q %q", tree.Title, tree.Kind)
	}
	if len(tree.Pages) != 1 || tree.Shapes() != 3 {
		t.Errorf("expected 1 page with 3 shapes, got %d pages, %d shapes", len(tree.Pages), tree.Shapes())
	}
}

func TestRun_MarkdownToFile(t *testing.T) {
	path := writeSample(t, "floor.vsd")
	out := filepath.Join(t.TempDir(), "floor.md")
	var stdout, stderr bytes.Buffer
	if err := run([]string{"-format", "md", "-chunks", "-1", "-o", out, path}, &stdout, &stderr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected nothing on stdout, got %q", stdout.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	md := string(data)
	if !strings.HasPrefix(md, "# floor\n") || strings.Contains(md, "## Chunks") {
		t.Errorf("unexpected outline:\n%s", md)
	}
}

func TestRun_Streams(t *testing.T) {
	path := writeSample(t, "floor.vsd")
	var stdout, stderr bytes.Buffer
	if err := run([]string{"-streams", path}, &stdout, &stderr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "\tVisioDocument\t4096\n") {
		t.Errorf("expected VisioDocument entry, got %q", stdout.String())
	}
}

func TestRun_Errors(t *testing.T) {
	path := writeSample(t, "floor.vsd")
	txt := filepath.Join(t.TempDir(), "notes.txt")
	os.WriteFile(txt, []byte("hi"), 0o644)

	cases := map[string][]string{
		"no files":       {},
		"bad format":     {"-format", "pdf", path},
		"unsupported":    {txt},
		"missing file":   {filepath.Join(t.TempDir(), "nope.vsd")},
		"unknown flag":   {"-bogus", path},
		"not a compound": {"-streams", txt},
	}
	for name, args := range cases {
		var stdout, stderr bytes.Buffer
		if err := run(args, &stdout, &stderr); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
