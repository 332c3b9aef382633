// Command vsddump decodes binary Visio files and prints their chunk tree,
// pages and stencils.
//
//	vsddump [-format json|md|html] [-depth n] [-chunks n] [-stencils] [-streams] [-o file] file...
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/vsdgest/internal/doctree"
	"github.com/dgallion1/vsdgest/internal/parser"
	"github.com/dgallion1/vsdgest/internal/report"
	"github.com/dgallion1/vsdgest/internal/storage"
	"github.com/dgallion1/vsdgest/internal/vsd"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "vsddump: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("vsddump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		format   = fs.String("format", "json", "output format: json, md or html")
		depth    = fs.Int("depth", 0, "maximum directory nesting (0 for the default)")
		chunks   = fs.Int("chunks", 0, "deepest chunk level in md and html output (-1 omits chunks)")
		stencils = fs.Bool("stencils", false, "walk stencil pages like drawing pages")
		streams  = fs.Bool("streams", false, "list compound file streams instead of decoding")
		out      = fs.String("o", "", "write output to file instead of stdout")
		verbose  = fs.Bool("v", false, "log decoder diagnostics to stderr")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: vsddump [flags] file...\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no input files")
	}
	switch *format {
	case "json", "md", "html":
	default:
		return fmt.Errorf("unknown format %q", *format)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	var buf bytes.Buffer
	for _, name := range fs.Args() {
		data, err := os.ReadFile(name)
		if err != nil {
			return err
		}

		if *streams {
			if err := listStreams(&buf, name, data); err != nil {
				return err
			}
			continue
		}

		opts := vsd.Options{MaxDepth: *depth, ExtractStencils: *stencils, Logger: log.With("file", name)}
		p, err := parser.ForFile(name, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		tree, err := p.Parse(bytes.NewReader(data), filepath.Base(name))
		if err != nil {
			return err
		}
		if err := render(&buf, tree, *format, report.Options{ChunkDepth: *chunks}); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if *out == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(*out, buf.Bytes(), 0o644)
}

func render(w *bytes.Buffer, tree *doctree.DocTree, format string, opts report.Options) error {
	switch format {
	case "md":
		w.Write(report.Outline(tree, opts))
	case "html":
		page, err := report.HTML(tree, opts)
		if err != nil {
			return err
		}
		w.Write(page)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	}
	return nil
}

func listStreams(w io.Writer, name string, data []byte) error {
	f, err := storage.Open(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, s := range f.Streams() {
		fmt.Fprintf(w, "%s\t%s\t%d\n", name, s.Path, s.Size)
	}
	return nil
}
