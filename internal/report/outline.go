// Package report renders decoded documents as Markdown outlines and HTML
// pages.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/vsdgest/internal/doctree"
)

// DefaultChunkDepth bounds the chunk listing when Options.ChunkDepth is unset.
const DefaultChunkDepth = 4

// Options controls outline rendering.
type Options struct {
	// ChunkDepth is the deepest chunk level listed. Negative omits the
	// chunk section.
	ChunkDepth int
}

// Outline renders tree as a Markdown document: a summary, the pages with
// their shapes nested by group, the stencils, and the chunk tree.
func Outline(tree *doctree.DocTree, opts Options) []byte {
	if opts.ChunkDepth == 0 {
		opts.ChunkDepth = DefaultChunkDepth
	}
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", escape(tree.Title))
	st := tree.Stats
	fmt.Fprintf(&b, "- Kind: %s\n", tree.Kind)
	fmt.Fprintf(&b, "- Pages: %d\n", len(tree.Pages))
	fmt.Fprintf(&b, "- Shapes: %d\n", tree.Shapes())
	fmt.Fprintf(&b, "- Stencils: %d\n", len(tree.Stencils))
	fmt.Fprintf(&b, "- Chunks: %d (%d directories, %d compressed, %d cyclic, max level %d)\n\n",
		st.Chunks, st.Directories, st.Compressed, st.Cyclic, st.MaxLevel)

	if len(tree.Pages) > 0 {
		b.WriteString("## Pages\n\n")
		for i, pg := range tree.Pages {
			writePage(&b, i, pg)
		}
	}

	if len(tree.Stencils) > 0 {
		b.WriteString("## Stencils\n\n")
		for _, s := range tree.Stencils {
			fmt.Fprintf(&b, "### Stencil %d\n\n", s.ID)
			if len(s.Shapes) == 0 {
				b.WriteString("No master shapes.\n\n")
				continue
			}
			for _, m := range s.Shapes {
				fmt.Fprintf(&b, "- %s %d at 0x%x (%d bytes)\n", m.Type, m.ID, m.Offset, m.Length)
			}
			b.WriteString("\n")
		}
	}

	if opts.ChunkDepth > 0 && tree.Root != nil {
		b.WriteString("## Chunks\n\n")
		tree.Root.Walk(func(n *doctree.DocNode) bool {
			if n.Level > opts.ChunkDepth {
				return false
			}
			b.WriteString(strings.Repeat("  ", n.Level))
			b.WriteString("- ")
			b.WriteString(chunkLine(n))
			b.WriteString("\n")
			return true
		})
		b.WriteString("\n")
	}
	return b.Bytes()
}

func writePage(b *bytes.Buffer, i int, pg *doctree.Page) {
	kind := "Foreground"
	if pg.Background {
		kind = "Background"
	}
	fmt.Fprintf(b, "### Page %d\n\n", i)
	fmt.Fprintf(b, "%s page %d, %d shapes.\n\n", kind, pg.ID, len(pg.Shapes))
	if len(pg.Shapes) == 0 {
		return
	}

	depth := make(map[uint32]int, len(pg.Shapes))
	for _, s := range pg.Shapes {
		d := 0
		if s.Group != nil {
			d = depth[*s.Group] + 1
		}
		depth[s.ID] = d
		b.WriteString(strings.Repeat("  ", d))
		fmt.Fprintf(b, "- %s %d", s.Type, s.ID)
		if s.Foreign != nil {
			fmt.Fprintf(b, " (foreign data %d)", *s.Foreign)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func chunkLine(n *doctree.DocNode) string {
	var sb strings.Builder
	sb.WriteString(n.Type)
	if n.Level > 0 {
		fmt.Fprintf(&sb, " #%d", n.Index)
	}
	fmt.Fprintf(&sb, " at 0x%x, %s, %d bytes", n.Offset, n.Layout, n.Size)
	if n.Cyclic {
		sb.WriteString(", cyclic")
	}
	return sb.String()
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"#", `\#`, "<", `\<`, ">", `\>`, "!", `\!`,
)

func escape(s string) string {
	if s == "" {
		return "Untitled"
	}
	return mdEscaper.Replace(s)
}
