package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/vsdgest/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const shell = `<!DOCTYPE html><html><head><meta charset="utf-8"><title></title></head><body></body></html>`

const style = `body{font-family:sans-serif;max-width:60em;margin:2em auto}li{font-family:monospace}`

var md = goldmark.New(goldmark.WithExtensions(extension.Linkify))

// HTML renders the outline of tree as a standalone HTML page.
func HTML(tree *doctree.DocTree, opts Options) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert(Outline(tree, opts), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return page(tree.Title, body.Bytes())
}

// page wraps an HTML fragment in a document with the given title.
func page(title string, fragment []byte) ([]byte, error) {
	doc, err := html.Parse(strings.NewReader(shell))
	if err != nil {
		return nil, fmt.Errorf("parse shell: %w", err)
	}
	head := findElement(doc, atom.Head)
	titleNode := findElement(doc, atom.Title)
	bodyNode := findElement(doc, atom.Body)
	if head == nil || titleNode == nil || bodyNode == nil {
		return nil, fmt.Errorf("incomplete page shell")
	}

	if title == "" {
		title = "Untitled"
	}
	titleNode.AppendChild(&html.Node{Type: html.TextNode, Data: title})

	styleNode := &html.Node{Type: html.ElementNode, DataAtom: atom.Style, Data: "style"}
	styleNode.AppendChild(&html.Node{Type: html.TextNode, Data: style})
	head.AppendChild(styleNode)

	nodes, err := html.ParseFragment(bytes.NewReader(fragment), bodyNode)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	for _, n := range nodes {
		bodyNode.AppendChild(n)
	}

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return out.Bytes(), nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
