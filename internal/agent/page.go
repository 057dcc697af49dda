package agent

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags are the elements whose text is submitted as one unit.
var blockTags = map[atom.Atom]bool{
	atom.Div:        true,
	atom.P:          true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Blockquote: true,
	atom.Pre:        true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Li:         true,
	atom.Table:      true,
	atom.Section:    true,
	atom.Article:    true,
	atom.Aside:      true,
	atom.Main:       true,
	atom.Nav:        true,
	atom.Footer:     true,
	atom.Header:     true,
}

// Page is a parsed HTML document the agent operates on. The agent edits
// attributes from timer callbacks, so reads go through FindByID and Render.
type Page struct {
	mu   sync.RWMutex
	root *html.Node
}

// ParsePage reads an HTML document.
func ParsePage(r io.Reader) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Page{root: root}, nil
}

// FindByID returns the first element with the given id attribute.
func (p *Page) FindByID(id string) *html.Node {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var found *html.Node
	walk(p.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Render writes the document back out.
func (p *Page) Render(w io.Writer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return html.Render(w, p.root)
}

func (p *Page) setStyle(n *html.Node, style string, present bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	setAttr(n, "style", style, present)
}

// BlockAncestor walks up from n, n included, to the nearest block-level
// element. It returns nil when there is none.
func BlockAncestor(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && blockTags[n.DataAtom] {
			return n
		}
	}
	return nil
}

// TextContent concatenates every text node below n.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// setAttr sets key on n, or removes it when present is false.
func setAttr(n *html.Node, key, val string, present bool) {
	for i, a := range n.Attr {
		if a.Key != key {
			continue
		}
		if !present {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
		n.Attr[i].Val = val
		return
	}
	if present {
		n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	}
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
