// Package richtext is the owned rich-text model behind every editable slide
// region. A region is an HTML fragment parsed into a node tree; selections are
// rune offsets into the region's text.
package richtext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// ErrCollapsedSelection is returned when a span operation gets an empty selection
	ErrCollapsedSelection = errors.New("selection is collapsed")

	// ErrNonContiguousRange is returned when the selected range cannot be
	// wrapped without splitting an element
	ErrNonContiguousRange = errors.New("selection does not cover a contiguous range of siblings")

	// ErrSelectionOutOfRange is returned for offsets past the region text
	ErrSelectionOutOfRange = errors.New("selection outside region text")

	// ErrStyleNotActive is returned when unwrapping a style no ancestor carries
	ErrStyleNotActive = errors.New("style not active at selection")

	// ErrUnknownCommand is returned for command kinds the editor does not know
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidValue is returned for malformed command values
	ErrInvalidValue = errors.New("invalid command value")
)

// Document is one editable region: the title or a single body line.
type Document struct {
	root *html.Node
}

// Parse builds a document from an HTML fragment
func Parse(fragment string) (*Document, error) {
	root := newElement(atom.Div, nil)
	nodes, err := html.ParseFragment(strings.NewReader(fragment), newElement(atom.Div, nil))
	if err != nil {
		return nil, fmt.Errorf("parsing rich text: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return &Document{root: root}, nil
}

// MustParse is Parse for fragments known to be well formed
func MustParse(fragment string) *Document {
	d, err := Parse(fragment)
	if err != nil {
		panic(err)
	}
	return d
}

// HTML serialises the region back into a fragment
func (d *Document) HTML() string {
	var buf bytes.Buffer
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// Text returns the plain text of the region
func (d *Document) Text() string {
	var sb strings.Builder
	for _, n := range textNodes(d.root) {
		sb.WriteString(n.Data)
	}
	return sb.String()
}

// Len returns the region length in runes
func (d *Document) Len() int {
	return utf8.RuneCountInString(d.Text())
}

// Clone returns a deep copy
func (d *Document) Clone() *Document {
	return &Document{root: cloneNode(d.root)}
}

// Equal reports whether both documents serialise identically
func (d *Document) Equal(other *Document) bool {
	return other != nil && d.HTML() == other.HTML()
}

// position is a point inside a text node, in runes
type position struct {
	node   *html.Node
	offset int
}

// resolve maps a region offset onto a text node. A forward boundary lands at
// the start of the following node when it falls between two nodes; a backward
// boundary lands at the end of the preceding one.
func (d *Document) resolve(offset int, forward bool) (position, error) {
	nodes := textNodes(d.root)
	total := 0
	for _, n := range nodes {
		total += utf8.RuneCountInString(n.Data)
	}
	if offset < 0 || offset > total || total == 0 {
		return position{}, fmt.Errorf("offset %d of %d: %w", offset, total, ErrSelectionOutOfRange)
	}

	acc := 0
	var last *html.Node
	for _, n := range nodes {
		l := utf8.RuneCountInString(n.Data)
		if l == 0 {
			continue
		}
		if forward && offset < acc+l {
			return position{node: n, offset: offset - acc}, nil
		}
		if !forward && offset <= acc+l {
			return position{node: n, offset: offset - acc}, nil
		}
		acc += l
		last = n
	}
	return position{node: last, offset: utf8.RuneCountInString(last.Data)}, nil
}

// content is the node whose children carry the region text: the alignment
// wrapper when present, else the root.
func (d *Document) content() *html.Node {
	if w := d.alignWrapper(); w != nil {
		return w
	}
	return d.root
}

func newElement(a atom.Atom, attrs []html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func newTag(tag string, attrs []html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
		Attr:     append([]html.Attribute(nil), attrs...),
	}
}

func cloneNode(n *html.Node) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(cloneNode(c))
	}
	return out
}

func textNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// splitText cuts a text node at a rune offset and returns the right half,
// which is inserted after the original node.
func splitText(n *html.Node, at int) *html.Node {
	runes := []rune(n.Data)
	right := &html.Node{Type: html.TextNode, Data: string(runes[at:])}
	n.Data = string(runes[:at])
	n.Parent.InsertBefore(right, n.NextSibling)
	return right
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// unwrapNode replaces n by its children
func unwrapNode(n *html.Node) {
	parent := n.Parent
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

func isBlank(n *html.Node) bool {
	return n.Type == html.TextNode && n.Data == ""
}
