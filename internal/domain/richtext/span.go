package richtext

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HasAncestorStyle reports whether an element between the selection's start
// container and the region root carries the style's property. The value is
// not compared.
func (d *Document) HasAncestorStyle(sel Selection, style Style) bool {
	return d.styledAncestor(sel, style.Property) != nil
}

// WrapSelection moves the selected text into a new span carrying style. Text
// nodes are split at the boundaries, and a boundary that starts or ends an
// element is lifted to that element so the span can enclose whole siblings.
// When that is not possible ErrNonContiguousRange is returned and the
// document is left untouched. The returned selection covers the new span.
func (d *Document) WrapSelection(sel Selection, style Style) (Selection, error) {
	sel = sel.Normalize()
	if sel.Collapsed() {
		return sel, ErrCollapsedSelection
	}

	work := d.Clone()
	start, err := work.resolve(sel.Start, true)
	if err != nil {
		return sel, err
	}
	end, err := work.resolve(sel.End, false)
	if err != nil {
		return sel, err
	}

	first := start.node
	if start.offset > 0 {
		first = splitText(start.node, start.offset)
		if end.node == start.node {
			end.node = first
			end.offset -= start.offset
		}
	}
	last := end.node
	if end.offset < utf8.RuneCountInString(last.Data) {
		splitText(last, end.offset)
	}

	parent := commonAncestor(first, last)
	for first.Parent != parent {
		if hasContentBefore(first) {
			return sel, fmt.Errorf("start boundary inside <%s>: %w", first.Parent.Data, ErrNonContiguousRange)
		}
		first = first.Parent
	}
	for last.Parent != parent {
		if hasContentAfter(last) {
			return sel, fmt.Errorf("end boundary inside <%s>: %w", last.Parent.Data, ErrNonContiguousRange)
		}
		last = last.Parent
	}

	span := newElement(atom.Span, []html.Attribute{{Key: "style", Val: style.String()}})
	parent.InsertBefore(span, first)
	for n := first; n != nil; {
		next := n.NextSibling
		parent.RemoveChild(n)
		span.AppendChild(n)
		if n == last {
			break
		}
		n = next
	}

	// same-kind spans never nest
	for _, inner := range styledDescendants(span, style.Property) {
		if removeStyleValue(inner, style.Property) == 0 && inner.Data == "span" && len(inner.Attr) == 0 {
			unwrapNode(inner)
		}
	}

	d.root = work.root
	return sel, nil
}

// UnwrapAncestorStyle removes the nearest ancestor span carrying the style's
// property. A span with other declarations keeps them and stays in place.
func (d *Document) UnwrapAncestorStyle(sel Selection, style Style) error {
	work := d.Clone()
	span := work.styledAncestor(sel.Normalize(), style.Property)
	if span == nil {
		return fmt.Errorf("%s: %w", style.Property, ErrStyleNotActive)
	}

	if removeStyleValue(span, style.Property) == 0 && span.Data == "span" && len(span.Attr) == 0 {
		unwrapNode(span)
	}

	d.root = work.root
	return nil
}

// ToggleStyle unwraps the style when active at the selection, wraps it otherwise
func (d *Document) ToggleStyle(sel Selection, style Style) error {
	if sel.Collapsed() {
		return ErrCollapsedSelection
	}
	if d.HasAncestorStyle(sel, style) {
		return d.UnwrapAncestorStyle(sel, style)
	}
	_, err := d.WrapSelection(sel, style)
	return err
}

func (d *Document) styledAncestor(sel Selection, property string) *html.Node {
	pos, err := d.resolve(sel.Normalize().Start, true)
	if err != nil {
		return nil
	}
	for n := pos.node.Parent; n != nil && n != d.root; n = n.Parent {
		if _, ok := styleValue(n, property); ok {
			return n
		}
	}
	return nil
}

func styledDescendants(n *html.Node, property string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if _, ok := styleValue(c, property); ok {
			out = append(out, c)
		}
		out = append(out, styledDescendants(c, property)...)
	}
	return out
}

func commonAncestor(a, b *html.Node) *html.Node {
	seen := make(map[*html.Node]bool)
	for n := a.Parent; n != nil; n = n.Parent {
		seen[n] = true
	}
	for n := b.Parent; n != nil; n = n.Parent {
		if seen[n] {
			return n
		}
	}
	return nil
}

func hasContentBefore(n *html.Node) bool {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if !isBlank(s) {
			return true
		}
	}
	return false
}

func hasContentAfter(n *html.Node) bool {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if !isBlank(s) {
			return true
		}
	}
	return false
}
