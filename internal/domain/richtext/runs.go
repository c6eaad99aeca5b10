package richtext

import (
	"slices"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Mark is one wrapping element of a run, outermost first
type Mark struct {
	Tag   string
	Attrs []html.Attribute
}

// Equal compares tag and attributes in order
func (m Mark) Equal(o Mark) bool {
	return m.Tag == o.Tag && slices.Equal(m.Attrs, o.Attrs)
}

// Attr returns the value of an attribute
func (m Mark) Attr(key string) (string, bool) {
	for _, a := range m.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Style returns the value of an inline style property
func (m Mark) Style(property string) (string, bool) {
	raw, ok := m.Attr("style")
	if !ok {
		return "", false
	}
	for _, s := range ParseStyle(raw) {
		if s.Property == property {
			return s.Value, true
		}
	}
	return "", false
}

// Run is a stretch of text sharing the same stack of wrapping elements.
// Break runs stand for a <br> and carry no text.
type Run struct {
	Text  string
	Marks []Mark
	Break bool
}

// Len returns the run length in runes
func (r Run) Len() int {
	return utf8.RuneCountInString(r.Text)
}

// Has reports whether any mark of the run satisfies the command's toggle kind
func (r Run) Has(cmd Command) bool {
	return slices.ContainsFunc(r.Marks, cmd.matches)
}

// Value returns the innermost value the run carries for a value command
func (r Run) Value(cmd Command) string {
	for i := len(r.Marks) - 1; i >= 0; i-- {
		if v, ok := cmd.valueOf(r.Marks[i]); ok {
			return v
		}
	}
	return ""
}

// HasStyle reports whether any mark carries the style property
func (r Run) HasStyle(property string) bool {
	return slices.ContainsFunc(r.Marks, func(m Mark) bool {
		_, ok := m.Style(property)
		return ok
	})
}

func (r Run) clone() Run {
	r.Marks = slices.Clone(r.Marks)
	for i := range r.Marks {
		r.Marks[i].Attrs = slices.Clone(r.Marks[i].Attrs)
	}
	return r
}

// Runs flattens the region into styled runs in document order. The
// alignment wrapper is not part of any run.
func (d *Document) Runs() []Run {
	var out []Run
	var walk func(n *html.Node, marks []Mark)
	walk = func(n *html.Node, marks []Mark) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if c.Data != "" {
					out = append(out, Run{Text: c.Data, Marks: slices.Clone(marks)})
				}
			case html.ElementNode:
				if c.DataAtom == atom.Br {
					out = append(out, Run{Marks: slices.Clone(marks), Break: true})
					continue
				}
				mark := Mark{Tag: c.Data, Attrs: slices.Clone(c.Attr)}
				walk(c, append(slices.Clone(marks), mark))
			}
		}
	}
	walk(d.content(), nil)
	return out
}

// setRuns replaces the region content with runs, grouping adjacent runs
// that share a mark prefix under one element.
func (d *Document) setRuns(runs []Run) {
	content := d.content()
	for c := content.FirstChild; c != nil; {
		next := c.NextSibling
		content.RemoveChild(c)
		c = next
	}
	buildRuns(content, runs, 0)
}

func buildRuns(parent *html.Node, runs []Run, depth int) {
	for i := 0; i < len(runs); {
		r := runs[i]
		if len(r.Marks) <= depth {
			appendLeaf(parent, r)
			i++
			continue
		}

		mark := r.Marks[depth]
		j := i + 1
		for j < len(runs) && len(runs[j].Marks) > depth && runs[j].Marks[depth].Equal(mark) {
			j++
		}

		el := newTag(mark.Tag, mark.Attrs)
		parent.AppendChild(el)
		buildRuns(el, runs[i:j], depth+1)
		i = j
	}
}

func appendLeaf(parent *html.Node, r Run) {
	if r.Break {
		parent.AppendChild(newElement(atom.Br, nil))
		return
	}
	if r.Text == "" {
		return
	}
	if last := parent.LastChild; last != nil && last.Type == html.TextNode {
		last.Data += r.Text
		return
	}
	parent.AppendChild(&html.Node{Type: html.TextNode, Data: r.Text})
}

// splitRuns cuts runs so that no run straddles offset
func splitRuns(runs []Run, offset int) []Run {
	out := make([]Run, 0, len(runs)+1)
	acc := 0
	for _, r := range runs {
		l := r.Len()
		if offset > acc && offset < acc+l {
			runes := []rune(r.Text)
			left, right := r.clone(), r.clone()
			left.Text = string(runes[:offset-acc])
			right.Text = string(runes[offset-acc:])
			out = append(out, left, right)
		} else {
			out = append(out, r)
		}
		acc += l
	}
	return out
}

// selectedRuns returns the indices of text runs entirely inside sel
func selectedRuns(runs []Run, sel Selection) []int {
	var idx []int
	acc := 0
	for i, r := range runs {
		l := r.Len()
		if l > 0 && sel.Contains(acc, acc+l) {
			idx = append(idx, i)
		}
		acc += l
	}
	return idx
}

// caretRun returns the index of the text run the caret takes its
// formatting from: the run ending at or containing the offset.
func caretRun(runs []Run, offset int) int {
	acc := 0
	first := -1
	for i, r := range runs {
		l := r.Len()
		if l == 0 {
			continue
		}
		if first < 0 {
			first = i
		}
		if offset > acc && offset <= acc+l {
			return i
		}
		acc += l
	}
	return first
}
