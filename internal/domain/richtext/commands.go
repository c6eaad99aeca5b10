package richtext

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Command is a formatting command kind
type Command string

const (
	Bold          Command = "bold"
	Italic        Command = "italic"
	Underline     Command = "underline"
	Strikethrough Command = "strikeThrough"
	JustifyLeft   Command = "justifyLeft"
	JustifyCenter Command = "justifyCenter"
	JustifyRight  Command = "justifyRight"
	JustifyFull   Command = "justifyFull"
	FontName      Command = "fontName"
	FontSize      Command = "fontSize"
	ForeColor     Command = "foreColor"
	Shadow        Command = "shadow"
	Outline       Command = "outline"
)

// Togglable lists the kinds reported in the active-style set
func Togglable() []Command {
	return []Command{
		Bold, Italic, Underline, Strikethrough,
		JustifyLeft, JustifyCenter, JustifyRight, JustifyFull,
		Shadow, Outline,
	}
}

// Known reports whether the command kind exists
func (c Command) Known() bool {
	return c.IsToggle() || c.IsAlignment() || c.IsValue() || c.IsCustomStyle()
}

// IsToggle reports whether the command toggles an element mark on and off
func (c Command) IsToggle() bool {
	_, ok := toggleTags[c]
	return ok
}

// IsAlignment reports whether the command sets region alignment
func (c Command) IsAlignment() bool {
	_, ok := alignments[c]
	return ok
}

// IsValue reports whether the command carries a value
func (c Command) IsValue() bool {
	_, ok := fontAttrs[c]
	return ok
}

// IsCustomStyle reports whether the command is implemented with style spans
func (c Command) IsCustomStyle() bool {
	return c == Shadow || c == Outline
}

// Style returns the span style of a custom style command
func (c Command) Style() (Style, bool) {
	switch c {
	case Shadow:
		return ShadowStyle, true
	case Outline:
		return OutlineStyle, true
	default:
		return Style{}, false
	}
}

// toggleTags maps toggle kinds to the tags that express them; the first is
// the one written.
var toggleTags = map[Command][]string{
	Bold:          {"b", "strong"},
	Italic:        {"i", "em"},
	Underline:     {"u"},
	Strikethrough: {"s", "strike", "del"},
}

var alignments = map[Command]string{
	JustifyLeft:   "left",
	JustifyCenter: "center",
	JustifyRight:  "right",
	JustifyFull:   "justify",
}

// fontAttrs maps value kinds to the <font> attribute and the equivalent
// style property.
var fontAttrs = map[Command][2]string{
	FontName:  {"face", "font-family"},
	FontSize:  {"size", "font-size"},
	ForeColor: {"color", "color"},
}

var colorValue = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]+|rgba?\([0-9., ]+\))$`)

func (c Command) matches(m Mark) bool {
	return slices.Contains(toggleTags[c], m.Tag)
}

func (c Command) valueOf(m Mark) (string, bool) {
	names, ok := fontAttrs[c]
	if !ok {
		return "", false
	}
	if m.Tag == "font" {
		if v, ok := m.Attr(names[0]); ok {
			return v, true
		}
	}
	return m.Style(names[1])
}

func validateValue(cmd Command, value string) error {
	switch cmd {
	case FontSize:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 7 {
			return fmt.Errorf("font size %q must be 1-7: %w", value, ErrInvalidValue)
		}
	case ForeColor:
		if !colorValue.MatchString(value) {
			return fmt.Errorf("colour %q: %w", value, ErrInvalidValue)
		}
	case FontName:
		if value == "" {
			return fmt.Errorf("empty font name: %w", ErrInvalidValue)
		}
	}
	return nil
}

// Exec applies a structural command to the selection. Mark and value
// commands on a collapsed selection do nothing; alignment always applies to
// the whole region.
func (d *Document) Exec(cmd Command, value string, sel Selection) error {
	sel = sel.Normalize()

	switch {
	case cmd.IsAlignment():
		d.SetAlignment(alignments[cmd])
		return nil
	case cmd.IsCustomStyle():
		style, _ := cmd.Style()
		return d.ToggleStyle(sel, style)
	case !cmd.Known():
		return fmt.Errorf("%s: %w", cmd, ErrUnknownCommand)
	}

	if cmd.IsValue() {
		if err := validateValue(cmd, value); err != nil {
			return err
		}
	}
	if sel.Collapsed() {
		return nil
	}
	if sel.Start < 0 || sel.End > d.Len() {
		return fmt.Errorf("%d-%d: %w", sel.Start, sel.End, ErrSelectionOutOfRange)
	}

	runs := splitRuns(splitRuns(d.Runs(), sel.Start), sel.End)
	selected := selectedRuns(runs, sel)
	if len(selected) == 0 {
		return nil
	}

	if cmd.IsToggle() {
		all := true
		for _, i := range selected {
			if !runs[i].Has(cmd) {
				all = false
				break
			}
		}
		for _, i := range selected {
			if all {
				runs[i].Marks = slices.DeleteFunc(runs[i].Marks, cmd.matches)
			} else if !runs[i].Has(cmd) {
				runs[i].Marks = append(runs[i].Marks, Mark{Tag: toggleTags[cmd][0]})
			}
		}
	} else {
		key := fontAttrs[cmd][0]
		for _, i := range selected {
			runs[i].Marks = dropFontAttr(runs[i].Marks, key)
			runs[i].Marks = append(runs[i].Marks, Mark{
				Tag:   "font",
				Attrs: []html.Attribute{{Key: key, Val: value}},
			})
		}
	}

	d.setRuns(runs)
	return nil
}

func dropFontAttr(marks []Mark, key string) []Mark {
	out := marks[:0]
	for _, m := range marks {
		if m.Tag == "font" {
			m.Attrs = slices.DeleteFunc(slices.Clone(m.Attrs), func(a html.Attribute) bool { return a.Key == key })
			if len(m.Attrs) == 0 {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// QueryActive reports whether a command is in effect across the selection,
// or at the caret for a collapsed one
func (d *Document) QueryActive(cmd Command, sel Selection) bool {
	sel = sel.Normalize()

	switch {
	case cmd.IsAlignment():
		return d.Alignment() == alignments[cmd]
	case cmd.IsCustomStyle():
		style, _ := cmd.Style()
		return d.HasAncestorStyle(sel, style)
	case !cmd.IsToggle():
		return false
	}

	runs := d.Runs()
	if sel.Collapsed() {
		i := caretRun(runs, sel.Start)
		return i >= 0 && runs[i].Has(cmd)
	}

	runs = splitRuns(splitRuns(runs, sel.Start), sel.End)
	selected := selectedRuns(runs, sel)
	if len(selected) == 0 {
		return false
	}
	for _, i := range selected {
		if !runs[i].Has(cmd) {
			return false
		}
	}
	return true
}

// QueryValue returns the value of a value command at the selection start
func (d *Document) QueryValue(cmd Command, sel Selection) string {
	if !cmd.IsValue() {
		if cmd.IsAlignment() {
			return d.Alignment()
		}
		return ""
	}

	sel = sel.Normalize()
	runs := d.Runs()
	if sel.Collapsed() {
		if i := caretRun(runs, sel.Start); i >= 0 {
			return runs[i].Value(cmd)
		}
		return ""
	}

	runs = splitRuns(runs, sel.Start)
	if selected := selectedRuns(runs, sel); len(selected) > 0 {
		return runs[selected[0]].Value(cmd)
	}
	return ""
}

// Alignment returns the region alignment, "left" when none is set
func (d *Document) Alignment() string {
	if w := d.alignWrapper(); w != nil {
		if v, ok := styleValue(w, "text-align"); ok {
			return v
		}
	}
	return "left"
}

// ExplicitAlignment returns the alignment set on the region, if any
func (d *Document) ExplicitAlignment() (string, bool) {
	if w := d.alignWrapper(); w != nil {
		return styleValue(w, "text-align")
	}
	return "", false
}

// SetAlignment sets the region alignment through a root wrapper element
func (d *Document) SetAlignment(align string) {
	if w := d.alignWrapper(); w != nil {
		setStyleValue(w, "text-align", align)
		return
	}

	wrapper := newElement(atom.Div, []html.Attribute{{Key: "style", Val: Style{Property: "text-align", Value: align}.String()}})
	for c := d.root.FirstChild; c != nil; {
		next := c.NextSibling
		d.root.RemoveChild(c)
		wrapper.AppendChild(c)
		c = next
	}
	d.root.AppendChild(wrapper)
}

// alignWrapper returns the root's only element child when it is a div
// carrying text-align
func (d *Document) alignWrapper() *html.Node {
	var only *html.Node
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if isBlank(c) {
			continue
		}
		if only != nil {
			return nil
		}
		only = c
	}
	if only == nil || only.Type != html.ElementNode || only.DataAtom != atom.Div {
		return nil
	}
	if _, ok := styleValue(only, "text-align"); !ok {
		return nil
	}
	return only
}
