// Package parser imports markdown outlines into carousels.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

// Frontmatter holds the carousel-level settings an outline may declare
type Frontmatter struct {
	Topic    string `yaml:"topic"`
	Template string `yaml:"template"`
	Logo     string `yaml:"logo"`
}

// OutlineParser turns markdown into a carousel: every level one or two
// heading starts a slide, paragraphs and list items become body lines.
type OutlineParser struct {
	md goldmark.Markdown
}

// NewOutlineParser creates a goldmark backed outline parser
func NewOutlineParser() *OutlineParser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Strikethrough, // ~~strike~~
			extension.Linkify,
		),
	)

	return &OutlineParser{md: md}
}

// Parse implements ports.OutlineParser
func (p *OutlineParser) Parse(ctx context.Context, content []byte) (*entities.Carousel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	fm, body, err := extractFrontmatter(content)
	if err != nil {
		return nil, err
	}

	doc := p.md.Parser().Parse(text.NewReader(body))

	b := &outlineBuilder{src: body}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		b.block(n)
	}
	b.finish()

	if len(b.slides) == 0 {
		return nil, entities.NewValidationError("outline", "no slides found")
	}

	carousel := entities.NewCarousel(fm.Topic, b.slides...)
	if fm.Template != "" {
		carousel, err = carousel.WithTemplate(fm.Template)
		if err != nil {
			return nil, fmt.Errorf("outline frontmatter: %w", err)
		}
	}
	if fm.Logo != "" {
		carousel = carousel.WithLogo(fm.Logo)
	}
	if carousel.Topic == "" {
		carousel.Topic = plainTitle(b.slides[0].Title)
	}

	if err := carousel.Validate(); err != nil {
		return nil, fmt.Errorf("invalid outline: %w", err)
	}

	return &carousel, nil
}

// extractFrontmatter splits an optional leading YAML block from the markdown body
func extractFrontmatter(content []byte) (Frontmatter, []byte, error) {
	var fm Frontmatter

	if !bytes.HasPrefix(content, []byte("---\n")) {
		return fm, content, nil
	}

	lines := bytes.Split(content, []byte("\n"))
	endIndex := -1
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			endIndex = i
			break
		}
	}

	if endIndex == -1 {
		return fm, content, nil
	}

	raw := bytes.Join(lines[1:endIndex], []byte("\n"))
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &fm); err != nil {
			return fm, nil, entities.NewValidationError("frontmatter", err.Error())
		}
	}

	return fm, bytes.Join(lines[endIndex+1:], []byte("\n")), nil
}

// outlineBuilder accumulates slides while walking top level blocks
type outlineBuilder struct {
	src     []byte
	slides  []entities.Slide
	current *entities.Slide
}

func (b *outlineBuilder) finish() {
	if b.current != nil {
		b.slides = append(b.slides, *b.current)
		b.current = nil
	}
}

func (b *outlineBuilder) slide() *entities.Slide {
	if b.current == nil {
		s := entities.NewSlide("")
		b.current = &s
	}
	return b.current
}

func (b *outlineBuilder) block(n ast.Node) {
	switch node := n.(type) {
	case *ast.Heading:
		if node.Level <= 2 {
			b.finish()
			s := entities.NewSlide(b.inline(node))
			b.current = &s
			return
		}
		b.line(b.inline(node))

	case *ast.Paragraph, *ast.TextBlock:
		b.line(b.inline(node))

	case *ast.List:
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			for child := item.FirstChild(); child != nil; child = child.NextSibling() {
				b.block(child)
			}
		}

	case *ast.Blockquote:
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			b.block(child)
		}

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := n.Lines()
		parts := make([]string, 0, lines.Len())
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			parts = append(parts, html.EscapeString(strings.TrimRight(string(seg.Value(b.src)), "\n")))
		}
		b.line(strings.Join(parts, "<br>"))
	}
}

// line appends a non-empty body line to the current slide
func (b *outlineBuilder) line(fragment string) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return
	}
	s := b.slide()
	s.Content = append(s.Content, fragment)
}

// inline renders the inline children of n as a rich-text fragment. Images are
// collected as candidates instead of rendered.
func (b *outlineBuilder) inline(n ast.Node) string {
	var sb strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		b.renderInline(&sb, child)
	}
	return sb.String()
}

func (b *outlineBuilder) renderInline(sb *strings.Builder, n ast.Node) {
	switch node := n.(type) {
	case *ast.Text:
		sb.WriteString(html.EscapeString(string(node.Segment.Value(b.src))))
		switch {
		case node.HardLineBreak():
			sb.WriteString("<br>")
		case node.SoftLineBreak():
			sb.WriteString(" ")
		}

	case *ast.String:
		sb.WriteString(html.EscapeString(string(node.Value)))

	case *ast.CodeSpan:
		sb.WriteString(html.EscapeString(b.plain(node)))

	case *ast.Emphasis:
		tag := "i"
		if node.Level >= 2 {
			tag = "b"
		}
		sb.WriteString("<" + tag + ">")
		sb.WriteString(b.inline(node))
		sb.WriteString("</" + tag + ">")

	case *extast.Strikethrough:
		sb.WriteString("<s>")
		sb.WriteString(b.inline(node))
		sb.WriteString("</s>")

	case *ast.Link:
		sb.WriteString(b.inline(node))

	case *ast.AutoLink:
		sb.WriteString(html.EscapeString(string(node.Label(b.src))))

	case *ast.Image:
		b.image(node)
	}
}

// image records an outline image as a background candidate; its alt text is the prompt
func (b *outlineBuilder) image(img *ast.Image) {
	s := b.slide()

	if prompt := strings.TrimSpace(b.plain(img)); prompt != "" && s.ImagePrompt == "" {
		s.ImagePrompt = prompt
	}

	if dest := strings.TrimSpace(string(img.Destination)); dest != "" {
		*s = s.WithImage(dest)
	}
}

// plain concatenates the raw text below n
func (b *outlineBuilder) plain(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(b.src))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// plainTitle strips the inline markup produced by the outline renderer
func plainTitle(fragment string) string {
	r := strings.NewReplacer("<b>", "", "</b>", "", "<i>", "", "</i>", "", "<s>", "", "</s>", "", "<br>", " ")
	return html.UnescapeString(r.Replace(fragment))
}
