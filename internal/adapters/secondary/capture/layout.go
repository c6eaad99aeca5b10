package capture

import (
	"image/color"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/font"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/richtext"
)

// fontSizeFactors maps the legacy <font size> scale onto multiples of the base size
var fontSizeFactors = map[string]float64{
	"1": 0.625, "2": 0.8125, "3": 1, "4": 1.125, "5": 1.5, "6": 2, "7": 3,
}

var namedColors = map[string]color.RGBA{
	"black":  {A: 0xff},
	"white":  {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"red":    {R: 0xff, A: 0xff},
	"green":  {G: 0x80, A: 0xff},
	"blue":   {B: 0xff, A: 0xff},
	"yellow": {R: 0xff, G: 0xff, A: 0xff},
	"orange": {R: 0xff, G: 0xa5, A: 0xff},
	"purple": {R: 0x80, B: 0x80, A: 0xff},
	"pink":   {R: 0xff, G: 0xc0, B: 0xcb, A: 0xff},
	"gray":   {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"grey":   {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
}

// TextStyle is the resolved drawing style of one segment
type TextStyle struct {
	Font      FontStyle
	Size      float64
	Color     color.Color
	Underline bool
	Strike    bool
	Shadow    bool
	Outline   bool
}

// Segment is a piece of text placed on a line. Offset is the rune offset of
// Text within the region.
type Segment struct {
	Text   string
	Offset int
	X      float64
	Width  float64
	Style  TextStyle
	space  bool
}

// End returns the rune offset just past the segment
func (s Segment) End() int {
	return s.Offset + utf8.RuneCountInString(s.Text)
}

// Line is one laid-out line. Baseline is relative to the block top.
type Line struct {
	Segments []Segment
	Top      float64
	Height   float64
	Baseline float64
	Width    float64

	// hard marks a line ended by a <br> or the end of the region
	hard bool
}

// TextBlock is a laid-out region
type TextBlock struct {
	Lines  []Line
	Height float64
}

// LayoutOptions controls text layout
type LayoutOptions struct {
	MaxWidth   float64
	BaseSize   float64
	LineHeight float64
	Color      color.Color
	Bold       bool
	Align      string
}

type piece struct {
	text   string
	offset int
	style  TextStyle
	space  bool
	brk    bool
}

// Layout wraps the runs of a region into lines of at most MaxWidth
func Layout(runs []richtext.Run, opts LayoutOptions) (*TextBlock, error) {
	if opts.LineHeight <= 0 {
		opts.LineHeight = 1.25
	}
	if opts.Color == nil {
		opts.Color = color.Black
	}

	pieces := splitPieces(runs, opts)
	widths := make([]float64, len(pieces))
	for i, p := range pieces {
		if p.brk {
			continue
		}
		w, err := measure(p.text, p.style)
		if err != nil {
			return nil, err
		}
		widths[i] = w
	}

	block := &TextBlock{}
	var line Line
	var x float64

	flush := func(hard bool) {
		trimTrailingSpace(&line)
		line.hard = hard
		block.Lines = append(block.Lines, line)
		line = Line{}
		x = 0
	}

	for i := 0; i < len(pieces); {
		p := pieces[i]
		switch {
		case p.brk:
			flush(true)
			i++
		case p.space:
			if len(line.Segments) > 0 {
				line.Segments = append(line.Segments, Segment{Text: p.text, Offset: p.offset, X: x, Width: widths[i], Style: p.style, space: true})
				x += widths[i]
			}
			i++
		default:
			// a word may span several runs
			j := i
			var wordWidth float64
			for j < len(pieces) && !pieces[j].space && !pieces[j].brk {
				wordWidth += widths[j]
				j++
			}
			if len(line.Segments) > 0 && x+wordWidth > opts.MaxWidth && hasWord(line) {
				flush(false)
			}
			for k := i; k < j; k++ {
				line.Segments = append(line.Segments, Segment{Text: pieces[k].text, Offset: pieces[k].offset, X: x, Width: widths[k], Style: pieces[k].style})
				x += widths[k]
			}
			i = j
		}
	}
	flush(true)

	var top float64
	for i := range block.Lines {
		l := &block.Lines[i]
		size := opts.BaseSize
		for _, s := range l.Segments {
			size = max(size, s.Style.Size)
		}
		l.Top = top
		l.Height = size * opts.LineHeight
		l.Baseline = top + (l.Height-size)/2 + size*0.8
		top += l.Height
		align(l, opts.MaxWidth, opts.Align)
	}
	block.Height = top

	return block, nil
}

func hasWord(l Line) bool {
	for _, s := range l.Segments {
		if !s.space {
			return true
		}
	}
	return false
}

func trimTrailingSpace(l *Line) {
	for len(l.Segments) > 0 && l.Segments[len(l.Segments)-1].space {
		l.Segments = l.Segments[:len(l.Segments)-1]
	}
	l.Width = 0
	if n := len(l.Segments); n > 0 {
		last := l.Segments[n-1]
		l.Width = last.X + last.Width
	}
}

func align(l *Line, maxWidth float64, alignment string) {
	free := maxWidth - l.Width
	if free <= 0 || len(l.Segments) == 0 {
		return
	}

	switch entities.Alignment(alignment) {
	case entities.AlignCenter:
		shift(l.Segments, free/2)
	case entities.AlignRight:
		shift(l.Segments, free)
	case entities.AlignJustify:
		if l.hard {
			return
		}
		gaps := 0
		for _, s := range l.Segments {
			if s.space {
				gaps++
			}
		}
		if gaps == 0 {
			return
		}
		extra := free / float64(gaps)
		var offset float64
		for i := range l.Segments {
			l.Segments[i].X += offset
			if l.Segments[i].space {
				l.Segments[i].Width += extra
				offset += extra
			}
		}
		l.Width = maxWidth
	}
}

func shift(segments []Segment, dx float64) {
	for i := range segments {
		segments[i].X += dx
	}
}

func splitPieces(runs []richtext.Run, opts LayoutOptions) []piece {
	var out []piece
	offset := 0
	for _, run := range runs {
		style := resolveStyle(run, opts)
		if run.Break {
			out = append(out, piece{brk: true, offset: offset})
			continue
		}

		var sb strings.Builder
		start := offset
		inSpace := false
		emit := func() {
			if sb.Len() > 0 {
				out = append(out, piece{text: sb.String(), offset: start, style: style, space: inSpace})
				sb.Reset()
			}
		}
		for _, r := range run.Text {
			isSpace := unicode.IsSpace(r)
			if isSpace != inSpace {
				emit()
				start = offset
				inSpace = isSpace
			}
			if isSpace {
				// collapse whitespace the way a browser renders it
				if sb.Len() == 0 {
					sb.WriteRune(' ')
				}
			} else {
				sb.WriteRune(r)
			}
			offset++
		}
		emit()
	}
	return out
}

func resolveStyle(run richtext.Run, opts LayoutOptions) TextStyle {
	style := TextStyle{
		Font: FontStyle{
			Bold:   opts.Bold || run.Has(richtext.Bold),
			Italic: run.Has(richtext.Italic),
		},
		Size:      opts.BaseSize,
		Color:     opts.Color,
		Underline: run.Has(richtext.Underline),
		Strike:    run.Has(richtext.Strikethrough),
		Shadow:    run.HasStyle(richtext.ShadowStyle.Property),
		Outline:   run.HasStyle(richtext.OutlineStyle.Property),
	}

	if face := strings.ToLower(run.Value(richtext.FontName)); strings.Contains(face, "mono") || strings.Contains(face, "courier") {
		style.Font.Mono = true
	}
	if size := run.Value(richtext.FontSize); size != "" {
		style.Size = fontSize(size, opts.BaseSize)
	}
	if c, ok := ParseColor(run.Value(richtext.ForeColor)); ok {
		style.Color = c
	}
	return style
}

func fontSize(value string, base float64) float64 {
	if f, ok := fontSizeFactors[value]; ok {
		return base * f
	}
	if px, ok := strings.CutSuffix(value, "px"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(px), 64); err == nil && v > 0 {
			// CSS pixel sizes are relative to the 16px default
			return base * v / 16
		}
	}
	return base
}

// ParseColor parses the colour values a font colour command accepts
func ParseColor(value string) (color.RGBA, bool) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return color.RGBA{}, false
	}
	if c, ok := namedColors[value]; ok {
		return c, true
	}
	if strings.HasPrefix(value, "#") {
		c, err := entities.ParseHexColor(value)
		return c, err == nil
	}

	args, ok := strings.CutPrefix(value, "rgba(")
	if !ok {
		args, ok = strings.CutPrefix(value, "rgb(")
	}
	if !ok {
		return color.RGBA{}, false
	}
	parts := strings.Split(strings.TrimSuffix(args, ")"), ",")
	if len(parts) < 3 {
		return color.RGBA{}, false
	}
	var channels [3]uint8
	for i := range channels {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return color.RGBA{}, false
		}
		channels[i] = uint8(v)
	}
	alpha := uint8(0xff)
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return color.RGBA{}, false
		}
		alpha = uint8(a * 255)
	}
	// color.RGBA is alpha-premultiplied
	return color.RGBA{
		R: uint8(uint16(channels[0]) * uint16(alpha) / 255),
		G: uint8(uint16(channels[1]) * uint16(alpha) / 255),
		B: uint8(uint16(channels[2]) * uint16(alpha) / 255),
		A: alpha,
	}, true
}

func measure(text string, style TextStyle) (float64, error) {
	face, err := Face(style.Font, style.Size)
	if err != nil {
		return 0, err
	}
	defer func() { _ = face.Close() }()
	return float64(font.MeasureString(face, text)) / 64, nil
}
