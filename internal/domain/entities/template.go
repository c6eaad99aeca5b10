package entities

import (
	"errors"
	"fmt"
	"image/color"
	"slices"
	"strconv"
	"strings"
)

// Alignment is a horizontal text alignment
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "justify"
)

// Template is a visual slide template
type Template struct {
	// Name is the template identifier
	Name string `toml:"name" json:"name"`

	// DisplayName is the human-readable template name
	DisplayName string `toml:"display_name" json:"displayName"`

	// Background is the slide background colour (#rrggbb)
	Background string `toml:"background" json:"background"`

	// BackgroundEnd turns the background into a vertical gradient when set
	BackgroundEnd string `toml:"background_end" json:"backgroundEnd,omitempty"`

	// TextColor is the default text colour
	TextColor string `toml:"text_color" json:"textColor"`

	// AccentColor is used for the title underline and slide counter
	AccentColor string `toml:"accent_color" json:"accentColor"`

	// FontScale multiplies the base font sizes
	FontScale float64 `toml:"font_scale" json:"fontScale"`

	// TitleAlign and BodyAlign are the default alignments
	TitleAlign Alignment `toml:"title_align" json:"titleAlign"`
	BodyAlign  Alignment `toml:"body_align" json:"bodyAlign"`

	// Overlay is the opacity (0..1) of the background colour drawn over a background image
	Overlay float64 `toml:"overlay" json:"overlay"`
}

// Validate ensures the template has valid required fields
func (t *Template) Validate() error {
	if t.Name == "" {
		return errors.New("template name is required")
	}

	// Name should be lowercase with only alphanumeric and hyphens
	if !isValidTemplateName(t.Name) {
		return errors.New("template name must contain only lowercase letters, numbers, and hyphens")
	}

	if t.DisplayName == "" {
		t.DisplayName = t.Name
	}

	for field, value := range map[string]string{
		"background": t.Background,
		"text_color": t.TextColor,
	} {
		if _, err := ParseHexColor(value); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}

	if t.BackgroundEnd != "" {
		if _, err := ParseHexColor(t.BackgroundEnd); err != nil {
			return fmt.Errorf("background_end: %w", err)
		}
	}

	if t.FontScale <= 0 {
		t.FontScale = 1
	}

	if t.Overlay < 0 || t.Overlay > 1 {
		return errors.New("overlay must be between 0 and 1")
	}

	return nil
}

// BuiltinTemplates returns the shipped templates in display order
func BuiltinTemplates() []Template {
	return []Template{
		{Name: "minimal", DisplayName: "Minimal", Background: "#ffffff", TextColor: "#1a202c", AccentColor: "#3182ce", FontScale: 1, TitleAlign: AlignLeft, BodyAlign: AlignLeft, Overlay: 0.75},
		{Name: "bold", DisplayName: "Bold", Background: "#111111", TextColor: "#ffffff", AccentColor: "#f6e05e", FontScale: 1.15, TitleAlign: AlignLeft, BodyAlign: AlignLeft, Overlay: 0.55},
		{Name: "gradient", DisplayName: "Gradient", Background: "#6b46c1", BackgroundEnd: "#d53f8c", TextColor: "#ffffff", AccentColor: "#fefcbf", FontScale: 1, TitleAlign: AlignCenter, BodyAlign: AlignCenter, Overlay: 0.6},
		{Name: "dark", DisplayName: "Dark", Background: "#1a202c", TextColor: "#e2e8f0", AccentColor: "#68d391", FontScale: 1, TitleAlign: AlignLeft, BodyAlign: AlignLeft, Overlay: 0.7},
		{Name: "pastel", DisplayName: "Pastel", Background: "#fef6e4", TextColor: "#172c66", AccentColor: "#f582ae", FontScale: 1, TitleAlign: AlignCenter, BodyAlign: AlignLeft, Overlay: 0.8},
	}
}

// BuiltinTemplate looks a shipped template up by name
func BuiltinTemplate(name string) (Template, bool) {
	templates := BuiltinTemplates()
	i := slices.IndexFunc(templates, func(t Template) bool { return t.Name == name })
	if i < 0 {
		return Template{}, false
	}
	return templates[i], true
}

// ResolveTemplate returns the named template, falling back to the default one
func ResolveTemplate(name string) Template {
	if t, ok := BuiltinTemplate(name); ok {
		return t
	}
	t, _ := BuiltinTemplate(DefaultTemplate)
	return t
}

// ParseHexColor parses #rgb or #rrggbb into an opaque colour
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// isValidTemplateName checks if a template name is valid
func isValidTemplateName(name string) bool {
	if name == "" {
		return false
	}

	for _, char := range name {
		isLowercase := char >= 'a' && char <= 'z'
		isDigit := char >= '0' && char <= '9'
		isHyphen := char == '-'

		if !isLowercase && !isDigit && !isHyphen {
			return false
		}
	}

	// Cannot start or end with hyphen
	return !strings.HasPrefix(name, "-") && !strings.HasSuffix(name, "-")
}
