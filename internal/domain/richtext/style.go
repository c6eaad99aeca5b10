package richtext

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"
)

// Style is one inline CSS declaration
type Style struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

var (
	// ShadowStyle is the declaration applied by the shadow command
	ShadowStyle = Style{Property: "text-shadow", Value: "2px 2px 4px rgba(0,0,0,0.5)"}

	// OutlineStyle is the declaration applied by the outline command
	OutlineStyle = Style{Property: "-webkit-text-stroke", Value: "1px #000000"}
)

func (s Style) String() string {
	return s.Property + ": " + s.Value
}

// ParseStyle reads the declarations of an inline style attribute in order.
// Malformed declarations are skipped.
func ParseStyle(attr string) []Style {
	if strings.TrimSpace(attr) == "" {
		return nil
	}

	parser := css.NewParser(parse.NewInput(strings.NewReader(attr)), true)

	var out []Style
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if parser.Err() != nil {
				return out
			}
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			value := joinTokens(parser.Values())
			if value == "" {
				continue
			}
			out = append(out, Style{
				Property: strings.ToLower(string(data)),
				Value:    value,
			})
		}
	}
}

// FormatStyle serialises declarations into an inline style attribute
func FormatStyle(styles []Style) string {
	parts := make([]string, len(styles))
	for i, s := range styles {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}

func joinTokens(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			continue
		}
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

// styleValue returns the value of property in the element's style attribute
func styleValue(n *html.Node, property string) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}
	raw, ok := attr(n, "style")
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

// setStyleValue updates or appends a property in the element's style attribute
func setStyleValue(n *html.Node, property, value string) {
	raw, _ := attr(n, "style")
	styles := ParseStyle(raw)
	for i := range styles {
		if styles[i].Property == property {
			styles[i].Value = value
			setAttr(n, "style", FormatStyle(styles))
			return
		}
	}
	styles = append(styles, Style{Property: property, Value: value})
	setAttr(n, "style", FormatStyle(styles))
}

// removeStyleValue drops a property and reports how many declarations remain
func removeStyleValue(n *html.Node, property string) int {
	raw, _ := attr(n, "style")
	styles := ParseStyle(raw)
	kept := styles[:0]
	for _, s := range styles {
		if s.Property != property {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		removeAttr(n, "style")
		return 0
	}
	setAttr(n, "style", FormatStyle(kept))
	return len(kept)
}
