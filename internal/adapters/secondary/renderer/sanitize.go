package renderer

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	cssValue   = regexp.MustCompile(`^[0-9a-zA-Z#(),.%\s-]+$`)
	colorValue = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]+|rgba?\([0-9., ]+\))$`)
	fontSize   = regexp.MustCompile(`^[1-7]$`)
	fontFace   = regexp.MustCompile(`^[a-zA-Z0-9 ,'-]+$`)
)

// createRichTextPolicy allows exactly the markup the inline editor produces
func createRichTextPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements("b", "strong", "i", "em", "u", "s", "strike", "del", "br")
	p.AllowAttrs("face").Matching(fontFace).OnElements("font")
	p.AllowAttrs("size").Matching(fontSize).OnElements("font")
	p.AllowAttrs("color").Matching(colorValue).OnElements("font")

	p.AllowStyles("text-shadow", "-webkit-text-stroke").Matching(cssValue).OnElements("span")
	p.AllowStyles("color").Matching(colorValue).OnElements("span")
	p.AllowStyles("text-align").MatchingEnum("left", "center", "right", "justify").OnElements("div")
	p.AllowElements("span", "div", "font")

	return p
}

var richTextPolicy = createRichTextPolicy()

// Sanitize strips everything but editor formatting from a rich-text fragment
func Sanitize(fragment string) string {
	return richTextPolicy.Sanitize(fragment)
}
