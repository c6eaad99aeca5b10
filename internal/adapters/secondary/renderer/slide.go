package renderer

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// slideView is the template data of one rendered slide
type slideView struct {
	Index      int
	SurfaceID  string
	ID         string
	Number     int
	Total      int
	Title      template.HTML
	Content    []template.HTML
	Image      template.URL
	Prompt     string
	Generated  bool
	Candidates []candidateView
}

type candidateView struct {
	Index    int
	URL      template.URL
	Selected bool
}

// safeImageURL admits remote images and inline image data only
func safeImageURL(ref string) (template.URL, bool) {
	switch {
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "data:image/"):
		return template.URL(ref), true // #nosec G203 - scheme checked above
	default:
		return "", false
	}
}

func newSlideView(slide entities.Slide, index, total int) slideView {
	view := slideView{
		Index:     index,
		SurfaceID: ports.SurfaceID(index),
		ID:        slide.ID,
		Number:    index + 1,
		Total:     total,
		Title:     template.HTML(Sanitize(slide.Title)), // #nosec G203 - sanitised
		Prompt:    slide.ImagePrompt,
		Generated: slide.Generated,
	}
	for _, line := range slide.Content {
		view.Content = append(view.Content, template.HTML(Sanitize(line))) // #nosec G203 - sanitised
	}
	if ref, ok := slide.SelectedImage(); ok {
		view.Image, _ = safeImageURL(ref)
	}
	for i, ref := range slide.ImageURLs {
		if u, ok := safeImageURL(ref); ok {
			view.Candidates = append(view.Candidates, candidateView{Index: i, URL: u, Selected: i == slide.SelectedImageIndex})
		}
	}
	return view
}

// templateCSS renders the template's colours as CSS custom properties
func templateCSS(t entities.Template) template.CSS {
	background := t.Background
	if t.BackgroundEnd != "" {
		background = fmt.Sprintf("linear-gradient(180deg, %s, %s)", t.Background, t.BackgroundEnd)
	}
	css := fmt.Sprintf("--slide-bg: %s; --slide-text: %s; --slide-accent: %s; --slide-overlay: %.2f; --font-scale: %.2f; --title-align: %s; --body-align: %s;",
		background, t.TextColor, t.AccentColor, t.Overlay, t.FontScale, t.TitleAlign, t.BodyAlign)
	return template.CSS(css) // #nosec G203 - built from validated template values
}
