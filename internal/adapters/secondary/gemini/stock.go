package gemini

import (
	"net/url"
	"strings"

	"github.com/gosimple/slug"

	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// stockSize is the edge length of requested stock photos
const stockSize = "1080"

// StockProvider builds deterministic stock photo URLs seeded by the prompt
type StockProvider struct {
	baseURL string
}

// NewStockProvider creates a provider for a picsum-compatible service
func NewStockProvider(baseURL string) *StockProvider {
	if baseURL == "" {
		baseURL = "https://picsum.photos"
	}
	return &StockProvider{baseURL: strings.TrimRight(baseURL, "/")}
}

// StockImage returns the stock photo URL for prompt. Equal prompts give equal URLs.
func (p *StockProvider) StockImage(prompt string) string {
	seed := slug.Make(prompt)
	if seed == "" {
		seed = "carousel"
	}
	return p.baseURL + "/seed/" + url.PathEscape(seed) + "/" + stockSize + "/" + stockSize
}

var _ ports.StockImageProvider = (*StockProvider)(nil)
