package entities

import "time"

// Draft is the persisted snapshot of the working carousel
type Draft struct {
	Topic    string    `json:"topic,omitempty"`
	Slides   []Slide   `json:"slides"`
	Logo     string    `json:"logo,omitempty"`
	Template string    `json:"template"`
	SavedAt  time.Time `json:"savedAt"`
}

// DraftOf captures a carousel as a draft
func DraftOf(c Carousel, savedAt time.Time) Draft {
	c = c.Clone()
	return Draft{
		Topic:    c.Topic,
		Slides:   c.Slides,
		Logo:     c.Logo,
		Template: c.Template,
		SavedAt:  savedAt,
	}
}

// Carousel restores the draft; an unknown template falls back to the default
func (d Draft) Carousel() Carousel {
	c := NewCarousel(d.Topic, d.Slides...)
	c.Logo = d.Logo
	if _, ok := BuiltinTemplate(d.Template); ok {
		c.Template = d.Template
	}
	c.UpdatedAt = d.SavedAt
	return c
}
