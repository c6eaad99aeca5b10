package mocks

import (
	"sync"

	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// Publisher records published events
type Publisher struct {
	mu     sync.Mutex
	events []ports.UpdateEvent
}

// Publish implements ports.ProgressPublisher
func (p *Publisher) Publish(event ports.UpdateEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Events returns a copy of the recorded events
func (p *Publisher) Events() []ports.UpdateEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.UpdateEvent(nil), p.events...)
}

// OfType returns the recorded events of one type
func (p *Publisher) OfType(eventType string) []ports.UpdateEvent {
	var out []ports.UpdateEvent
	for _, e := range p.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

var _ ports.ProgressPublisher = (*Publisher)(nil)
