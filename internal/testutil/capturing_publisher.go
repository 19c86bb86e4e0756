package testutil

import (
	"context"
	"sync"

	"github.com/subkit/subkit/internal/types"
)

// CapturingWebhookPublisher records every webhook event instead of
// delivering it, so tests can assert on what the engine emitted.
type CapturingWebhookPublisher struct {
	mu     sync.Mutex
	events []*types.WebhookEvent
}

// NewCapturingWebhookPublisher creates an empty capturing publisher
func NewCapturingWebhookPublisher() *CapturingWebhookPublisher {
	return &CapturingWebhookPublisher{}
}

func (p *CapturingWebhookPublisher) PublishWebhook(ctx context.Context, event *types.WebhookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *CapturingWebhookPublisher) Close() error {
	return nil
}

// Events returns every captured event
func (p *CapturingWebhookPublisher) Events() []*types.WebhookEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*types.WebhookEvent(nil), p.events...)
}

// EventNames returns the names of captured events in publication order
func (p *CapturingWebhookPublisher) EventNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.EventName)
	}
	return names
}

// LastEvent returns the most recently captured event, or nil
func (p *CapturingWebhookPublisher) LastEvent() *types.WebhookEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}
