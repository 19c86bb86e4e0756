package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher defines the interface for publishing domain events
type Publisher interface {
	// Publish publishes an event to a topic
	Publish(ctx context.Context, topic string, msg *message.Message) error
	// Close closes the publisher
	Close() error
}

// Subscriber defines the interface for subscribing to domain events
type Subscriber interface {
	// Subscribe starts consuming events from a topic
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	// Close closes the subscriber
	Close() error
}

// PubSub combines both Publisher and Subscriber interfaces
type PubSub interface {
	Publisher
	Subscriber
}
