package hub

import (
	"context"

	"chat-hub/domain/event"
)

// Sink buffers outbound events for one connection. The transport's write
// pump drains Events; the routing core never blocks on a slow consumer.
type Sink struct {
	Events chan event.DomainEvent
}

func NewSink(bufferSize int) *Sink {
	return &Sink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume hands an event to the connection's write pump. When the buffer
// is full the event is dropped; delivery is best effort and the history
// store remains the source of truth.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
