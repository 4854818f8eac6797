// Package eventbus is the in-process fan-out used to broadcast engine events.
package eventbus

// Event represents an arbitrary event passed on the bus.
type Event any

// EventBus is the untyped publish/subscribe contract.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus carries events of any type.
type Bus = TypedBus[Event]

// New creates a new Bus.
func New(opts ...Option) *Bus { return NewTyped[Event](opts...) }

// dropCounter is implemented by buses that count missed deliveries.
type dropCounter interface{ countDrop() }

// SubscribeTo forwards the events of type E published on bus. A forward
// missed because the typed channel is full counts as a drop on buses that
// track them. The returned cancel function unsubscribes and closes the typed
// channel.
func SubscribeTo[E any](bus EventBus) (<-chan E, func()) {
	src := bus.Subscribe()
	out := make(chan E, DefaultBuffer)
	drops, _ := bus.(dropCounter)
	go func() {
		defer close(out)
		for ev := range src {
			if e, ok := ev.(E); ok {
				select {
				case out <- e:
				default:
					if drops != nil {
						drops.countDrop()
					}
				}
			}
		}
	}()
	return out, func() { bus.Unsubscribe(src) }
}
