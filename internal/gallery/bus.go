package gallery

import "sync"

// EventKind names an input the overlay reacts to while it is visible.
type EventKind string

const (
	EventLeft    EventKind = "left"
	EventRight   EventKind = "right"
	EventClose   EventKind = "close"
	EventKeyDown EventKind = "keydown"
)

// Event is one UI input. Key carries the key code for EventKeyDown.
type Event struct {
	Kind EventKind
	Key  int
}

// Bus delivers events to the listeners currently subscribed for their kind.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[EventKind]map[int]func(Event)
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[EventKind]map[int]func(Event))}
}

// Subscribe registers fn for kind and returns the function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(kind EventKind, fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.listeners[kind] == nil {
		b.listeners[kind] = make(map[int]func(Event))
	}
	b.listeners[kind][id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners[kind], id)
		if len(b.listeners[kind]) == 0 {
			delete(b.listeners, kind)
		}
	}
}

// Publish calls every listener for ev.Kind and reports how many ran.
// Listeners run outside the bus lock so they may subscribe or unsubscribe.
func (b *Bus) Publish(ev Event) int {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.listeners[ev.Kind]))
	for _, fn := range b.listeners[ev.Kind] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
	return len(fns)
}

// Listeners returns the number of active subscriptions.
func (b *Bus) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, set := range b.listeners {
		n += len(set)
	}
	return n
}
