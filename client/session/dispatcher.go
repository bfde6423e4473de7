package session

import (
	"encoding/json"
	"sync"
)

// Listener handles one decoded event payload.
type Listener func(data json.RawMessage)

// Dispatcher routes incoming wire events to registered listeners. On
// returns a disposer, the explicit replacement for socket-style
// on/off pairs: whoever registered a listener owns taking it down.
type Dispatcher struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]Listener
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]map[int]Listener)}
}

// On registers fn for event and returns its disposer. Calling the
// disposer more than once is harmless.
func (d *Dispatcher) On(event string, fn Listener) (off func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handlers[event] == nil {
		d.handlers[event] = make(map[int]Listener)
	}
	id := d.nextID
	d.nextID++
	d.handlers[event][id] = fn

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.handlers[event], id)
	}
}

// Dispatch invokes every listener registered for event.
func (d *Dispatcher) Dispatch(event string, data json.RawMessage) {
	d.mu.Lock()
	listeners := make([]Listener, 0, len(d.handlers[event]))
	for _, fn := range d.handlers[event] {
		listeners = append(listeners, fn)
	}
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(data)
	}
}
