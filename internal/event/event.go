// Package event provides a small typed notification hub used by the pointer
// source and the gestures to publish to their listeners.
package event

import "sync"

// Connectable is the listener-facing side of an Event.
type Connectable[T any] interface {
	Connect(fn func(T)) *Connection
}

// Event holds an ordered list of listeners for payloads of type T.
// The zero value is ready to use.
type Event[T any] struct {
	mu    sync.Mutex
	conns []*Connection
	fns   map[*Connection]func(T)
}

// Connection is the handle returned by Connect. Closing it stops delivery.
type Connection struct {
	mu     sync.Mutex
	closed bool
	close  func()
}

// Connect registers fn and returns a handle that can be closed to
// unsubscribe. Listeners are called in connection order.
func (e *Event[T]) Connect(fn func(T)) *Connection {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fns == nil {
		e.fns = make(map[*Connection]func(T))
	}

	c := &Connection{}
	c.close = func() { e.disconnect(c) }
	e.conns = append(e.conns, c)
	e.fns[c] = fn
	return c
}

// Notify calls every open listener with v. Listeners connected while
// notifying are not called until the next Notify; listeners closed while
// notifying are skipped if they have not been called yet.
func (e *Event[T]) Notify(v T) {
	e.mu.Lock()
	conns := make([]*Connection, len(e.conns))
	copy(conns, e.conns)
	e.mu.Unlock()

	for _, c := range conns {
		if c.Closed() {
			continue
		}
		e.mu.Lock()
		fn := e.fns[c]
		e.mu.Unlock()
		if fn != nil {
			fn(v)
		}
	}
}

// Len returns the number of open connections.
func (e *Event[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.conns)
}

// CloseAll closes every connection.
func (e *Event[T]) CloseAll() {
	e.mu.Lock()
	conns := e.conns
	e.conns = nil
	e.fns = nil
	e.mu.Unlock()

	for _, c := range conns {
		c.markClosed()
	}
}

func (e *Event[T]) disconnect(c *Connection) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, existing := range e.conns {
		if existing == c {
			e.conns = append(e.conns[:i], e.conns[i+1:]...)
			break
		}
	}
	delete(e.fns, c)
}

// Close unsubscribes the listener. It is safe to call more than once and
// from inside the listener itself.
func (c *Connection) Close() {
	if c == nil || !c.markClosed() {
		return
	}
	c.close()
}

// Closed reports whether the connection has been closed.
func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Connection) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	return true
}
