// Package event provides a small typed observer list used for change notifications.
package event

import "sync"

// Event is a list of observers of values of type T. Observers are called synchronously, in
// subscription order, on the goroutine that fires the event.
type Event[T any] struct {
	mu        sync.Mutex
	nextID    uint64
	observers []observer[T]
}

type observer[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe adds an observer and returns a function that removes it again.
func (e *Event[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.observers = append(e.observers, observer[T]{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, o := range e.observers {
			if o.id == id {
				e.observers = append(e.observers[:i:i], e.observers[i+1:]...)
				return
			}
		}
	}
}

// Fire calls every observer with v. Observers may subscribe or unsubscribe while being called.
func (e *Event[T]) Fire(v T) {
	e.mu.Lock()
	observers := e.observers
	e.mu.Unlock()
	for _, o := range observers {
		o.fn(v)
	}
}

// Len returns the number of observers.
func (e *Event[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.observers)
}
