// Package events provides the publish/subscribe channel used for progress,
// result, transcription and volume streams.
//
// Every subscriber receives every event (broadcast, not queue-consume).
// Handlers run synchronously on the publisher's goroutine, in subscription
// order, so a handler must not block.
package events

import "sync"

// Handler receives one published value.
type Handler[T any] func(T)

// Broadcaster fans a value out to all current subscribers.
type Broadcaster[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription[T]
}

type subscription[T any] struct {
	id uint64
	fn Handler[T]
}

// NewBroadcaster returns an empty broadcaster. The zero value is also usable.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{}
}

// Subscribe registers fn and returns a function that removes it again.
// Calling the returned function more than once is a no-op.
func (b *Broadcaster[T]) Subscribe(fn Handler[T]) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription[T]{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

// Publish delivers v to every subscriber registered at the time of the call.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	subs := make([]subscription[T], len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len reports the number of active subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broadcaster[T]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Collect subscribes a recorder that appends every event to a slice. It is
// mostly useful in tests and in CLI commands that print a run's progress.
func Collect[T any](b *Broadcaster[T]) (values func() []T, unsubscribe func()) {
	var mu sync.Mutex
	var got []T
	unsubscribe = b.Subscribe(func(v T) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})
	values = func() []T {
		mu.Lock()
		defer mu.Unlock()
		out := make([]T, len(got))
		copy(out, got)
		return out
	}
	return values, unsubscribe
}
