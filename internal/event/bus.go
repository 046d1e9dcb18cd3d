// Package event provides a small synchronous observer registry. Each entity
// that emits notifications (surfaces, views, seats, outputs) owns one Bus
// typed by its event enum, so subscribe, unsubscribe and fire all go through
// the same place.
package event

// Token identifies a subscription so it can be removed later.
type Token uint64

type subscriber[T any] struct {
	token Token
	fn    func(T)
}

// Bus fans an event out to its subscribers in subscription order. It is not
// safe for concurrent use; all access happens on the dispatch goroutine.
type Bus[T any] struct {
	next Token
	subs []subscriber[T]
}

// Subscribe registers fn and returns a token for Unsubscribe.
func (b *Bus[T]) Subscribe(fn func(T)) Token {
	b.next++
	b.subs = append(b.subs, subscriber[T]{token: b.next, fn: fn})
	return b.next
}

// Unsubscribe removes the subscription. Unknown tokens are ignored.
func (b *Bus[T]) Unsubscribe(tok Token) {
	for i, s := range b.subs {
		if s.token == tok {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers ev to every subscriber. Subscribers added or removed while
// the event is being delivered take effect from the next Emit.
func (b *Bus[T]) Emit(ev T) {
	if b == nil || len(b.subs) == 0 {
		return
	}
	subs := append([]subscriber[T](nil), b.subs...)
	for _, s := range subs {
		s.fn(ev)
	}
}

// Len returns the number of live subscriptions.
func (b *Bus[T]) Len() int {
	return len(b.subs)
}

// Clear drops every subscription.
func (b *Bus[T]) Clear() {
	b.subs = nil
}
