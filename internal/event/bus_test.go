package event

import "testing"

func TestBusEmitsInSubscriptionOrder(t *testing.T) {
	var b Bus[int]
	var got []string
	b.Subscribe(func(v int) { got = append(got, "a") })
	b.Subscribe(func(v int) { got = append(got, "b") })
	b.Emit(1)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestBusUnsubscribeDuringEmit(t *testing.T) {
	var b Bus[string]
	calls := 0
	var second Token
	b.Subscribe(func(string) {
		calls++
		b.Unsubscribe(second)
	})
	second = b.Subscribe(func(string) { calls++ })

	b.Emit("x")
	if calls != 2 {
		t.Fatalf("expected both subscribers on first emit, got %d calls", calls)
	}
	b.Emit("y")
	if calls != 3 {
		t.Fatalf("expected removed subscriber to stay quiet, got %d calls", calls)
	}
	if b.Len() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", b.Len())
	}
}

func TestNilBusEmitIsNoop(t *testing.T) {
	var b *Bus[int]
	b.Emit(3)
}
