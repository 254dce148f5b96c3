package eventbus

import (
	"testing"
	"time"
)

func TestPublishFanOut(t *testing.T) {
	t.Parallel()
	bus := New()

	ch1, unsub1 := bus.Subscribe(4)
	ch2, unsub2 := bus.Subscribe(4)
	defer unsub1()
	defer unsub2()

	bus.Publish(Event{Type: TypeJobFired, Data: JobEvent{ID: 1, Name: "j"}})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != TypeJobFired {
				t.Fatalf("sub %d: type = %q", i, ev.Type)
			}
			if ev.Time.IsZero() {
				t.Fatalf("sub %d: publish did not stamp time", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("sub %d: event not delivered", i)
		}
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	t.Parallel()
	bus := New()

	_, unsub := bus.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Nobody drains; everything past the buffer must be dropped.
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Type: TypeJobCompleted})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	t.Parallel()
	bus := New()

	ch, unsub := bus.Subscribe(1)
	go func() {
		<-ch
		unsub()
	}()
	// Racing sends against close must not panic the publisher.
	for i := 0; i < 1000; i++ {
		bus.Publish(Event{Type: TypeJobFailed})
	}
	unsub() // idempotent
}
