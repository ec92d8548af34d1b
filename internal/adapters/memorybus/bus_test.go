package memorybus

import (
	"testing"
	"time"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

func TestBus_PublishReachesEverySubscriber(t *testing.T) {
	b := New()
	a, cancelA := b.Subscribe()
	defer cancelA()
	c, cancelC := b.Subscribe()
	defer cancelC()

	b.Publish("session.created", []byte(`{"sessionId":"s1"}`))

	for name, ch := range map[string]<-chan ports.Event{"a": a, "c": c} {
		select {
		case evt := <-ch:
			if evt.Topic != "session.created" || string(evt.Payload) != `{"sessionId":"s1"}` {
				t.Fatalf("%s: unexpected event %+v", name, evt)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: no event received", name)
		}
	}
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewWithBuffer(1)
	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish("progress.recorded", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked on a full subscriber")
	}
}

func TestBus_CancelAndClose(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	if b.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", b.Subscribers())
	}
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after cancel")
	}

	other, _ := b.Subscribe()
	b.Close()
	if _, ok := <-other; ok {
		t.Fatalf("channel should be closed after Close")
	}

	late, _ := b.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("Subscribe after Close should return a closed channel")
	}
	b.Publish("home.rebuilt", nil)
}
