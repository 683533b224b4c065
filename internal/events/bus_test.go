package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan CCSentEvent, 1)

	unsub := bus.Subscribe(func(e CCSentEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(CCSentEvent{Control: "S8", CC: 50, Value: 127})

	select {
	case got := <-received:
		if got.CC != 50 || got.Value != 127 || got.Control != "S8" {
			t.Errorf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_TypeRouting(t *testing.T) {
	bus := New()
	counts := make(chan TrackCountEvent, 1)
	sent := make(chan CCSentEvent, 1)

	defer bus.Subscribe(func(e TrackCountEvent) { counts <- e })()
	defer bus.Subscribe(func(e CCSentEvent) { sent <- e })()

	bus.Publish(TrackCountEvent{Count: 4, Enabled: 16})

	select {
	case got := <-counts:
		if got.Count != 4 {
			t.Errorf("Count = %d, want 4", got.Count)
		}
	case <-time.After(time.Second):
		t.Fatal("track count not delivered")
	}
	select {
	case e := <-sent:
		t.Errorf("CCSentEvent handler received %+v", e)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan CCDroppedEvent, 1)

	unsub := bus.Subscribe(func(e CCDroppedEvent) {
		received <- e
	})

	bus.Publish(CCDroppedEvent{CC: 1, Reason: "queue full"})
	<-received

	unsub()

	bus.Publish(CCDroppedEvent{CC: 2, Reason: "queue full"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestBus_NilPublish(t *testing.T) {
	var bus *Bus
	bus.Publish(CCSentEvent{})
}
