package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherFanOut(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var got []string
	dispatcher.Subscribe(EventRunStarted, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.RunID)
		return nil
	})
	dispatcher.Subscribe(EventRunStarted, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.RunID)
		return nil
	})
	dispatcher.Subscribe(EventRunCompleted, func(_ context.Context, _ Event) error {
		t.Error("handler for a different type must not fire")
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventRunStarted, RunID: "r-1"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 2 || got[0] != "first:r-1" || got[1] != "second:r-1" {
		t.Fatalf("delivery = %v, want both handlers in order", got)
	}
}

func TestDispatcherHandlerErrorDoesNotBlockOthers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	boom := errors.New("subscriber down")

	delivered := false
	dispatcher.Subscribe(EventTicketFailed, func(_ context.Context, _ Event) error {
		return boom
	})
	dispatcher.Subscribe(EventTicketFailed, func(_ context.Context, _ Event) error {
		delivered = true
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventTicketFailed})
	if !errors.Is(err, boom) {
		t.Fatalf("Publish = %v, want the handler error surfaced", err)
	}
	if !delivered {
		t.Fatal("later handlers must still run after an earlier failure")
	}
}

func TestDispatcherNoSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	if err := dispatcher.Publish(context.Background(), Event{Type: EventDegradedMode}); err != nil {
		t.Fatalf("Publish with no subscribers = %v, want nil", err)
	}
}
