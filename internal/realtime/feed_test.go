package realtime

import (
	"context"
	"errors"
	"testing"
)

func TestDisabledFeed(t *testing.T) {
	feed := NewFeed(nil)
	// Publish on a disabled feed must be a no-op, not a panic.
	feed.Publish(context.Background(), Event{Table: "properties", ID: "p1", Action: "update"})

	if _, err := feed.Subscribe(context.Background(), "properties"); !errors.Is(err, ErrFeedDisabled) {
		t.Fatalf("expected ErrFeedDisabled, got %v", err)
	}
}

func TestNilFeed(t *testing.T) {
	var feed *Feed
	feed.Publish(context.Background(), Event{Table: "properties"})
	if _, err := feed.Subscribe(context.Background(), "properties"); !errors.Is(err, ErrFeedDisabled) {
		t.Fatalf("expected ErrFeedDisabled, got %v", err)
	}
}
