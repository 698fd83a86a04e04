package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/redis/go-redis/v9"
)

// ErrFeedDisabled is returned by Subscribe when no redis client is
// configured.
var ErrFeedDisabled = errors.New("realtime: feed disabled")

// Event is one change notification: a row in table was created, updated or
// deleted. Consumers re-fetch; the event carries no row data.
type Event struct {
	Table  string `json:"table"`
	ID     string `json:"id"`
	Action string `json:"action"`
}

const channelPrefix = "shelta:changes:"

// Feed publishes and subscribes to table change notifications over redis
// pub/sub. A nil client disables the feed: publishes become no-ops, which
// keeps the write path independent of redis availability.
type Feed struct {
	client *redis.Client
}

func NewFeed(client *redis.Client) *Feed {
	return &Feed{client: client}
}

// Publish is best effort: a failed notification is logged, never returned,
// so a redis outage cannot fail a committed write.
func (f *Feed) Publish(ctx context.Context, event Event) {
	if f == nil || f.client == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime marshal error: %v", err)
		return
	}
	if err := f.client.Publish(ctx, channelPrefix+event.Table, payload).Err(); err != nil {
		log.Printf("realtime publish error: %v", err)
	}
}

// Subscription is a scoped handle: acquire on view-enter, Close on view-exit.
// After Close the Events channel is drained and closed, so no handler fires
// against torn-down state.
type Subscription struct {
	Events <-chan Event
	cancel context.CancelFunc
	sub    *redis.PubSub
}

func (s *Subscription) Close() {
	s.cancel()
	_ = s.sub.Close()
}

// Subscribe starts a change subscription for one table. The subscription ends
// when Close is called or ctx is cancelled, whichever comes first.
func (f *Feed) Subscribe(ctx context.Context, table string) (*Subscription, error) {
	if f == nil || f.client == nil {
		return nil, ErrFeedDisabled
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := f.client.Subscribe(ctx, channelPrefix+table)
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		_ = sub.Close()
		return nil, err
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("realtime decode error: %v", err)
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{Events: events, cancel: cancel, sub: sub}, nil
}
