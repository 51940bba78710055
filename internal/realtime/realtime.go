// AngelaMos | 2026
// realtime.go

// Package realtime fans out row change notifications to every listener of
// a franchise over Redis pub/sub.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "changes:franchise:"

const (
	TableUserProfiles = "user_profiles"
	TableStores       = "stores"
	TableInventory    = "inventory_items"

	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

var subscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "realtime_subscribers",
	Help: "Open franchise change subscriptions.",
})

type Event struct {
	Table       string    `json:"table"`
	Op          string    `json:"op"`
	RowID       string    `json:"row_id"`
	FranchiseID string    `json:"franchise_id"`
	At          time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, franchiseID string, ev Event) error
}

func Channel(franchiseID string) string {
	return channelPrefix + franchiseID
}

type Broker struct {
	rdb *redis.Client
}

func NewBroker(rdb *redis.Client) *Broker {
	return &Broker{rdb: rdb}
}

func (b *Broker) Publish(ctx context.Context, franchiseID string, ev Event) error {
	if franchiseID == "" {
		return nil
	}

	ev.FranchiseID = franchiseID
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.rdb.Publish(ctx, Channel(franchiseID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe starts listening on the franchise channel. Events arrive in
// publish order until ctx is done or Close is called.
func (b *Broker) Subscribe(ctx context.Context, franchiseID string) (*Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, Channel(franchiseID))

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", franchiseID, err)
	}

	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}

	subscribersGauge.Inc()
	go sub.pump(ctx)

	return sub, nil
}

type Subscription struct {
	pubsub *redis.PubSub
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
		subscribersGauge.Dec()
	})
	return err
}

func (s *Subscription) pump(ctx context.Context) {
	defer close(s.events)

	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("dropping malformed change event",
					"channel", msg.Channel,
					"error", err,
				)
				continue
			}

			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}
}

// Notify publishes best effort: a failed notification never fails the
// write that caused it.
func Notify(ctx context.Context, p Publisher, franchiseID string, ev Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, franchiseID, ev); err != nil {
		slog.Warn("change notification failed",
			"franchise_id", franchiseID,
			"table", ev.Table,
			"error", err,
		)
	}
}
