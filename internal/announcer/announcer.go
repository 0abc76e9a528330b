package announcer

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/keshon/server-ops/internal/engine"
	"github.com/keshon/server-ops/internal/storage"
	"github.com/keshon/server-ops/pkg/util"
)

const workerLimit = 4

// Announcer fans announcements out to a topic's subscribers through the
// delivery channel, so broadcasts respect the same rate budget as everything
// else the bot sends.
type Announcer struct {
	store    *storage.Storage
	delivery *engine.DeliveryChannel
}

func New(store *storage.Storage, delivery *engine.DeliveryChannel) *Announcer {
	return &Announcer{store: store, delivery: delivery}
}

// Announce sends text to every subscriber of topic and returns how many
// targets it reached. Delivery is best effort: a failing target is logged and
// skipped, the rest still get the announcement.
func (a *Announcer) Announce(ctx context.Context, topic, text string) (int, error) {
	targets, err := a.store.Subscriptions(topic)
	if err != nil {
		return 0, fmt.Errorf("failed to load subscribers for '%s': %w", topic, err)
	}
	if len(targets) == 0 {
		return 0, nil
	}

	var delivered atomic.Int64
	err = util.Parallel(ctx, targets, workerLimit, func(ctx context.Context, t storage.Target) error {
		var sendErr error
		if t.UserID != "" {
			_, sendErr = a.delivery.SendPrivate(ctx, t.UserID, text)
		} else {
			_, sendErr = a.delivery.Send(ctx, t.ChannelID, text)
		}
		if sendErr != nil {
			log.Printf("[WARN] Announcement for '%s' failed for target %+v: %v", topic, t, sendErr)
			return nil
		}
		delivered.Add(1)
		return nil
	})
	if err != nil {
		return int(delivered.Load()), err
	}
	return int(delivered.Load()), nil
}

// Subscribe adds a target to a topic.
func (a *Announcer) Subscribe(topic string, target storage.Target) error {
	return a.store.AddSubscription(topic, target)
}

// Unsubscribe removes a target from a topic.
func (a *Announcer) Unsubscribe(topic string, target storage.Target) error {
	return a.store.RemoveSubscription(topic, target)
}

// Topics lists every topic with at least one known record.
func (a *Announcer) Topics() []string {
	return a.store.Topics()
}

// Subscriptions lists a topic's targets.
func (a *Announcer) Subscriptions(topic string) ([]storage.Target, error) {
	return a.store.Subscriptions(topic)
}
