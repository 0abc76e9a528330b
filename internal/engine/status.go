package engine

import (
	"context"
	"log"
	"sync"
	"time"
)

// StatusTracker manages the transient "working..." replies posted for queued
// commands. Statuses are keyed by the invoking message's id: the first post
// creates the bot's reply, later posts for the same key edit it in place, and
// clearing deletes it unless the command persists its status. A periodic
// sweep removes statuses not touched within the retention window, guarding
// against leaked state when a terminating clear never arrives.
type StatusTracker struct {
	mu        sync.Mutex
	byInvoker map[string]*statusEntry
	delivery  *DeliveryChannel
	now       func() time.Time
}

type statusEntry struct {
	channelID string
	messageID string
	touched   time.Time
	sending   bool
}

// NewStatusTracker creates a tracker posting through the given delivery
// channel.
func NewStatusTracker(d *DeliveryChannel) *StatusTracker {
	return &StatusTracker{
		byInvoker: make(map[string]*statusEntry),
		delivery:  d,
		now:       time.Now,
	}
}

// Post creates or edits the status message for the given invoker key in
// channelID. Texts at or beyond the length limit are ignored; status messages
// are short progress indicators and are never split.
func (t *StatusTracker) Post(ctx context.Context, key, channelID, text string) {
	if text == "" || len(text) >= LengthLimit {
		return
	}

	t.mu.Lock()
	entry, exists := t.byInvoker[key]
	if !exists {
		// Reserve the key before sending so a concurrent post for the
		// same invocation edits instead of double-sending.
		entry = &statusEntry{channelID: channelID, touched: t.now(), sending: true}
		t.byInvoker[key] = entry
		t.mu.Unlock()

		msg, err := t.delivery.Send(ctx, channelID, text)
		t.mu.Lock()
		if err != nil || msg == nil {
			delete(t.byInvoker, key)
			t.mu.Unlock()
			if err != nil {
				log.Printf("[WARN] Could not post status message: %v", err)
			}
			return
		}
		entry.messageID = msg.ID
		entry.channelID = msg.ChannelID
		entry.sending = false
		entry.touched = t.now()
		t.mu.Unlock()
		return
	}
	if entry.sending {
		// Initial send still in flight; drop this intermediate update.
		t.mu.Unlock()
		return
	}
	entry.touched = t.now()
	channelID, messageID := entry.channelID, entry.messageID
	t.mu.Unlock()

	if _, err := t.delivery.Edit(ctx, channelID, messageID, text); err != nil {
		log.Printf("[WARN] Could not edit status message: %v", err)
	}
}

// Clear ends the status lifecycle for key. When persist is false the tracked
// message is deleted; persisted statuses stay until the periodic sweep.
func (t *StatusTracker) Clear(ctx context.Context, key string, persist bool) {
	if persist {
		return
	}
	t.ForceClear(ctx, key)
}

// ForceClear deletes the status message for key regardless of persistence.
func (t *StatusTracker) ForceClear(ctx context.Context, key string) {
	t.mu.Lock()
	entry, exists := t.byInvoker[key]
	if exists {
		delete(t.byInvoker, key)
	}
	t.mu.Unlock()
	if !exists || entry.messageID == "" {
		return
	}
	if err := t.delivery.Delete(ctx, entry.channelID, entry.messageID); err != nil {
		log.Printf("[WARN] Could not delete status message: %v", err)
	}
}

// Sweep removes every tracked status not touched within retention, deleting
// it from the transport first.
func (t *StatusTracker) Sweep(ctx context.Context, retention time.Duration) {
	cutoff := t.now().Add(-retention)

	t.mu.Lock()
	var stale []*statusEntry
	for key, entry := range t.byInvoker {
		if entry.touched.Before(cutoff) && !entry.sending {
			delete(t.byInvoker, key)
			stale = append(stale, entry)
		}
	}
	t.mu.Unlock()

	for _, entry := range stale {
		if err := t.delivery.Delete(ctx, entry.channelID, entry.messageID); err != nil {
			log.Printf("[WARN] Could not delete stale status message: %v", err)
		}
	}
	if len(stale) > 0 {
		log.Printf("[INFO] Purged %d stale status messages", len(stale))
	}
}

// Run sweeps on the given period until ctx is done. Call from main or app
// lifecycle.
func (t *StatusTracker) Run(ctx context.Context, period, retention time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep(ctx, retention)
		}
	}
}

// Count returns the number of tracked status messages.
func (t *StatusTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byInvoker)
}
