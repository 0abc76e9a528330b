package engine

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newTestTracker() (*StatusTracker, *fakeTransport) {
	ft := &fakeTransport{}
	return NewStatusTracker(NewDeliveryChannel(ft)), ft
}

func TestStatusPostCreatesThenEdits(t *testing.T) {
	tr, ft := newTestTracker()
	ctx := context.Background()

	tr.Post(ctx, "inv-1", "chan-1", "working...")
	if got := ft.sendCount(); got != 1 {
		t.Fatalf("sends after first post = %d, want 1", got)
	}

	tr.Post(ctx, "inv-1", "chan-1", "almost there...")
	if got := ft.sendCount(); got != 1 {
		t.Errorf("second post created a new message, sends = %d", got)
	}
	if got := ft.editCount(); got != 1 {
		t.Errorf("edits after second post = %d, want 1", got)
	}
	if got := tr.Count(); got != 1 {
		t.Errorf("tracked statuses = %d, want 1", got)
	}
}

func TestStatusDistinctInvokersGetDistinctMessages(t *testing.T) {
	tr, ft := newTestTracker()
	ctx := context.Background()

	tr.Post(ctx, "inv-1", "chan-1", "working...")
	tr.Post(ctx, "inv-2", "chan-1", "working...")

	if got := ft.sendCount(); got != 2 {
		t.Errorf("sends = %d, want 2", got)
	}
	if got := tr.Count(); got != 2 {
		t.Errorf("tracked statuses = %d, want 2", got)
	}
}

func TestStatusClearDeletesMessage(t *testing.T) {
	tr, ft := newTestTracker()
	ctx := context.Background()

	tr.Post(ctx, "inv-1", "chan-1", "working...")
	sent, _ := ft.lastSend()

	tr.Clear(ctx, "inv-1", false)
	deleted := ft.deleted()
	if len(deleted) != 1 || deleted[0] != sent.messageID {
		t.Errorf("deleted = %v, want [%s]", deleted, sent.messageID)
	}
	if got := tr.Count(); got != 0 {
		t.Errorf("tracked statuses after clear = %d, want 0", got)
	}
}

func TestStatusClearWithPersistKeepsMessage(t *testing.T) {
	tr, ft := newTestTracker()
	ctx := context.Background()

	tr.Post(ctx, "inv-1", "chan-1", "still running in background")
	tr.Clear(ctx, "inv-1", true)

	if got := ft.deleted(); len(got) != 0 {
		t.Errorf("deleted = %v, want none", got)
	}
	if got := tr.Count(); got != 1 {
		t.Errorf("tracked statuses = %d, want 1", got)
	}

	// ForceClear overrides persistence.
	tr.ForceClear(ctx, "inv-1")
	if got := ft.deleted(); len(got) != 1 {
		t.Errorf("deleted after force clear = %v, want one entry", got)
	}
}

func TestStatusClearUnknownKeyIsNoop(t *testing.T) {
	tr, ft := newTestTracker()

	tr.Clear(context.Background(), "never-posted", false)
	if got := ft.deleted(); len(got) != 0 {
		t.Errorf("deleted = %v, want none", got)
	}
}

func TestStatusIgnoresOversizedText(t *testing.T) {
	tr, ft := newTestTracker()

	tr.Post(context.Background(), "inv-1", "chan-1", strings.Repeat("x", LengthLimit))
	if got := ft.sendCount(); got != 0 {
		t.Errorf("sends = %d, want 0", got)
	}
}

func TestSweepPurgesOnlyStaleStatuses(t *testing.T) {
	tr, ft := newTestTracker()
	ctx := context.Background()

	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return current }

	tr.Post(ctx, "old", "chan-1", "working...")

	current = current.Add(2 * time.Hour)
	tr.Post(ctx, "fresh", "chan-1", "working...")

	tr.Sweep(ctx, time.Hour)

	if got := tr.Count(); got != 1 {
		t.Errorf("tracked statuses after sweep = %d, want 1", got)
	}
	if got := ft.deleted(); len(got) != 1 {
		t.Errorf("deleted = %v, want exactly the stale status", got)
	}

	// The surviving status is still editable in place.
	tr.Post(ctx, "fresh", "chan-1", "nearly done")
	if got := ft.editCount(); got != 1 {
		t.Errorf("edits = %d, want 1", got)
	}
}
