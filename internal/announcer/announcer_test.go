package announcer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/keshon/server-ops/internal/engine"
	"github.com/keshon/server-ops/internal/storage"
)

// stubTransport records sends and can fail for selected channels.
type stubTransport struct {
	mu     sync.Mutex
	nextID int
	sent   map[string][]string
	fail   map[string]bool
}

func newStubTransport() *stubTransport {
	return &stubTransport{sent: map[string][]string{}, fail: map[string]bool{}}
}

func (s *stubTransport) SendMessage(ctx context.Context, channelID, content string) (*engine.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[channelID] {
		return nil, errors.New("channel rejected the message")
	}
	s.nextID++
	s.sent[channelID] = append(s.sent[channelID], content)
	return &engine.Message{ID: fmt.Sprintf("m%d", s.nextID), ChannelID: channelID, Timestamp: time.Now()}, nil
}

func (s *stubTransport) EditMessage(ctx context.Context, channelID, messageID, content string) (*engine.Message, error) {
	return &engine.Message{ID: messageID, ChannelID: channelID}, nil
}

func (s *stubTransport) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return nil
}

func (s *stubTransport) SendFile(ctx context.Context, channelID, name string, r io.Reader) (*engine.Message, error) {
	return s.SendMessage(ctx, channelID, name)
}

func (s *stubTransport) PrivateChannelID(ctx context.Context, userID string) (string, error) {
	return "dm-" + userID, nil
}

func (s *stubTransport) Mention(userID string) string { return "<@" + userID + ">" }

func (s *stubTransport) sentTo(channelID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent[channelID]...)
}

func newTestAnnouncer(t *testing.T) (*Announcer, *stubTransport) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "datastore.json"))
	if err != nil {
		t.Fatalf("storage.New() = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	st := newStubTransport()
	return New(store, engine.NewDeliveryChannel(st)), st
}

func TestAnnounceReachesChannelsAndUsers(t *testing.T) {
	a, st := newTestAnnouncer(t)

	if err := a.Subscribe("deploys", storage.Target{ChannelID: "chan-1"}); err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}
	if err := a.Subscribe("deploys", storage.Target{UserID: "user-1"}); err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}

	delivered, err := a.Announce(context.Background(), "deploys", "v42 is live")
	if err != nil {
		t.Fatalf("Announce() = %v", err)
	}
	if delivered != 2 {
		t.Errorf("delivered = %d, want 2", delivered)
	}
	if got := st.sentTo("chan-1"); len(got) != 1 || got[0] != "v42 is live" {
		t.Errorf("chan-1 received %q", got)
	}
	if got := st.sentTo("dm-user-1"); len(got) != 1 || got[0] != "v42 is live" {
		t.Errorf("dm-user-1 received %q", got)
	}
}

func TestAnnounceWithoutSubscribersDeliversNothing(t *testing.T) {
	a, _ := newTestAnnouncer(t)

	delivered, err := a.Announce(context.Background(), "ghost-topic", "anyone?")
	if err != nil {
		t.Fatalf("Announce() = %v", err)
	}
	if delivered != 0 {
		t.Errorf("delivered = %d, want 0", delivered)
	}
}

func TestAnnounceSkipsFailingTargets(t *testing.T) {
	a, st := newTestAnnouncer(t)
	st.fail["chan-bad"] = true

	for _, target := range []storage.Target{
		{ChannelID: "chan-bad"},
		{ChannelID: "chan-good"},
	} {
		if err := a.Subscribe("deploys", target); err != nil {
			t.Fatalf("Subscribe(%v) = %v", target, err)
		}
	}

	delivered, err := a.Announce(context.Background(), "deploys", "partial news")
	if err != nil {
		t.Fatalf("Announce() = %v, want nil for best-effort delivery", err)
	}
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}
	if got := st.sentTo("chan-good"); len(got) != 1 {
		t.Errorf("chan-good received %q, want the announcement", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	a, st := newTestAnnouncer(t)
	target := storage.Target{ChannelID: "chan-1"}

	if err := a.Subscribe("deploys", target); err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}
	if err := a.Unsubscribe("deploys", target); err != nil {
		t.Fatalf("Unsubscribe() = %v", err)
	}

	delivered, err := a.Announce(context.Background(), "deploys", "silence")
	if err != nil {
		t.Fatalf("Announce() = %v", err)
	}
	if delivered != 0 || len(st.sentTo("chan-1")) != 0 {
		t.Errorf("delivered = %d, chan-1 = %q, want nothing", delivered, st.sentTo("chan-1"))
	}
}
