package engine

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"testing"
	"time"
)

// fakeTransport records every call and mints message ids. sendErrs, when
// non-empty, is consumed one error per SendMessage call; nil entries mean
// success.
type fakeTransport struct {
	mu       sync.Mutex
	nextID   int
	sends    []fakeMessage
	edits    []fakeMessage
	deletes  []string
	sendErrs []error
}

type fakeMessage struct {
	channelID string
	messageID string
	content   string
}

func (f *fakeTransport) SendMessage(ctx context.Context, channelID, content string) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.nextID++
	id := fmt.Sprintf("m%d", f.nextID)
	f.sends = append(f.sends, fakeMessage{channelID: channelID, messageID: id, content: content})
	return &Message{ID: id, ChannelID: channelID, Timestamp: time.Now()}, nil
}

func (f *fakeTransport) EditMessage(ctx context.Context, channelID, messageID, content string) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, fakeMessage{channelID: channelID, messageID: messageID, content: content})
	return &Message{ID: messageID, ChannelID: channelID, Timestamp: time.Now()}, nil
}

func (f *fakeTransport) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, messageID)
	return nil
}

func (f *fakeTransport) SendFile(ctx context.Context, channelID, name string, r io.Reader) (*Message, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("m%d", f.nextID)
	f.sends = append(f.sends, fakeMessage{channelID: channelID, messageID: id, content: name + ":" + string(data)})
	return &Message{ID: id, ChannelID: channelID, Timestamp: time.Now()}, nil
}

func (f *fakeTransport) PrivateChannelID(ctx context.Context, userID string) (string, error) {
	return "dm-" + userID, nil
}

func (f *fakeTransport) Mention(userID string) string {
	return "<@" + userID + ">"
}

func (f *fakeTransport) sentTo(channelID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sends {
		if m.channelID == channelID {
			out = append(out, m.content)
		}
	}
	return out
}

func (f *fakeTransport) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func (f *fakeTransport) lastSend() (fakeMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sends) == 0 {
		return fakeMessage{}, false
	}
	return f.sends[len(f.sends)-1], true
}

func (f *fakeTransport) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.deletes)
}

func (f *fakeTransport) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

// fakePerms grants levels from fixed id lists.
type fakePerms struct {
	masters []string
	support []string
}

func (p fakePerms) IsMaster(authorID string) bool {
	return slices.Contains(p.masters, authorID)
}

func (p fakePerms) HasSupportRole(authorID string) bool {
	return slices.Contains(p.support, authorID)
}

// waitFor polls cond until it holds or the test deadline budget runs out.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
