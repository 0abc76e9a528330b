package discord

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/server-ops/internal/engine"
)

// Transport adapts a discordgo session to the engine's transport boundary.
// Discord rate-limit errors are rewrapped so the delivery channel can read
// the server-specified retry-after duration; any other error passes through
// untouched.
type Transport struct {
	dg *discordgo.Session
}

// NewTransport wraps a session.
func NewTransport(dg *discordgo.Session) *Transport {
	return &Transport{dg: dg}
}

func (t *Transport) SendMessage(ctx context.Context, channelID, content string) (*engine.Message, error) {
	m, err := t.dg.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err)
	}
	return toMessage(m), nil
}

func (t *Transport) EditMessage(ctx context.Context, channelID, messageID, content string) (*engine.Message, error) {
	m, err := t.dg.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err)
	}
	return toMessage(m), nil
}

func (t *Transport) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := t.dg.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return wrapErr(err)
	}
	return nil
}

func (t *Transport) SendFile(ctx context.Context, channelID, name string, r io.Reader) (*engine.Message, error) {
	m, err := t.dg.ChannelFileSend(channelID, name, r, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err)
	}
	return toMessage(m), nil
}

func (t *Transport) PrivateChannelID(ctx context.Context, userID string) (string, error) {
	ch, err := t.dg.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", wrapErr(err)
	}
	return ch.ID, nil
}

func (t *Transport) Mention(userID string) string {
	return "<@" + userID + ">"
}

func toMessage(m *discordgo.Message) *engine.Message {
	if m == nil {
		return nil
	}
	return &engine.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Timestamp: m.Timestamp,
	}
}

// rateLimited satisfies retrylimit.RetryAfterError over a Discord 429.
type rateLimited struct {
	retryAfter time.Duration
	err        error
}

func (e *rateLimited) Error() string             { return e.err.Error() }
func (e *rateLimited) Unwrap() error             { return e.err }
func (e *rateLimited) RetryAfter() time.Duration { return e.retryAfter }

func wrapErr(err error) error {
	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		return &rateLimited{retryAfter: rl.RetryAfter, err: err}
	}
	return err
}
