package engine

import (
	"bytes"
	"context"
	"io"

	"github.com/keshon/server-ops/pkg/retrylimit"
	"github.com/keshon/server-ops/pkg/splitmsg"
)

// LengthLimit is the transport's hard cap on message length.
const LengthLimit = 2000

// DeliveryChannel wraps every mutating transport call in a retry loop that
// honors transport-issued backoff signals, pacing calls through an adaptive
// limiter. Over-length sends are split at the length limit; the identity of
// the last chunk is returned.
type DeliveryChannel struct {
	transport Transport
	lim       *retrylimit.AdaptiveLimiter
}

// NewDeliveryChannel wraps a transport with rate-limit-resilient delivery.
func NewDeliveryChannel(t Transport) *DeliveryChannel {
	return &DeliveryChannel{
		transport: t,
		lim:       retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
	}
}

// Mention renders an @-mention in the transport's syntax.
func (d *DeliveryChannel) Mention(userID string) string {
	return d.transport.Mention(userID)
}

// Send delivers text to a channel, splitting it into limit-sized chunks when
// needed. It returns the last created message.
func (d *DeliveryChannel) Send(ctx context.Context, channelID, text string) (*Message, error) {
	var last *Message
	for _, chunk := range splitmsg.Split(text, LengthLimit) {
		msg, err := d.sendOne(ctx, channelID, chunk)
		if err != nil {
			return nil, err
		}
		last = msg
	}
	return last, nil
}

// SendPrivate delivers text to the private channel shared with userID.
func (d *DeliveryChannel) SendPrivate(ctx context.Context, userID, text string) (*Message, error) {
	channelID, err := d.PrivateChannelID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return d.Send(ctx, channelID, text)
}

// PrivateChannelID resolves the private channel shared with userID, retrying
// on rate limits like any other transport call.
func (d *DeliveryChannel) PrivateChannelID(ctx context.Context, userID string) (string, error) {
	var channelID string
	err := retrylimit.Do(ctx, d.lim, func() error {
		var err error
		channelID, err = d.transport.PrivateChannelID(ctx, userID)
		return err
	})
	return channelID, err
}

// Edit replaces the content of an existing message.
func (d *DeliveryChannel) Edit(ctx context.Context, channelID, messageID, text string) (*Message, error) {
	var msg *Message
	err := retrylimit.Do(ctx, d.lim, func() error {
		var err error
		msg, err = d.transport.EditMessage(ctx, channelID, messageID, text)
		return err
	})
	return msg, err
}

// Delete removes a message.
func (d *DeliveryChannel) Delete(ctx context.Context, channelID, messageID string) error {
	return retrylimit.Do(ctx, d.lim, func() error {
		return d.transport.DeleteMessage(ctx, channelID, messageID)
	})
}

// SendFile delivers a file to a channel. The content is buffered up front so
// the transport call can be retried with a fresh reader after a rate limit.
func (d *DeliveryChannel) SendFile(ctx context.Context, channelID, name string, r io.Reader) (*Message, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var msg *Message
	err = retrylimit.Do(ctx, d.lim, func() error {
		var err error
		msg, err = d.transport.SendFile(ctx, channelID, name, bytes.NewReader(data))
		return err
	})
	return msg, err
}

// SendFilePrivate delivers a file to the private channel shared with userID.
func (d *DeliveryChannel) SendFilePrivate(ctx context.Context, userID, name string, r io.Reader) (*Message, error) {
	channelID, err := d.PrivateChannelID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return d.SendFile(ctx, channelID, name, r)
}

func (d *DeliveryChannel) sendOne(ctx context.Context, channelID, content string) (*Message, error) {
	var msg *Message
	err := retrylimit.Do(ctx, d.lim, func() error {
		var err error
		msg, err = d.transport.SendMessage(ctx, channelID, content)
		return err
	})
	return msg, err
}
