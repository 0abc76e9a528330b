package engine

import (
	"context"
	"io"
	"time"

	"github.com/spf13/pflag"
)

// InboundMessage is a received chat message as handed to the engine by a
// transport adapter.
type InboundMessage struct {
	ID         string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Content    string
	Timestamp  time.Time
}

// Message identifies a message the bot created or edited on the transport.
// Upstream components keep it to edit or delete the message later.
type Message struct {
	ID        string
	ChannelID string
	Timestamp time.Time
}

// Invocation pairs a received message with the command it matched and its
// parsed arguments.
type Invocation struct {
	Message InboundMessage
	Command *Command
	// Flags is the parsed flag set, nil when the command declares no flags.
	Flags *pflag.FlagSet
	// Args holds the positional arguments remaining after flag parsing.
	Args []string
	// RawArgs is the original text following the matched key, "" when absent.
	RawArgs string
}

// Transport is the boundary to the chat platform. Every mutating call may
// fail with an error implementing retrylimit.RetryAfterError, which the
// delivery channel converts into a wait-and-retry.
type Transport interface {
	SendMessage(ctx context.Context, channelID, content string) (*Message, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) (*Message, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	SendFile(ctx context.Context, channelID, name string, r io.Reader) (*Message, error)
	// PrivateChannelID resolves (creating if needed) the private channel
	// shared with the given user.
	PrivateChannelID(ctx context.Context, userID string) (string, error)
	// Mention renders an @-mention of the given user in the transport's
	// inline syntax.
	Mention(userID string) string
}

// PermissionResolver is the identity collaborator: it answers which
// privilege tiers an author holds.
type PermissionResolver interface {
	IsMaster(authorID string) bool
	HasSupportRole(authorID string) bool
}
