package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// MatchType selects how a command key is matched against inbound text.
type MatchType int

const (
	// MatchEquals reacts to messages containing exactly the key. Such a
	// command does not accept arguments.
	MatchEquals MatchType = iota
	// MatchStartsWith reacts to messages starting with the key followed by a
	// space. The bare key alone is not recognized; this is for commands that
	// explicitly require arguments.
	MatchStartsWith
	// MatchCombined reacts to both the bare key and the key with arguments.
	MatchCombined
)

func (t MatchType) String() string {
	switch t {
	case MatchEquals:
		return "equals"
	case MatchStartsWith:
		return "starts-with"
	case MatchCombined:
		return "combined"
	default:
		return fmt.Sprintf("match-type(%d)", int(t))
	}
}

// ReplyMode selects the destination of a command's replies.
type ReplyMode int

const (
	// ReplyPrivate always replies to the user with a private message.
	ReplyPrivate ReplyMode = iota
	// ReplyOrigin always replies on the channel used for invocation.
	ReplyOrigin
	// ReplyWithPermission replies on the origin channel only when the
	// channel's configured permission level covers the command's level,
	// falling back to a private message otherwise.
	ReplyWithPermission
)

func (m ReplyMode) String() string {
	switch m {
	case ReplyPrivate:
		return "private"
	case ReplyOrigin:
		return "origin"
	case ReplyWithPermission:
		return "with-permission"
	default:
		return fmt.Sprintf("reply-mode(%d)", int(m))
	}
}

// Level is a command permission level. Higher numbers give greater permission.
type Level int

const (
	LevelNone    Level = 0
	LevelSupport Level = 1
	LevelMaster  Level = 2
)

// ParseLevel maps a configured level name to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none":
		return LevelNone, nil
	case "support":
		return LevelSupport, nil
	case "master":
		return LevelMaster, nil
	default:
		return LevelNone, fmt.Errorf("unknown permission level %q", name)
	}
}

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelSupport:
		return "support"
	case LevelMaster:
		return "master"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ErrShowUsage is returned by a Runner to request the command's usage text as
// the reply. Distinct from returning an empty string, which produces no reply
// at all.
var ErrShowUsage = errors.New("show command usage")

// Runner is the action a command performs. It returns the reply text, an
// empty string for no reply, or ErrShowUsage to reply with usage text.
type Runner func(ctx context.Context, inv *Invocation) (string, error)

// Command is an immutable descriptor of a registered command. Identity is the
// trigger key; two commands with the same key are the same command.
type Command struct {
	matchType     MatchType
	key           string
	description   string
	aliases       []string
	flagDefs      func(fs *pflag.FlagSet)
	run           Runner
	level         Level
	queued        bool
	mention       bool
	replyMode     ReplyMode
	persistStatus bool
	experimental  bool
}

func (c *Command) Key() string          { return c.key }
func (c *Command) Description() string  { return c.description }
func (c *Command) Aliases() []string    { return c.aliases }
func (c *Command) MatchType() MatchType { return c.matchType }
func (c *Command) Level() Level         { return c.level }
func (c *Command) ReplyMode() ReplyMode { return c.replyMode }
func (c *Command) Queued() bool         { return c.queued }
func (c *Command) Mention() bool        { return c.mention }
func (c *Command) PersistStatus() bool  { return c.persistStatus }
func (c *Command) Experimental() bool   { return c.experimental }

// Matches reports whether text triggers this command via its key or one of
// its aliases.
func (c *Command) Matches(text string) bool {
	_, ok := c.MatchedKey(text)
	return ok
}

// MatchedKey returns the key or alias that text triggers, if any.
func (c *Command) MatchedKey(text string) (string, bool) {
	if c.matchesKey(c.key, text) {
		return c.key, true
	}
	for _, a := range c.aliases {
		if c.matchesKey(a, text) {
			return a, true
		}
	}
	return "", false
}

func (c *Command) matchesKey(key, text string) bool {
	switch c.matchType {
	case MatchCombined:
		return text == key || strings.HasPrefix(text, key+" ")
	case MatchStartsWith:
		return strings.HasPrefix(text, key+" ")
	default:
		return text == key
	}
}

// Execute runs the command's action.
func (c *Command) Execute(ctx context.Context, inv *Invocation) (string, error) {
	return c.run(ctx, inv)
}

// =============================================================================
// Builder
// =============================================================================

// Builder incrementally defines a Command. Obtain one from Equals, StartsWith
// or Combined and finish with Build.
type Builder struct {
	cmd Command
}

// Equals starts a command triggered by messages containing exactly key.
func Equals(key string) *Builder {
	return newBuilder(key, MatchEquals)
}

// StartsWith starts a command triggered by messages starting with key plus a
// space. The bare key is not recognized, so the command requires arguments.
func StartsWith(key string) *Builder {
	return newBuilder(key, MatchStartsWith)
}

// Combined starts a command triggered by the bare key or by key plus
// arguments.
func Combined(key string) *Builder {
	return newBuilder(key, MatchCombined)
}

func newBuilder(key string, t MatchType) *Builder {
	return &Builder{cmd: Command{
		key:       key,
		matchType: t,
		level:     LevelMaster,
		replyMode: ReplyPrivate,
		run: func(ctx context.Context, inv *Invocation) (string, error) {
			return "", ErrShowUsage
		},
	}}
}

// Description sets the text used in command listings and help.
func (b *Builder) Description(d string) *Builder {
	b.cmd.description = d
	return b
}

// Aliases adds alternative trigger keys matched with the same rule.
func (b *Builder) Aliases(aliases ...string) *Builder {
	b.cmd.aliases = append(b.cmd.aliases, aliases...)
	return b
}

// Flags declares the command's argument set. The callback populates a fresh
// flag set each time arguments are parsed.
func (b *Builder) Flags(defs func(fs *pflag.FlagSet)) *Builder {
	b.cmd.flagDefs = defs
	return b
}

// Run sets the action this command performs.
func (b *Builder) Run(r Runner) *Builder {
	b.cmd.run = r
	return b
}

// Permission sets the level required to execute this command. The default is
// LevelMaster.
func (b *Builder) Permission(l Level) *Builder {
	b.cmd.level = l
	return b
}

// Queued routes this command's execution through the per-author gatekeeper so
// a user cannot invoke it in rapid succession.
func (b *Builder) Queued() *Builder {
	b.cmd.queued = true
	return b
}

// Mention prefixes replies on public channels with an @-mention of the
// author. Best used for long running commands replying on busy channels.
func (b *Builder) Mention() *Builder {
	b.cmd.mention = true
	return b
}

// PrivateReplies always replies with a private message. This is the default.
func (b *Builder) PrivateReplies() *Builder {
	b.cmd.replyMode = ReplyPrivate
	return b
}

// OriginReplies always replies on the channel used for invocation.
func (b *Builder) OriginReplies() *Builder {
	b.cmd.replyMode = ReplyOrigin
	return b
}

// PermissionReplies replies on the origin channel only when the channel's
// configured level covers the command's level, privately otherwise.
func (b *Builder) PermissionReplies() *Builder {
	b.cmd.replyMode = ReplyWithPermission
	return b
}

// PersistStatus keeps this command's status message after the final reply.
// Used for commands that continue background work; the periodic sweep still
// removes stale statuses eventually.
func (b *Builder) PersistStatus() *Builder {
	b.cmd.persistStatus = true
	return b
}

// Experimental marks this command as experimental in its usage text.
func (b *Builder) Experimental() *Builder {
	b.cmd.experimental = true
	return b
}

// Build constructs the command with the current settings.
func (b *Builder) Build() *Command {
	cmd := b.cmd
	return &cmd
}
