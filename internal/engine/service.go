package engine

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/keshon/server-ops/pkg/gatekeeper"
)

const (
	defaultJobTimeout = time.Minute

	waitNotice       = "Please wait until your previous command finishes running"
	provisionalState = "Your command will be executed shortly..."
)

// Options configures a Service.
type Options struct {
	Transport   Transport
	Permissions PermissionResolver
	// ChannelLevels maps channel ids to the permission level replies on
	// that channel may carry. Channels without an entry never receive
	// WITH_PERMISSION replies.
	ChannelLevels map[string]Level
	// JobTimeout bounds a queued command's execution; exceeding it resolves
	// the job as failed and releases the author's queue slot. Defaults to
	// one minute.
	JobTimeout time.Duration
}

// Service is the command engine: it matches inbound messages against the
// registry, gates execution by permission level, serializes queued commands
// per author, and routes replies through the rate-limited delivery channel.
// Construct one at startup and hand it to every producer of commands.
type Service struct {
	registry      *Registry
	delivery      *DeliveryChannel
	statuses      *StatusTracker
	gate          *gatekeeper.Gatekeeper
	perms         PermissionResolver
	channelLevels map[string]Level
}

// NewService assembles an engine over the given transport.
func NewService(opts Options) *Service {
	timeout := opts.JobTimeout
	if timeout == 0 {
		timeout = defaultJobTimeout
	}
	delivery := NewDeliveryChannel(opts.Transport)
	return &Service{
		registry: NewRegistry(),
		delivery: delivery,
		statuses: NewStatusTracker(delivery),
		gate: gatekeeper.New(timeout, func(event string) {
			log.Printf("[DEBUG] Gatekeeper %s", event)
		}),
		perms:         opts.Permissions,
		channelLevels: opts.ChannelLevels,
	}
}

// Register adds a command to the engine's registry.
func (s *Service) Register(cmd *Command) *Command {
	return s.registry.Register(cmd)
}

// Unregister removes a command from the engine's registry.
func (s *Service) Unregister(cmd *Command) {
	s.registry.Unregister(cmd)
}

// Registry exposes the command registry.
func (s *Service) Registry() *Registry { return s.registry }

// Delivery exposes the rate-limited delivery channel for collaborators that
// send outside the command flow (announcer, schedulers).
func (s *Service) Delivery() *DeliveryChannel { return s.delivery }

// RunStatusSweeper sweeps stale status messages on the given period until ctx
// is done.
func (s *Service) RunStatusSweeper(ctx context.Context, period, retention time.Duration) {
	s.statuses.Run(ctx, period, retention)
}

// QueuedJobCount reports the author's current queue depth: 0 or 1.
func (s *Service) QueuedJobCount(authorID string) int {
	return s.gate.QueuedJobCount(authorID)
}

// LevelFor resolves the caller's permission level.
func (s *Service) LevelFor(authorID string) Level {
	switch {
	case s.perms.IsMaster(authorID):
		return LevelMaster
	case s.perms.HasSupportRole(authorID):
		return LevelSupport
	default:
		return LevelNone
	}
}

// HandleMessage is the dispatch entry point for one inbound message:
// match, permission check, argument parsing, then queued or direct execution.
// Unauthorized invocations fail silently so command existence is not revealed.
func (s *Service) HandleMessage(ctx context.Context, msg InboundMessage) {
	cmd := s.registry.Match(msg.Content)
	if cmd == nil {
		return
	}
	if s.LevelFor(msg.AuthorID) < cmd.Level() {
		log.Printf("[DEBUG] User %s (%s) has no permission to run %s (requires level %d)",
			msg.AuthorName, msg.AuthorID, cmd.Key(), int(cmd.Level()))
		return
	}

	key, _ := cmd.MatchedKey(msg.Content)
	raw := strings.TrimPrefix(strings.TrimPrefix(msg.Content, key), " ")

	flags, args, err := cmd.ParseArgs(raw)
	if err != nil {
		log.Printf("[WARN] Invalid call: %v", err)
		s.usageReply(ctx, &Invocation{Message: msg, Command: cmd, RawArgs: raw}, err.Error())
		return
	}
	inv := &Invocation{Message: msg, Command: cmd, Flags: flags, Args: args, RawArgs: raw}

	log.Printf("[DEBUG] User %s (%s) executing command %s with args: %q",
		msg.AuthorName, msg.AuthorID, cmd.Key(), raw)

	if cmd.Queued() {
		s.dispatchQueued(ctx, inv)
		return
	}
	value, err := cmd.Execute(ctx, inv)
	s.handleResult(ctx, inv, value, err)
}

// dispatchQueued hands the invocation to the gatekeeper. A second invocation
// while the author's slot is taken is rejected with a wait notice, not
// buffered.
func (s *Service) dispatchQueued(ctx context.Context, inv *Invocation) {
	authorID := inv.Message.AuthorID
	if s.gate.QueuedJobCount(authorID) > 0 {
		s.tryReply(ctx, inv, waitNotice)
		return
	}
	s.PostStatus(ctx, inv, provisionalState)

	res, err := s.gate.Queue(authorID, func(jobCtx context.Context) (string, error) {
		return inv.Command.Execute(jobCtx, inv)
	})
	if err != nil {
		// Lost the slot to a concurrent invocation between the depth
		// check and the queue call.
		if errors.Is(err, gatekeeper.ErrBusy) {
			s.tryReply(ctx, inv, waitNotice)
			return
		}
		log.Printf("[ERR] Could not queue command %s: %v", inv.Command.Key(), err)
		return
	}

	go func() {
		r := <-res
		s.handleResult(ctx, inv, r.Value, r.Err)
		s.statuses.Clear(ctx, inv.Message.ID, inv.Command.PersistStatus())
	}()
}

// handleResult maps an execution outcome to a reply: usage text for
// ErrShowUsage, silence for empty replies, delivery otherwise. Failures are
// logged and release no further action; the user already got no reply.
func (s *Service) handleResult(ctx context.Context, inv *Invocation, value string, err error) {
	switch {
	case err == nil:
		if value != "" {
			s.tryReply(ctx, inv, value)
		}
	case errors.Is(err, ErrShowUsage):
		s.usageReply(ctx, inv, "")
	default:
		log.Printf("[WARN] Command %s from %s failed: %v",
			inv.Command.Key(), inv.Message.AuthorID, err)
	}
}

// PostStatus creates or edits the invocation's status message. An empty text
// terminates the lifecycle: the message is deleted unless the command
// persists its status, in which case only the periodic sweep removes it.
func (s *Service) PostStatus(ctx context.Context, inv *Invocation, text string) {
	if text == "" {
		s.statuses.Clear(ctx, inv.Message.ID, inv.Command.PersistStatus())
		return
	}
	channelID, _, err := s.replyDestination(ctx, inv)
	if err != nil {
		log.Printf("[WARN] Could not resolve status destination: %v", err)
		return
	}
	s.statuses.Post(ctx, inv.Message.ID, channelID, text)
}

// ClearStatus deletes the invocation's status message, ignoring the
// persist-status setting.
func (s *Service) ClearStatus(ctx context.Context, inv *Invocation) {
	s.statuses.ForceClear(ctx, inv.Message.ID)
}

// Reply routes text to the command's configured destination, splitting long
// texts, and returns the last created message.
func (s *Service) Reply(ctx context.Context, inv *Invocation, text string) (*Message, error) {
	channelID, public, err := s.replyDestination(ctx, inv)
	if err != nil {
		return nil, err
	}
	if public && inv.Command.Mention() {
		text = s.delivery.Mention(inv.Message.AuthorID) + " " + text
	}
	return s.delivery.Send(ctx, channelID, text)
}

// FileReply routes a file to the command's configured destination.
func (s *Service) FileReply(ctx context.Context, inv *Invocation, name string, data []byte) error {
	channelID, _, err := s.replyDestination(ctx, inv)
	if err != nil {
		return err
	}
	_, err = s.delivery.SendFile(ctx, channelID, name, strings.NewReader(string(data)))
	return err
}

// tryReply delivers text, logging instead of propagating delivery failures.
func (s *Service) tryReply(ctx context.Context, inv *Invocation, text string) {
	if _, err := s.Reply(ctx, inv, text); err != nil {
		log.Printf("[WARN] Could not reply to user: %v", err)
	}
}

// usageReply shows the command's usage text, prefixed with an optional
// comment such as a parse error.
func (s *Service) usageReply(ctx context.Context, inv *Invocation, comment string) {
	text := inv.Command.UsageText()
	if comment != "" {
		text = comment + "\n" + text
	}
	s.tryReply(ctx, inv, text)
}

// replyDestination resolves where a command's output goes. WITH_PERMISSION
// falls back to private delivery whenever the origin channel has no mapping
// or its level does not cover the command's; never leak to an unauthorized
// channel.
func (s *Service) replyDestination(ctx context.Context, inv *Invocation) (channelID string, public bool, err error) {
	msg, cmd := inv.Message, inv.Command
	switch cmd.ReplyMode() {
	case ReplyOrigin:
		return msg.ChannelID, true, nil
	case ReplyWithPermission:
		if level, ok := s.channelLevels[msg.ChannelID]; ok && level >= cmd.Level() {
			return msg.ChannelID, true, nil
		}
	case ReplyPrivate:
	default:
		log.Printf("[WARN] Command %s has an invalid reply mode: %v", cmd.Key(), cmd.ReplyMode())
	}
	channelID, err = s.delivery.PrivateChannelID(ctx, msg.AuthorID)
	return channelID, false, err
}

// ParseChannelLevels converts a configured channel→level-name map into
// channel levels, logging and skipping malformed entries so they fall back to
// private delivery.
func ParseChannelLevels(raw map[string]string) map[string]Level {
	levels := make(map[string]Level, len(raw))
	for channelID, name := range raw {
		level, err := ParseLevel(name)
		if err != nil {
			log.Printf("[WARN] Channel %s has an invalid permission key: %s", channelID, name)
			continue
		}
		levels[channelID] = level
	}
	return levels
}
