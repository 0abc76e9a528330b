package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/keshon/server-ops/internal/engine"
	"github.com/keshon/server-ops/internal/storage"
)

func subscriptionFlags(fs *pflag.FlagSet) {
	fs.StringP("user", "u", "", "subscribe a user's DMs instead of a channel")
	fs.StringP("channel", "c", "", "channel to subscribe (defaults to the current one)")
}

// subscriptionTarget resolves the target a sub/unsub invocation points at:
// an explicit user, an explicit channel, or the invoking channel.
func subscriptionTarget(inv *engine.Invocation) storage.Target {
	if userID, _ := inv.Flags.GetString("user"); userID != "" {
		return storage.Target{UserID: userID}
	}
	if channelID, _ := inv.Flags.GetString("channel"); channelID != "" {
		return storage.Target{ChannelID: channelID}
	}
	return storage.Target{ChannelID: inv.Message.ChannelID}
}

func describeTarget(t storage.Target) string {
	if t.UserID != "" {
		return "user " + t.UserID
	}
	return "channel " + t.ChannelID
}

func registerSubscribe(svc *engine.Service, d Deps) {
	svc.Register(engine.StartsWith(d.Prefix + " sub").
		Description("Subscribe a channel or user to an announcement topic").
		Permission(engine.LevelMaster).
		Flags(subscriptionFlags).
		Run(func(ctx context.Context, inv *engine.Invocation) (string, error) {
			if len(inv.Args) == 0 {
				return "", engine.ErrShowUsage
			}
			topic := strings.TrimSpace(inv.Args[0])
			target := subscriptionTarget(inv)

			if err := d.Announcer.Subscribe(topic, target); err != nil {
				return "", fmt.Errorf("failed to subscribe: %w", err)
			}
			return fmt.Sprintf("Subscribed %s to '%s'.", describeTarget(target), topic), nil
		}).
		Build())
}

func registerUnsubscribe(svc *engine.Service, d Deps) {
	svc.Register(engine.StartsWith(d.Prefix + " unsub").
		Description("Remove a channel or user from an announcement topic").
		Permission(engine.LevelMaster).
		Flags(subscriptionFlags).
		Run(func(ctx context.Context, inv *engine.Invocation) (string, error) {
			if len(inv.Args) == 0 {
				return "", engine.ErrShowUsage
			}
			topic := strings.TrimSpace(inv.Args[0])
			target := subscriptionTarget(inv)

			if err := d.Announcer.Unsubscribe(topic, target); err != nil {
				return fmt.Sprintf("Could not unsubscribe %s: %v", describeTarget(target), err), nil
			}
			return fmt.Sprintf("Unsubscribed %s from '%s'.", describeTarget(target), topic), nil
		}).
		Build())
}
