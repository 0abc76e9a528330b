package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/keshon/server-ops/internal/engine"
)

func registerAnnounce(svc *engine.Service, d Deps) {
	svc.Register(engine.StartsWith(d.Prefix + " announce").
		Description("Send an announcement to all subscribers of a topic").
		Permission(engine.LevelSupport).
		Queued().
		Mention().
		OriginReplies().
		Flags(func(fs *pflag.FlagSet) {
			fs.StringP("topic", "t", "general", "topic to announce on")
		}).
		Run(func(ctx context.Context, inv *engine.Invocation) (string, error) {
			text := strings.TrimSpace(strings.Join(inv.Args, " "))
			if text == "" {
				return "", engine.ErrShowUsage
			}
			topic, _ := inv.Flags.GetString("topic")

			delivered, err := d.Announcer.Announce(ctx, topic, text)
			if err != nil {
				return "", fmt.Errorf("announcement on '%s' failed: %w", topic, err)
			}
			if delivered == 0 {
				return fmt.Sprintf("Nobody is subscribed to '%s', the announcement went nowhere.", topic), nil
			}
			return fmt.Sprintf("Announcement delivered to %d subscribers of '%s'.", delivered, topic), nil
		}).
		Build())
}
