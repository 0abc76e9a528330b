package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/server-ops/internal/engine"
)

func registerDump(svc *engine.Service, d Deps) {
	svc.Register(engine.Equals(d.Prefix + " dump").
		Description("Export every announcement topic and its subscribers as a file").
		Permission(engine.LevelMaster).
		Run(func(ctx context.Context, inv *engine.Invocation) (string, error) {
			topics := d.Announcer.Topics()
			if len(topics) == 0 {
				return "No announcement topics exist yet.", nil
			}

			var b strings.Builder
			for _, topic := range topics {
				fmt.Fprintf(&b, "[%s]\n", topic)
				targets, err := d.Announcer.Subscriptions(topic)
				if err != nil {
					return "", fmt.Errorf("failed to read subscribers of '%s': %w", topic, err)
				}
				for _, t := range targets {
					if t.UserID != "" {
						fmt.Fprintf(&b, "  user %s\n", t.UserID)
					} else {
						fmt.Fprintf(&b, "  channel %s\n", t.ChannelID)
					}
				}
			}

			if err := svc.FileReply(ctx, inv, "subscriptions.txt", []byte(b.String())); err != nil {
				return "", fmt.Errorf("failed to send the export: %w", err)
			}
			return "", nil
		}).
		Build())
}
