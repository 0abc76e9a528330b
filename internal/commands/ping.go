package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/server-ops/internal/engine"
	"github.com/keshon/server-ops/pkg/util"
)

func registerPing(svc *engine.Service, d Deps) {
	svc.Register(engine.Equals(d.Prefix + " ping").
		Description("Pong!").
		Permission(engine.LevelNone).
		OriginReplies().
		Run(func(ctx context.Context, inv *engine.Invocation) (string, error) {
			return fmt.Sprintf("🏓 Pong! Up for %s.", util.HumanDuration(time.Since(d.StartedAt))), nil
		}).
		Build())
}
