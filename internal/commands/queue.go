package commands

import (
	"context"
	"fmt"

	"github.com/keshon/server-ops/internal/engine"
)

func registerQueue(svc *engine.Service, d Deps) {
	svc.Register(engine.Equals(d.Prefix + " queue").
		Description("Show whether you have a command still running").
		Permission(engine.LevelNone).
		Run(func(ctx context.Context, inv *engine.Invocation) (string, error) {
			if n := svc.QueuedJobCount(inv.Message.AuthorID); n > 0 {
				return fmt.Sprintf("You have %d command still running.", n), nil
			}
			return "You have no commands running right now.", nil
		}).
		Build())
}
