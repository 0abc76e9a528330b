package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/server-ops/internal/engine"
)

func registerEval(svc *engine.Service, d Deps) {
	svc.Register(engine.StartsWith(d.Prefix + " eval").
		Description("Evaluate a JavaScript snippet and show its output").
		Permission(engine.LevelMaster).
		Queued().
		PrivateReplies().
		Experimental().
		Run(func(ctx context.Context, inv *engine.Invocation) (string, error) {
			src := stripCodeFences(inv.RawArgs)
			if strings.TrimSpace(src) == "" {
				return "", engine.ErrShowUsage
			}

			out, err := d.Console.Eval(ctx, src)
			if err != nil {
				return fmt.Sprintf("```\n%v\n```", err), nil
			}
			if out == "" {
				return "Script finished with no output.", nil
			}
			return fmt.Sprintf("```\n%s\n```", out), nil
		}).
		Build())
}

// stripCodeFences unwraps ```js ... ``` or `...` wrapping around a snippet.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") && len(s) > 6 {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			first := strings.TrimSpace(s[:nl])
			if first == "js" || first == "javascript" || first == "" {
				s = s[nl+1:]
			}
		}
		return strings.TrimSpace(s)
	}
	if strings.HasPrefix(s, "`") && strings.HasSuffix(s, "`") && len(s) > 2 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	return s
}
