package commands

import (
	"time"

	"github.com/keshon/server-ops/internal/announcer"
	"github.com/keshon/server-ops/internal/console"
	"github.com/keshon/server-ops/internal/engine"
)

// Deps carries everything the command set needs beyond the engine itself.
type Deps struct {
	// Prefix is the leading key shared by the built-in commands, e.g. ".beep".
	Prefix    string
	Announcer *announcer.Announcer
	Console   *console.Console
	StartedAt time.Time
}

// RegisterAll registers the built-in command set on the engine.
func RegisterAll(svc *engine.Service, d Deps) {
	registerPing(svc, d)
	registerAnnounce(svc, d)
	registerSubscribe(svc, d)
	registerUnsubscribe(svc, d)
	registerEval(svc, d)
	registerQueue(svc, d)
	registerDump(svc, d)
}
