package engine

import (
	"log"
	"sort"
	"strings"
	"sync"
)

// Registry stores commands by trigger key. Matching walks the registered
// commands and returns the first whose rule accepts the text; iteration order
// is unspecified across registrations, so at most callers may rely on "at
// most one command executes".
type Registry struct {
	mu       sync.RWMutex
	commands []*Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a command. A command with the same trigger key replaces the
// existing one. The effective configuration is logged.
func (r *Registry) Register(cmd *Command) *Command {
	r.mu.Lock()
	replaced := false
	for i, c := range r.commands {
		if c.Key() == cmd.Key() {
			r.commands[i] = cmd
			replaced = true
			break
		}
	}
	if !replaced {
		r.commands = append(r.commands, cmd)
	}
	r.mu.Unlock()

	log.Printf("[INFO] Command %-20s [%2d] %s", cmd.Key(), int(cmd.Level()), describe(cmd))
	return cmd
}

// Unregister removes the command with cmd's trigger key.
func (r *Registry) Unregister(cmd *Command) {
	log.Printf("[INFO] Removing %s", cmd.Key())
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.commands {
		if c.Key() == cmd.Key() {
			r.commands = append(r.commands[:i], r.commands[i+1:]...)
			return
		}
	}
}

// Match returns the first registered command triggered by text, or nil.
func (r *Registry) Match(text string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.commands {
		if c.Matches(text) {
			return c
		}
	}
	return nil
}

// Available returns the commands executable at the given caller level,
// sorted by trigger key.
func (r *Registry) Available(level Level) []*Command {
	r.mu.RLock()
	list := make([]*Command, 0, len(r.commands))
	for _, c := range r.commands {
		if c.Level() <= level {
			list = append(list, c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Key() < list[j].Key() })
	return list
}

// All returns every registered command, sorted by trigger key.
func (r *Registry) All() []*Command {
	return r.Available(LevelMaster)
}

// describe summarizes a command's configuration for the registration log.
func describe(c *Command) string {
	var parts []string
	if c.MatchType() != MatchStartsWith {
		parts = append(parts, c.MatchType().String()+" match")
	}
	replies := c.ReplyMode().String() + " replies"
	if c.Mention() {
		replies += " with mention"
	}
	parts = append(parts, replies)
	if c.Queued() {
		parts = append(parts, "queued")
	}
	if c.PersistStatus() {
		parts = append(parts, "persisted status")
	}
	if c.Experimental() {
		parts = append(parts, "experimental")
	}
	return strings.Join(parts, ", ")
}
