package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// RegisterHelp registers the built-in help command under key, matched
// combined, open to everyone. Aliases trigger the same command.
func (s *Service) RegisterHelp(key string, aliases ...string) *Command {
	cmd := Combined(key).
		Aliases(aliases...).
		Description("Show help about commands").
		Permission(LevelNone).
		Flags(func(fs *pflag.FlagSet) {
			fs.BoolP("full", "f", false, "display all commands in a list with their description")
		}).
		Run(s.showCommandList).
		Build()
	return s.registry.Register(cmd)
}

// showCommandList lists the commands available at the caller's level, sorted
// by key. With positional arguments it shows per-command help instead; with
// --full it includes descriptions.
func (s *Service) showCommandList(ctx context.Context, inv *Invocation) (string, error) {
	available := s.registry.Available(s.LevelFor(inv.Message.AuthorID))

	if len(inv.Args) > 0 {
		var b strings.Builder
		for _, c := range available {
			if isRequested(inv.Args, c) {
				b.WriteString(c.UsageText())
			}
		}
		return b.String(), nil
	}

	if full, _ := inv.Flags.GetBool("full"); full {
		var b strings.Builder
		b.WriteString("*Commands available to you*")
		for _, c := range available {
			fmt.Fprintf(&b, "\n%-24s\t\t%s", "**"+c.Key()+"**", c.Description())
		}
		return b.String(), nil
	}

	keys := make([]string, 0, len(available))
	for _, c := range available {
		keys = append(keys, c.Key())
	}
	return "*Commands available to you:* " + strings.Join(keys, ", "), nil
}

// isRequested reports whether the user asked for help about this command: by
// full key, by the key with leading punctuation stripped, or by its last
// word.
func isRequested(names []string, c *Command) bool {
	trimmed := strings.TrimLeft(c.Key(), ".+!")
	words := strings.Fields(c.Key())
	last := ""
	if len(words) > 0 {
		last = words[len(words)-1]
	}
	for _, name := range names {
		if name == c.Key() || name == trimmed || name == last {
			return true
		}
	}
	return false
}
