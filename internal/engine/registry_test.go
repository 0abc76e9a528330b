package engine

import (
	"context"
	"testing"
)

func noop(ctx context.Context, inv *Invocation) (string, error) { return "", nil }

func TestMatchRules(t *testing.T) {
	r := NewRegistry()
	r.Register(Equals(".beep ping").Run(noop).Build())
	r.Register(StartsWith(".beep announce").Run(noop).Build())
	r.Register(Combined(".beep help").Aliases(".help").Run(noop).Build())

	tests := []struct {
		text string
		want string // matched key, "" for no match
	}{
		{".beep ping", ".beep ping"},
		{".beep ping extra", ""},
		{".beep announce hello", ".beep announce"},
		{".beep announce", ""},     // starts-with requires arguments
		{".beep announcement", ""}, // key must be followed by a space
		{".beep help", ".beep help"},
		{".beep help ping", ".beep help"},
		{".help", ".beep help"},
		{".help ping", ".beep help"},
		{"unrelated chatter", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd := r.Match(tt.text)
			switch {
			case tt.want == "" && cmd != nil:
				t.Errorf("Match(%q) = %s, want no match", tt.text, cmd.Key())
			case tt.want != "" && cmd == nil:
				t.Errorf("Match(%q) = nil, want %s", tt.text, tt.want)
			case tt.want != "" && cmd.Key() != tt.want:
				t.Errorf("Match(%q) = %s, want %s", tt.text, cmd.Key(), tt.want)
			}
		})
	}
}

func TestRegisterReplacesSameKey(t *testing.T) {
	r := NewRegistry()
	r.Register(Equals(".beep ping").Description("old").Run(noop).Build())
	r.Register(Equals(".beep ping").Description("new").Run(noop).Build())

	if got := len(r.All()); got != 1 {
		t.Fatalf("registry holds %d commands, want 1", got)
	}
	if got := r.Match(".beep ping").Description(); got != "new" {
		t.Errorf("description = %q, want %q", got, "new")
	}
}

func TestAvailableFiltersAndSorts(t *testing.T) {
	r := NewRegistry()
	r.Register(Equals("c").Permission(LevelMaster).Run(noop).Build())
	r.Register(Equals("a").Permission(LevelNone).Run(noop).Build())
	r.Register(Equals("b").Permission(LevelSupport).Run(noop).Build())

	keys := func(cmds []*Command) []string {
		out := make([]string, len(cmds))
		for i, c := range cmds {
			out[i] = c.Key()
		}
		return out
	}

	if got := keys(r.Available(LevelNone)); len(got) != 1 || got[0] != "a" {
		t.Errorf("Available(none) = %v, want [a]", got)
	}
	if got := keys(r.Available(LevelSupport)); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Available(support) = %v, want [a b]", got)
	}
	if got := keys(r.Available(LevelMaster)); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("Available(master) = %v, want [a b c]", got)
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	cmd := r.Register(Equals(".beep ping").Run(noop).Build())
	r.Unregister(cmd)

	if got := r.Match(".beep ping"); got != nil {
		t.Errorf("Match after Unregister = %s, want nil", got.Key())
	}
}
