package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// ParseError reports malformed command arguments. It is recovered locally by
// showing the command's usage text, never surfaced as a crash.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Tokenize splits an argument string into fields, keeping double- or
// single-quoted segments together and stripping the quotes.
func Tokenize(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   byte
		open    bool
	)
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case open && ch == quote:
			open = false
		case !open && (ch == '"' || ch == '\''):
			open = true
			quote = ch
		case !open && (ch == ' ' || ch == '\t'):
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return tokens
}

// newFlagSet builds the command's declared flag set, silenced so parse errors
// reach the caller instead of stderr.
func (c *Command) newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(c.key, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	c.flagDefs(fs)
	return fs
}

// ParseArgs parses the raw argument text following the command key. Commands
// without declared flags get the tokenized arguments as-is. A flag parsing
// failure is returned as a *ParseError.
func (c *Command) ParseArgs(raw string) (*pflag.FlagSet, []string, error) {
	tokens := Tokenize(raw)
	if c.flagDefs == nil {
		return nil, tokens, nil
	}
	fs := c.newFlagSet()
	if err := fs.Parse(tokens); err != nil {
		return nil, nil, &ParseError{Key: c.key, Err: err}
	}
	return fs, fs.Args(), nil
}

// UsageText renders the command's help: key, description, permission
// requirement, experimental warning, and declared flags.
func (c *Command) UsageText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "• Help for **%s**: %s", c.key, c.description)
	if c.level > LevelNone {
		fmt.Fprintf(&b, " (requires permission level %d)", int(c.level))
	}
	if c.experimental {
		b.WriteString(" -- Warning, this command is **experimental** and not well tested yet.")
	}
	b.WriteString("\n")
	if c.flagDefs != nil {
		if usages := c.newFlagSet().FlagUsages(); usages != "" {
			b.WriteString(usages)
		}
	}
	return b.String()
}
