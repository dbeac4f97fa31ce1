package commands

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrNoHandler rejects a command without a handler.
	ErrNoHandler = errors.New("command has no handler")
	// ErrNoDescription rejects a command without a menu description.
	ErrNoDescription = errors.New("command has no description")
	// ErrNoSlash rejects a name that does not start with "/".
	ErrNoSlash = errors.New("command name must start with /")
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Validate checks that cmd can be registered under name.
func (cmd Command) Validate(name string) error {
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		return ErrNoSlash
	case cmd.Handler == nil:
		return ErrNoHandler
	case strings.TrimSpace(cmd.Description) == "":
		return ErrNoDescription
	}
	return nil
}

// Endpoints returns name followed by every alias in slash form.
func (cmd Command) Endpoints(name string) []string {
	out := []string{name}
	for _, alias := range cmd.Aliases {
		if alias = Normalize(alias); alias != "" && alias != name {
			out = append(out, alias)
		}
	}
	return out
}

// Normalize trims s and adds the leading slash when missing.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "/") {
		return s
	}
	return "/" + s
}
