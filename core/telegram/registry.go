package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/core/logger"
	"github.com/m3rciful/menubot/core/telegram/callbacks"
	"github.com/m3rciful/menubot/core/telegram/commands"
)

// ErrDuplicate is returned when a command, alias or callback key is taken.
var ErrDuplicate = errors.New("already registered")

// Registry holds bot commands and callback handlers keyed by unique.
// Registration happens before the bot starts; lookups are concurrent.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]commands.Command
	aliases   map[string]string
	callbacks map[string]tele.HandlerFunc
	notFound  tele.HandlerFunc
}

// NewRegistry creates an empty Registry. Unknown callbacks are logged and
// otherwise ignored.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		notFound: func(c tele.Context) error {
			logger.LogEvent(context.Background(), logger.TWire, slog.LevelDebug, "callback.unmatched",
				slog.String("cb_key", callbacks.Key(c)),
			)
			return nil
		},
	}
}

// RegisterCommand adds cmd under name and its aliases. Invalid or
// conflicting registrations are logged and rejected as a whole.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	if err := cmd.Validate(name); err != nil {
		r.skip("register.command.skip", name, err)
		return fmt.Errorf("command %q: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	endpoints := cmd.Endpoints(name)
	for _, ep := range endpoints {
		if r.taken(ep) {
			r.skip("register.command.duplicate", ep, ErrDuplicate)
			return fmt.Errorf("command %q: %w", ep, ErrDuplicate)
		}
	}
	r.commands[name] = cmd
	for _, alias := range endpoints[1:] {
		r.aliases[alias] = name
	}
	return nil
}

func (r *Registry) taken(endpoint string) bool {
	_, cmd := r.commands[endpoint]
	_, alias := r.aliases[endpoint]
	return cmd || alias
}

func (r *Registry) skip(event, name string, err error) {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, event,
		slog.String("name", name),
		slog.String("reason", err.Error()),
	)
}

// ListCommands returns commands sorted by name. With visibleOnly, hidden and
// admin-only commands are left out.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []tele.Command
	for name, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: name, Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves a name or alias, with or without the slash, to
// the canonical name and its command.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	name = commands.Normalize(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	cmd, ok := r.commands[name]
	if !ok {
		return "", commands.Command{}, false
	}
	return name, cmd, true
}

// Commands returns a copy of the registered commands keyed by canonical name.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// RegisterCallback maps a button's unique key to handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		err := errors.New("invalid callback registration")
		r.skip("register.callback.skip", key, err)
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		r.skip("register.callback.duplicate", key, ErrDuplicate)
		return fmt.Errorf("callback %q: %w", key, ErrDuplicate)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler for key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the sorted callback keys.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the fallback for unknown callback keys.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h != nil {
		r.notFound = h
	}
}

// CallbackNotFound returns the fallback for unknown callback keys.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.notFound
}

// SetupCommands publishes the visible commands to the Telegram command menu.
func SetupCommands(bot *tele.Bot, reg *Registry) {
	if bot == nil || reg == nil {
		return
	}
	if err := bot.SetCommands(reg.ListCommands(true)); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
