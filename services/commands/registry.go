package commands

import (
	"fmt"
	"strings"
	"sync"

	"github.com/samber/mo"

	"agentnotify/models"
)

// Registry maps command names and aliases to Command values. In strict mode
// (the default) duplicate names or aliases are rejected at registration time;
// lenient mode keeps the historical last-registration-wins behavior for
// callers that rely on overriding built-ins.
type Registry struct {
	strict bool

	mu       sync.RWMutex
	commands map[string]*models.Command
	order    []string
}

// NewRegistry creates a registry that rejects duplicate registrations
func NewRegistry() *Registry {
	return &Registry{
		strict:   true,
		commands: make(map[string]*models.Command),
	}
}

// NewLenientRegistry creates a registry where a later registration silently
// replaces an earlier one under the same name or alias
func NewLenientRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*models.Command),
	}
}

// Register adds a command under its primary name and each alias. All keys
// resolve to the identical Command value.
func (r *Registry) Register(cmd *models.Command) error {
	if cmd == nil || strings.TrimSpace(cmd.Name) == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if cmd.Handler == nil {
		return fmt.Errorf("command %s has no handler", cmd.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append([]string{cmd.Name}, cmd.Aliases...)
	if r.strict {
		for _, key := range keys {
			if existing, ok := r.commands[key]; ok {
				return fmt.Errorf("command key %q already registered by command %q", key, existing.Name)
			}
		}
	}

	if _, replacing := r.commands[cmd.Name]; !replacing {
		r.order = append(r.order, cmd.Name)
	}
	for _, key := range keys {
		r.commands[key] = cmd
	}
	return nil
}

// Get resolves a primary name or alias to its command
func (r *Registry) Get(name string) mo.Option[*models.Command] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.commands[name]; ok {
		return mo.Some(cmd)
	}
	return mo.None[*models.Command]()
}

// GetAll returns the primary commands in registration order, aliases excluded
func (r *Registry) GetAll() []*models.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.Command, 0, len(r.order))
	for _, name := range r.order {
		if cmd, ok := r.commands[name]; ok && cmd.Name == name {
			all = append(all, cmd)
		}
	}
	return all
}

// GetByCategory groups the primary commands by category, preserving
// registration order within each group
func (r *Registry) GetByCategory() map[string][]*models.Command {
	categories := make(map[string][]*models.Command)
	for _, cmd := range r.GetAll() {
		categories[cmd.Category] = append(categories[cmd.Category], cmd)
	}
	return categories
}
