package models

import "context"

// CommandHandler is the function bound to a chat command. Errors returned
// here are caught by the dispatcher and reported as a visible reply.
type CommandHandler func(ctx context.Context, event MessageEvent, args []string) error

// Command describes a chat command. Immutable after registration; aliases
// are alternate registry keys resolving to the same Command value.
type Command struct {
	Name        string
	Description string
	Usage       string
	Category    string
	Aliases     []string
	Handler     CommandHandler
}
