package commands

import (
	"context"
	"log"
	"strings"

	"agentnotify/clients"
	"agentnotify/models"
	commandsvc "agentnotify/services/commands"
)

// Dispatcher parses inbound text events and routes them to registered
// command handlers. A misbehaving handler is caught and reported as a reply;
// it never takes the dispatcher down.
type Dispatcher struct {
	gateway  clients.GatewayClient
	registry *commandsvc.Registry
	prefix   string

	// channelAllowed limits which channels the dispatcher listens in.
	// nil means all channels.
	channelAllowed func(channelID string) bool
}

// NewDispatcher creates a new command dispatcher
func NewDispatcher(
	gateway clients.GatewayClient,
	registry *commandsvc.Registry,
	prefix string,
	channelAllowed func(channelID string) bool,
) *Dispatcher {
	return &Dispatcher{
		gateway:        gateway,
		registry:       registry,
		prefix:         prefix,
		channelAllowed: channelAllowed,
	}
}

// HandleMessageEvent processes one inbound text event. Returns true when the
// event was recognized and dispatched as a command.
func (d *Dispatcher) HandleMessageEvent(ctx context.Context, event models.MessageEvent) bool {
	botUser, err := d.gateway.BotUser()
	if err != nil {
		log.Printf("❌ Failed to resolve bot identity for command dispatch: %v", err)
		return false
	}
	if event.UserID == botUser.ID {
		return false
	}
	if d.channelAllowed != nil && !d.channelAllowed(event.ChannelID) {
		return false
	}
	if !strings.HasPrefix(event.Content, d.prefix) {
		return false
	}

	parts := strings.Fields(strings.TrimPrefix(event.Content, d.prefix))
	if len(parts) == 0 {
		return false
	}

	name := strings.ToLower(parts[0])
	args := parts[1:]

	maybeCmd := d.registry.Get(name)
	if !maybeCmd.IsPresent() {
		// Unrecognized verbs are ignored so the prefix can coexist with
		// unrelated chatter
		return false
	}
	cmd := maybeCmd.MustGet()

	log.Printf("📋 Dispatching command %s from user %s with args %v", cmd.Name, event.UserID, args)
	if err := cmd.Handler(ctx, event, args); err != nil {
		log.Printf("❌ Error executing command %s: %v", cmd.Name, err)
		reply := "❌ Error executing command: " + err.Error()
		if replyErr := d.gateway.ReplyToMessage(event.ChannelID, event.MessageID, reply); replyErr != nil {
			log.Printf("❌ Failed to send command error reply: %v", replyErr)
		}
	}
	return true
}
