package reactions

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/samber/mo"

	"agentnotify/core"
	"agentnotify/models"
)

// PendingReaction is an in-memory record of one outstanding reaction wait.
// The accepted emoji set is fixed at registration; the entry is removed on
// the first matching event or on timeout, whichever fires first.
type PendingReaction struct {
	ID           string
	MessageID    string
	Emojis       []string
	IgnoreUserID string
	CreatedAt    time.Time

	done chan models.ReactionEvent
}

// Correlator matches inbound reaction events against outstanding waits.
// Waits are indexed by message ID, so match latency is independent of how
// many unrelated waits exist; no two waits ever share a message ID.
type Correlator struct {
	mu    sync.Mutex
	waits map[string]*PendingReaction
}

// NewCorrelator creates a new reaction correlator
func NewCorrelator() *Correlator {
	return &Correlator{
		waits: make(map[string]*PendingReaction),
	}
}

// Register creates a wait for the given message. ignoreUserID is the bot's
// own identity; its reactions never resolve a wait. Registering a second
// wait on the same message is an error.
func (c *Correlator) Register(messageID string, emojis []string, ignoreUserID string) (*PendingReaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.waits[messageID]; exists {
		return nil, fmt.Errorf("a reaction wait is already registered for message %s", messageID)
	}

	pending := &PendingReaction{
		ID:           core.NewID("rw"),
		MessageID:    messageID,
		Emojis:       slices.Clone(emojis),
		IgnoreUserID: ignoreUserID,
		CreatedAt:    time.Now(),
		done:         make(chan models.ReactionEvent, 1),
	}
	c.waits[messageID] = pending

	log.Printf("📋 Registered reaction wait %s on message %s for emojis %v", pending.ID, messageID, emojis)
	return pending, nil
}

// HandleReactionEvent resolves the wait matching the event, if any. Intended
// to be fed by the persistent gateway reaction handler. Non-matching events,
// own-bot reactions, and late events after timeout are all no-ops.
func (c *Correlator) HandleReactionEvent(event models.ReactionEvent) {
	c.mu.Lock()
	pending, ok := c.waits[event.MessageID]
	if !ok {
		c.mu.Unlock()
		return
	}
	if event.UserID == pending.IgnoreUserID {
		c.mu.Unlock()
		return
	}
	if !slices.Contains(pending.Emojis, event.Emoji) {
		c.mu.Unlock()
		return
	}
	// First match wins: remove while still holding the lock so a second
	// reaction on the same message is ignored
	delete(c.waits, event.MessageID)
	c.mu.Unlock()

	log.Printf("✅ Reaction wait %s resolved with %s by user %s", pending.ID, event.Emoji, event.UserID)
	pending.done <- event
}

// Await blocks until the wait resolves, the timeout elapses, or ctx is
// cancelled. The timeout fires on schedule regardless of event stream health.
func (c *Correlator) Await(
	ctx context.Context,
	pending *PendingReaction,
	timeout time.Duration,
) (models.ReactionEvent, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case event := <-pending.done:
		return event, nil

	case <-timer.C:
		if c.removeIfPending(pending) {
			log.Printf("⏱️ Reaction wait %s timed out after %s", pending.ID, timeout)
			return models.ReactionEvent{}, core.ErrReactionTimeout
		}
		// A match won the race; its event is already buffered
		return <-pending.done, nil

	case <-ctx.Done():
		if c.removeIfPending(pending) {
			return models.ReactionEvent{}, fmt.Errorf("reaction wait cancelled: %w", ctx.Err())
		}
		return <-pending.done, nil
	}
}

// removeIfPending removes the wait if it is still registered. Returns false
// when a matching event already claimed it.
func (c *Correlator) removeIfPending(pending *PendingReaction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.waits[pending.MessageID]
	if !ok || current != pending {
		return false
	}
	delete(c.waits, pending.MessageID)
	return true
}

// Lookup returns the wait registered for a message, if any
func (c *Correlator) Lookup(messageID string) mo.Option[*PendingReaction] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pending, ok := c.waits[messageID]; ok {
		return mo.Some(pending)
	}
	return mo.None[*PendingReaction]()
}

// PendingCount returns the number of outstanding waits
func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waits)
}
