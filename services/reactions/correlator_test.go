package reactions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentnotify/core"
	"agentnotify/models"
)

const (
	testMessageID = "msg-123"
	testBotUserID = "bot-xyz"
	testUserID    = "user-abc"
)

func TestCorrelator_ResolveMatchingReaction(t *testing.T) {
	c := NewCorrelator()

	pending, err := c.Register(testMessageID, []string{"✅", "❌"}, testBotUserID)
	require.NoError(t, err)

	go c.HandleReactionEvent(models.ReactionEvent{
		MessageID: testMessageID,
		UserID:    testUserID,
		Username:  "alice",
		Emoji:     "✅",
	})

	event, err := c.Await(context.Background(), pending, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "✅", event.Emoji)
	assert.Equal(t, testUserID, event.UserID)
	assert.Equal(t, 0, c.PendingCount())
}

func TestCorrelator_IgnoresOwnBotReaction(t *testing.T) {
	c := NewCorrelator()

	pending, err := c.Register(testMessageID, []string{"✅"}, testBotUserID)
	require.NoError(t, err)

	// The bot attaching the option emojis must never resolve the wait
	c.HandleReactionEvent(models.ReactionEvent{
		MessageID: testMessageID,
		UserID:    testBotUserID,
		Emoji:     "✅",
	})

	_, err = c.Await(context.Background(), pending, 50*time.Millisecond)
	assert.ErrorIs(t, err, core.ErrReactionTimeout)
}

func TestCorrelator_IgnoresNonMemberEmoji(t *testing.T) {
	c := NewCorrelator()

	pending, err := c.Register(testMessageID, []string{"✅", "❌"}, testBotUserID)
	require.NoError(t, err)

	c.HandleReactionEvent(models.ReactionEvent{
		MessageID: testMessageID,
		UserID:    testUserID,
		Emoji:     "👍",
	})

	_, err = c.Await(context.Background(), pending, 50*time.Millisecond)
	assert.ErrorIs(t, err, core.ErrReactionTimeout)
}

func TestCorrelator_IgnoresUnrelatedMessage(t *testing.T) {
	c := NewCorrelator()

	pending, err := c.Register(testMessageID, []string{"✅"}, testBotUserID)
	require.NoError(t, err)

	c.HandleReactionEvent(models.ReactionEvent{
		MessageID: "other-message",
		UserID:    testUserID,
		Emoji:     "✅",
	})

	_, err = c.Await(context.Background(), pending, 50*time.Millisecond)
	assert.ErrorIs(t, err, core.ErrReactionTimeout)
}

func TestCorrelator_TimeoutRemovesWait(t *testing.T) {
	c := NewCorrelator()

	pending, err := c.Register(testMessageID, []string{"✅"}, testBotUserID)
	require.NoError(t, err)

	_, err = c.Await(context.Background(), pending, 10*time.Millisecond)
	assert.ErrorIs(t, err, core.ErrReactionTimeout)
	assert.Equal(t, 0, c.PendingCount())

	// A reaction arriving after timeout is a no-op
	c.HandleReactionEvent(models.ReactionEvent{
		MessageID: testMessageID,
		UserID:    testUserID,
		Emoji:     "✅",
	})
	assert.Equal(t, 0, c.PendingCount())
}

func TestCorrelator_FirstMatchWins(t *testing.T) {
	c := NewCorrelator()

	pending, err := c.Register(testMessageID, []string{"✅", "❌"}, testBotUserID)
	require.NoError(t, err)

	c.HandleReactionEvent(models.ReactionEvent{MessageID: testMessageID, UserID: "user-1", Emoji: "✅"})
	c.HandleReactionEvent(models.ReactionEvent{MessageID: testMessageID, UserID: "user-2", Emoji: "❌"})

	event, err := c.Await(context.Background(), pending, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "✅", event.Emoji)
}

func TestCorrelator_DisjointConcurrentWaits(t *testing.T) {
	c := NewCorrelator()

	pendingA, err := c.Register("msg-a", []string{"✅"}, testBotUserID)
	require.NoError(t, err)
	pendingB, err := c.Register("msg-b", []string{"✅"}, testBotUserID)
	require.NoError(t, err)
	assert.Equal(t, 2, c.PendingCount())

	var wg sync.WaitGroup
	results := make([]models.ReactionEvent, 2)
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = c.Await(context.Background(), pendingA, 5*time.Second)
	}()
	go func() {
		defer wg.Done()
		results[1], errs[1] = c.Await(context.Background(), pendingB, 5*time.Second)
	}()

	c.HandleReactionEvent(models.ReactionEvent{MessageID: "msg-b", UserID: "user-b", Emoji: "✅"})
	c.HandleReactionEvent(models.ReactionEvent{MessageID: "msg-a", UserID: "user-a", Emoji: "✅"})

	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, "user-a", results[0].UserID)
	assert.Equal(t, "user-b", results[1].UserID)
}

func TestCorrelator_DuplicateRegistrationRejected(t *testing.T) {
	c := NewCorrelator()

	_, err := c.Register(testMessageID, []string{"✅"}, testBotUserID)
	require.NoError(t, err)

	_, err = c.Register(testMessageID, []string{"❌"}, testBotUserID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestCorrelator_ContextCancellation(t *testing.T) {
	c := NewCorrelator()

	pending, err := c.Register(testMessageID, []string{"✅"}, testBotUserID)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Await(ctx, pending, time.Minute)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.PendingCount())
}

func TestCorrelator_Lookup(t *testing.T) {
	c := NewCorrelator()

	assert.False(t, c.Lookup(testMessageID).IsPresent())

	pending, err := c.Register(testMessageID, []string{"✅"}, testBotUserID)
	require.NoError(t, err)

	found := c.Lookup(testMessageID)
	require.True(t, found.IsPresent())
	assert.Equal(t, pending.ID, found.MustGet().ID)
}
