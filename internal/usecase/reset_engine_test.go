package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storedesk/internal/domain/entity"
	"storedesk/pkg/errors"
)

func TestResetPreservesSentinel(t *testing.T) {
	uc, convs, _, _ := newTestEngine(t)
	conv, err := uc.GetOrCreateConversation(context.Background(), "seller-1")
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := uc.SendMessage(context.Background(), SendMessageInput{ConversationID: conv.ID, Text: text})
		require.NoError(t, err)
	}

	// The seller clears their own conversation.
	result, err := uc.ResetConversation(context.Background(), conv.ID, "seller-1")
	require.NoError(t, err)
	assert.False(t, result.Recreated)
	assert.Equal(t, conv.ID, result.Conversation.ID, "in-place reset keeps the id")

	msgs, err := convs.ListMessages(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, testGreeting, msgs[0].Text)

	after, err := convs.GetByID(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, testGreeting, after.LastMessage.Text)
	assert.Equal(t, 1, after.SellerUnreadCount, "the seller is told their conversation was cleared")
	assert.Equal(t, 0, after.AdminUnreadCount)
}

func TestResetRecreatesWhenSentinelMissing(t *testing.T) {
	uc, convs, _, _ := newTestEngine(t)
	conv, err := uc.GetOrCreateConversation(context.Background(), "seller-1")
	require.NoError(t, err)

	_, err = uc.SendMessage(context.Background(), SendMessageInput{ConversationID: conv.ID, Text: "hello"})
	require.NoError(t, err)

	// Break the greeting invariant by deleting the sentinel directly.
	msgs, err := convs.ListMessages(context.Background(), conv.ID)
	require.NoError(t, err)
	require.NoError(t, convs.DeleteMessage(context.Background(), conv.ID, msgs[0].ID))

	result, err := uc.ResetConversation(context.Background(), conv.ID, "seller-1")
	require.NoError(t, err)
	assert.True(t, result.Recreated)
	assert.NotEqual(t, conv.ID, result.Conversation.ID, "purge-and-recreate yields a fresh id")

	_, err = convs.GetByID(context.Background(), conv.ID)
	assert.True(t, errors.Is(err, "NOT_FOUND"), "the broken conversation is gone")

	fresh, err := convs.ListMessages(context.Background(), result.Conversation.ID)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, testGreeting, fresh[0].Text)
}

func TestResetKeepsOnlyFirstSentinelMatch(t *testing.T) {
	uc, convs, _, _ := newTestEngine(t)
	conv, err := uc.GetOrCreateConversation(context.Background(), "seller-1")
	require.NoError(t, err)

	// An admin happening to type the greeting text produces a second
	// sentinel lookalike; only the first survives a reset.
	msgs, err := convs.ListMessages(context.Background(), conv.ID)
	require.NoError(t, err)
	dupe := *msgs[0]
	dupe.ID = ""
	require.NoError(t, convs.CreateMessage(context.Background(), &dupe))

	result, err := uc.ResetConversation(context.Background(), conv.ID, "admin-1")
	require.NoError(t, err)
	assert.False(t, result.Recreated)

	remaining, err := convs.ListMessages(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestResetRejectsNonParticipant(t *testing.T) {
	uc, convs, users, _ := newTestEngine(t)
	conv, err := uc.GetOrCreateConversation(context.Background(), "seller-1")
	require.NoError(t, err)

	_, err = uc.SendMessage(context.Background(), SendMessageInput{ConversationID: conv.ID, Text: "hello"})
	require.NoError(t, err)

	users.users["seller-2"] = &entity.User{ID: "seller-2", Username: "Lapak Lain", Role: "seller"}

	_, err = uc.ResetConversation(context.Background(), conv.ID, "seller-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	msgs, err := convs.ListMessages(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2, "a rejected reset must not touch the log")
}

func TestResetUnknownConversation(t *testing.T) {
	uc, _, _, _ := newTestEngine(t)

	_, err := uc.ResetConversation(context.Background(), "no-such-conversation", "admin-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}
