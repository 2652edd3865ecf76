package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storedesk/internal/domain/entity"
)

func TestServeConversationFeedStopsOnCancel(t *testing.T) {
	uc, convs, _, _ := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- uc.ServeConversationFeed(ctx, entity.RoleAdmin, "admin-1")
	}()

	// Let the feed subscribe, deliver one snapshot, then cancel.
	require.Eventually(t, func() bool {
		convs.mu.Lock()
		defer convs.mu.Unlock()
		return convs.convFeed != nil
	}, time.Second, 10*time.Millisecond)

	convs.convFeed <- entity.ConversationSnapshot{}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("feed did not stop after cancel")
	}
}

func TestServeConversationFeedSurfacesStreamError(t *testing.T) {
	uc, convs, _, _ := newTestEngine(t)

	done := make(chan error, 1)
	go func() {
		done <- uc.ServeConversationFeed(context.Background(), entity.RoleAdmin, "admin-1")
	}()

	require.Eventually(t, func() bool {
		convs.mu.Lock()
		defer convs.mu.Unlock()
		return convs.convFeedErr != nil
	}, time.Second, 10*time.Millisecond)

	convs.convFeedErr <- fmt.Errorf("listener lost")

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listener lost")
	case <-time.After(time.Second):
		t.Fatal("feed did not stop after stream error")
	}
}

func TestServeMessageFeedRequiresConversation(t *testing.T) {
	uc, _, _, _ := newTestEngine(t)

	err := uc.ServeMessageFeed(context.Background(), "no-such-conversation", "admin-1")
	require.Error(t, err)
}

func TestServeMessageFeedStopsOnCancel(t *testing.T) {
	uc, convs, _, _ := newTestEngine(t)
	conv, err := uc.GetOrCreateConversation(context.Background(), "seller-1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- uc.ServeMessageFeed(ctx, conv.ID, "seller-1")
	}()

	require.Eventually(t, func() bool {
		convs.mu.Lock()
		defer convs.mu.Unlock()
		return convs.msgFeed != nil
	}, time.Second, 10*time.Millisecond)

	convs.msgFeed <- entity.MessageSnapshot{}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("feed did not stop after cancel")
	}
}
