package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConversationUnreadFor(t *testing.T) {
	conv := &Conversation{AdminUnreadCount: 3, SellerUnreadCount: 7}

	assert.Equal(t, 3, conv.UnreadFor(RoleAdmin))
	assert.Equal(t, 7, conv.UnreadFor(RoleSeller))
}

func TestConversationRoleOf(t *testing.T) {
	conv := &Conversation{SellerID: "seller-1", AdminID: "admin-1"}

	assert.Equal(t, RoleSeller, conv.RoleOf("seller-1"))
	assert.Equal(t, RoleAdmin, conv.RoleOf("admin-1"))
	// Other admin-pool sessions write into the same conversation.
	assert.Equal(t, RoleAdmin, conv.RoleOf("admin-2"))
}

func TestRoleCounterpart(t *testing.T) {
	assert.Equal(t, RoleSeller, RoleAdmin.Counterpart())
	assert.Equal(t, RoleAdmin, RoleSeller.Counterpart())
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("admin")
	assert.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseRole("buyer")
	assert.Error(t, err)
}

func TestMessageSummaryIsZero(t *testing.T) {
	assert.True(t, MessageSummary{}.IsZero())
	assert.False(t, MessageSummary{Text: "hi"}.IsZero())
	assert.False(t, MessageSummary{Timestamp: time.Now()}.IsZero())
}

func TestMessageSummary(t *testing.T) {
	now := time.Now()
	msg := &Message{Text: "hello", ImageURL: "https://example.com/a.png", SenderID: "seller-1", Timestamp: now}

	summary := msg.Summary()
	assert.Equal(t, "hello", summary.Text)
	assert.Equal(t, "https://example.com/a.png", summary.ImageURL)
	assert.Equal(t, "seller-1", summary.SenderID)
	assert.Equal(t, now, summary.Timestamp)
}
