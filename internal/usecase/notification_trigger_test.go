package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storedesk/internal/domain/entity"
)

func TestShouldAlert(t *testing.T) {
	conv := func(senderID string, adminUnread, sellerUnread int) *entity.Conversation {
		return &entity.Conversation{
			ID:                "conv-1",
			SellerID:          "seller-1",
			AdminID:           "admin-1",
			AdminUnreadCount:  adminUnread,
			SellerUnreadCount: sellerUnread,
			LastMessage:       entity.MessageSummary{SenderID: senderID, Text: "hi"},
		}
	}

	tests := []struct {
		name     string
		change   entity.ConversationChange
		observer string
		role     entity.Role
		want     bool
	}{
		{
			name:     "counterpart message with unread",
			change:   entity.ConversationChange{Kind: entity.ChangeModified, Conversation: conv("seller-1", 1, 0)},
			observer: "admin-1",
			role:     entity.RoleAdmin,
			want:     true,
		},
		{
			name:     "own message never alerts",
			change:   entity.ConversationChange{Kind: entity.ChangeModified, Conversation: conv("admin-1", 1, 0)},
			observer: "admin-1",
			role:     entity.RoleAdmin,
			want:     false,
		},
		{
			name:     "no unread means already seen",
			change:   entity.ConversationChange{Kind: entity.ChangeModified, Conversation: conv("seller-1", 0, 0)},
			observer: "admin-1",
			role:     entity.RoleAdmin,
			want:     false,
		},
		{
			name:     "added delta is initial delivery",
			change:   entity.ConversationChange{Kind: entity.ChangeAdded, Conversation: conv("seller-1", 1, 0)},
			observer: "admin-1",
			role:     entity.RoleAdmin,
			want:     false,
		},
		{
			name:     "removed delta never alerts",
			change:   entity.ConversationChange{Kind: entity.ChangeRemoved, Conversation: conv("seller-1", 1, 0)},
			observer: "admin-1",
			role:     entity.RoleAdmin,
			want:     false,
		},
		{
			name:     "empty summary carries no sender",
			change:   entity.ConversationChange{Kind: entity.ChangeModified, Conversation: conv("", 1, 0)},
			observer: "admin-1",
			role:     entity.RoleAdmin,
			want:     false,
		},
		{
			name:     "nil conversation",
			change:   entity.ConversationChange{Kind: entity.ChangeModified},
			observer: "admin-1",
			role:     entity.RoleAdmin,
			want:     false,
		},
		{
			name:     "seller observer uses seller counter",
			change:   entity.ConversationChange{Kind: entity.ChangeModified, Conversation: conv("admin-1", 0, 2)},
			observer: "seller-1",
			role:     entity.RoleSeller,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAlert(tt.change, tt.observer, tt.role))
		})
	}
}
