package entity

import "time"

// MessageSummary is the denormalized tail of a conversation's message log.
// It must always point at the most recent surviving message.
type MessageSummary struct {
	Text      string    `json:"text" firestore:"text"`
	ImageURL  string    `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}

func (s MessageSummary) IsZero() bool {
	return s.Text == "" && s.ImageURL == "" && s.SenderID == "" && s.Timestamp.IsZero()
}

// Conversation pairs exactly one seller with one support-pool admin.
// (SellerID, AdminID) is the unique pairing key: lookups find-or-create,
// never duplicate.
type Conversation struct {
	ID              string         `json:"id" firestore:"id"`
	SellerID        string         `json:"seller_id" firestore:"sellerId"`
	AdminID         string         `json:"admin_id" firestore:"adminId"`
	CreatedAt       time.Time      `json:"created_at" firestore:"createdAt"`
	LastMessageTime time.Time      `json:"last_message_time" firestore:"lastMessageTime"`
	LastMessage     MessageSummary `json:"last_message" firestore:"lastMessage"`

	// Per-role unread counters. Never negative; reset to 0 only by the
	// owning role, incremented only by the other role's sends.
	AdminUnreadCount  int `json:"admin_unread_count" firestore:"adminUnreadCount"`
	SellerUnreadCount int `json:"seller_unread_count" firestore:"sellerUnreadCount"`
}

func (c *Conversation) UnreadFor(role Role) int {
	if role == RoleAdmin {
		return c.AdminUnreadCount
	}
	return c.SellerUnreadCount
}

// RoleOf maps a participant identity to its role in this conversation.
// Any identity that is not the seller is treated as an admin-pool member,
// since multiple admin sessions may write into the same conversation.
func (c *Conversation) RoleOf(userID string) Role {
	if userID == c.SellerID {
		return RoleSeller
	}
	return RoleAdmin
}
