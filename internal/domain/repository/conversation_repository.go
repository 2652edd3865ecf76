package repository

import (
	"context"

	"storedesk/internal/domain/entity"
)

// ConversationSubscription is a cancellable live feed of role-scoped
// conversation snapshots. Snapshots closes after Cancel or a stream error;
// a stream error is delivered on Err and terminates the feed — the caller
// decides whether to resubscribe.
type ConversationSubscription struct {
	Snapshots <-chan entity.ConversationSnapshot
	Err       <-chan error
	cancel    func()
}

func NewConversationSubscription(snapshots <-chan entity.ConversationSnapshot, errc <-chan error, cancel func()) *ConversationSubscription {
	return &ConversationSubscription{Snapshots: snapshots, Err: errc, cancel: cancel}
}

// Cancel stops delivery and releases the underlying listener. Safe to call
// more than once.
func (s *ConversationSubscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// MessageSubscription is a cancellable live feed of full ordered message-log
// snapshots for one conversation.
type MessageSubscription struct {
	Snapshots <-chan entity.MessageSnapshot
	Err       <-chan error
	cancel    func()
}

func NewMessageSubscription(snapshots <-chan entity.MessageSnapshot, errc <-chan error, cancel func()) *MessageSubscription {
	return &MessageSubscription{Snapshots: snapshots, Err: errc, cancel: cancel}
}

func (s *MessageSubscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// ConversationRepository is the store surface for conversations and their
// message logs.
//
// Consistency contract: single-document writes and the explicit batch
// operations (ResetWithSentinel, PurgeConversation) are atomic; sequences
// that span documents (append message, then update summary, then bump a
// counter) are only eventually consistent with each other. A subscriber may
// transiently observe a new message before the conversation summary reflects
// it, or vice versa. That window is accepted by design.
type ConversationRepository interface {
	Create(ctx context.Context, conv *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	GetBySellerAndAdmin(ctx context.Context, sellerID, adminID string) (*entity.Conversation, error)

	// ListForRole returns every conversation for an admin, and only the
	// seller's own conversations for a seller.
	ListForRole(ctx context.Context, role entity.Role, userID string) ([]*entity.Conversation, error)
	WatchConversations(ctx context.Context, role entity.Role, userID string) (*ConversationSubscription, error)

	// Summarize persists the denormalized lastMessage/lastMessageTime pair.
	Summarize(ctx context.Context, conversationID string, summary entity.MessageSummary) error

	// IncrementUnread atomically adds 1 to the named role's counter with a
	// store-level transform, never a read-modify-write of cached state.
	IncrementUnread(ctx context.Context, conversationID string, role entity.Role) error
	// MarkRead sets the role's counter to 0. Idempotent.
	MarkRead(ctx context.Context, conversationID string, role entity.Role) error

	CreateMessage(ctx context.Context, msg *entity.Message) error
	GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error)
	// ListMessages returns the full log ascending by (timestamp, seq).
	ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error)
	WatchMessages(ctx context.Context, conversationID string) (*MessageSubscription, error)
	DeleteMessage(ctx context.Context, conversationID, messageID string) error

	// ResetWithSentinel deletes the given messages and overwrites the
	// conversation document in one all-or-nothing commit.
	ResetWithSentinel(ctx context.Context, conv *entity.Conversation, deleteMessageIDs []string) error

	// PurgeConversation deletes the conversation document together with the
	// given messages in one all-or-nothing commit.
	PurgeConversation(ctx context.Context, conversationID string, messageIDs []string) error
}
