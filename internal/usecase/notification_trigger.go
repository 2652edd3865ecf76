package usecase

import "storedesk/internal/domain/entity"

// ShouldAlert decides whether one conversation delta warrants a local sound
// for the observing user: only "modified" deltas count, the last message
// must come from the other party, and the observer's unread counter must
// have something in it. Pure classification, no persisted state.
func ShouldAlert(change entity.ConversationChange, observerID string, role entity.Role) bool {
	if change.Kind != entity.ChangeModified {
		return false
	}

	conv := change.Conversation
	if conv == nil {
		return false
	}
	if conv.LastMessage.SenderID == "" || conv.LastMessage.SenderID == observerID {
		return false
	}

	return conv.UnreadFor(role) > 0
}
