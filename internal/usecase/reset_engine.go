package usecase

import (
	"context"
	"encoding/json"
	"time"

	"storedesk/internal/domain/entity"
	"storedesk/pkg/logger"
)

// ResetResult reports how a clear-conversation completed. When the sentinel
// was missing, the original conversation is gone and Conversation points at
// the freshly recreated one (a different id).
type ResetResult struct {
	Conversation *entity.Conversation `json:"conversation"`
	Recreated    bool                 `json:"recreated"`
}

// ResetConversation clears a conversation back to its sentinel greeting.
// Any participant may clear: the paired seller or a support-pool admin.
//
// The message log is enumerated once (a point-in-time snapshot) and the
// outcome commits as a single batch, so a send racing the reset either lands
// before the snapshot and is deleted with the rest, or lands after and
// survives. Either way the result holds exactly one sentinel and no orphaned
// lastMessage pointer: reset wins the race.
func (uc *ChatUseCase) ResetConversation(ctx context.Context, conversationID, callerID string) (*ResetResult, error) {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.participantRole(ctx, conv, callerID); err != nil {
		return nil, err
	}

	msgs, err := uc.convRepo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	sentinel, doomed := uc.splitSentinel(conv, msgs)

	if sentinel == nil {
		// The "conversation always has a greeting" invariant was already
		// broken. Drop the shell entirely, then recreate through the
		// normal flow so the sentinel is re-established.
		ids := messageIDs(doomed)
		if err := uc.convRepo.PurgeConversation(ctx, conversationID, ids); err != nil {
			return nil, err
		}
		logger.Warn("Conversation %s had no sentinel; purged and recreating for seller %s", conversationID, conv.SellerID)

		fresh, err := uc.GetOrCreateConversation(ctx, conv.SellerID)
		if err != nil {
			return nil, err
		}

		uc.notifyReset(fresh, true)
		return &ResetResult{Conversation: fresh, Recreated: true}, nil
	}

	now := time.Now()
	reset := &entity.Conversation{
		ID:              conv.ID,
		SellerID:        conv.SellerID,
		AdminID:         conv.AdminID,
		CreatedAt:       now,
		LastMessageTime: now,
		LastMessage: entity.MessageSummary{
			Text:      sentinel.Text,
			ImageURL:  sentinel.ImageURL,
			SenderID:  sentinel.SenderID,
			Timestamp: now,
		},
		// The seller is told their conversation was cleared.
		SellerUnreadCount: 1,
		AdminUnreadCount:  0,
	}

	if err := uc.convRepo.ResetWithSentinel(ctx, reset, messageIDs(doomed)); err != nil {
		return nil, err
	}

	logger.Info("Reset conversation %s, deleted %d messages", conv.ID, len(doomed))
	uc.notifyReset(reset, false)
	return &ResetResult{Conversation: reset, Recreated: false}, nil
}

// splitSentinel finds the sentinel greeting in an ordered log. A sentinel
// matches the canned greeting text, the admin identity the conversation was
// created with, and the masked admin label. If several match, the first
// encountered is the sentinel and the rest are deleted as ordinary messages.
func (uc *ChatUseCase) splitSentinel(conv *entity.Conversation, msgs []*entity.Message) (*entity.Message, []*entity.Message) {
	var sentinel *entity.Message
	var doomed []*entity.Message

	for _, msg := range msgs {
		if sentinel == nil && uc.isSentinel(conv, msg) {
			sentinel = msg
			continue
		}
		doomed = append(doomed, msg)
	}

	return sentinel, doomed
}

func (uc *ChatUseCase) isSentinel(conv *entity.Conversation, msg *entity.Message) bool {
	return msg.Text == uc.greeting &&
		msg.SenderID == conv.AdminID &&
		uc.masking.DisplayName(true, msg.SenderName) == uc.masking.Label()
}

func messageIDs(msgs []*entity.Message) []string {
	ids := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		ids = append(ids, msg.ID)
	}
	return ids
}

// notifyReset tells both parties their working set changed, so an open
// selection of the cleared conversation can be dropped client-side.
func (uc *ChatUseCase) notifyReset(conv *entity.Conversation, recreated bool) {
	if uc.wsManager == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":            "conversation_reset",
		"conversation_id": conv.ID,
		"recreated":       recreated,
	})
	if err != nil {
		return
	}

	uc.wsManager.SendToUser(conv.SellerID, payload)
	uc.wsManager.SendToUser(conv.AdminID, payload)
}
