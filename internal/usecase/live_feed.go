package usecase

import (
	"context"
	"encoding/json"

	"storedesk/internal/domain/entity"
	"storedesk/pkg/logger"
)

// ServeConversationFeed pushes role-scoped conversation snapshots to one
// connected client until ctx is cancelled or the subscription fails. Each
// qualifying "modified" delta additionally triggers a notification_sound
// event, at most once per delta.
//
// The feed is per-user because snapshots are masked for the viewer.
func (uc *ChatUseCase) ServeConversationFeed(ctx context.Context, role entity.Role, userID string) error {
	sub, err := uc.convRepo.WatchConversations(ctx, role, userID)
	if err != nil {
		return err
	}
	defer sub.Cancel()

	for {
		select {
		case snap, ok := <-sub.Snapshots:
			if !ok {
				return nil
			}

			SortConversations(snap.Conversations)
			views := make([]*ConversationView, 0, len(snap.Conversations))
			for _, conv := range snap.Conversations {
				views = append(views, uc.viewConversation(ctx, conv, role))
			}
			uc.pushEvent(userID, map[string]interface{}{
				"type":          "conversation_snapshot",
				"conversations": views,
			})

			for _, change := range snap.Changes {
				if ShouldAlert(change, userID, role) {
					uc.pushEvent(userID, map[string]interface{}{
						"type":            "notification_sound",
						"conversation_id": change.Conversation.ID,
					})
				}
			}

		case err := <-sub.Err:
			logger.Error("Conversation feed for %s failed: %v", userID, err)
			uc.pushEvent(userID, map[string]interface{}{
				"type":    "stream_error",
				"scope":   "conversations",
				"message": "Conversation subscription lost",
			})
			return err

		case <-ctx.Done():
			return nil
		}
	}
}

// ServeMessageFeed pushes full ordered message-log snapshots for one open
// conversation to one client. Cancelling ctx (navigation away, unmount,
// connection drop) stops delivery and releases the listener.
func (uc *ChatUseCase) ServeMessageFeed(ctx context.Context, conversationID, userID string) error {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	role := conv.RoleOf(userID)

	sub, err := uc.convRepo.WatchMessages(ctx, conversationID)
	if err != nil {
		return err
	}
	defer sub.Cancel()

	for {
		select {
		case snap, ok := <-sub.Snapshots:
			if !ok {
				return nil
			}

			views := make([]*MessageView, 0, len(snap.Messages))
			for _, msg := range snap.Messages {
				views = append(views, uc.viewMessage(msg, conv, role))
			}
			uc.pushEvent(userID, map[string]interface{}{
				"type":            "message_snapshot",
				"conversation_id": conversationID,
				"messages":        views,
			})

		case err := <-sub.Err:
			logger.Error("Message feed for %s on %s failed: %v", userID, conversationID, err)
			uc.pushEvent(userID, map[string]interface{}{
				"type":            "stream_error",
				"scope":           "messages",
				"conversation_id": conversationID,
				"message":         "Message subscription lost",
			})
			return err

		case <-ctx.Done():
			return nil
		}
	}
}

func (uc *ChatUseCase) pushEvent(userID string, event map[string]interface{}) {
	if uc.wsManager == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal %v event: %v", event["type"], err)
		return
	}
	uc.wsManager.SendToUser(userID, payload)
}
