package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"storedesk/internal/domain/entity"
	"storedesk/internal/domain/repository"
	"storedesk/pkg/errors"
	"storedesk/pkg/logger"
)

// seqCounter breaks ordering ties between messages created within the same
// clock tick. Seeded from the wall clock so it stays monotonic across
// process restarts.
var seqCounter atomic.Int64

func init() {
	seqCounter.Store(time.Now().UnixNano())
}

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) conversations() *firestore.CollectionRef {
	return r.client.Collection("conversations")
}

func (r *firestoreConversationRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.conversations().Doc(conversationID).Collection("messages")
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conv *entity.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}

	_, err := r.conversations().Doc(conv.ID).Set(ctx, conv)
	if err != nil {
		return errors.Internal("Failed to create conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.conversations().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conv, nil
}

func (r *firestoreConversationRepository) GetBySellerAndAdmin(ctx context.Context, sellerID, adminID string) (*entity.Conversation, error) {
	query := r.conversations().
		Where("sellerId", "==", sellerID).
		Where("adminId", "==", adminID).
		Limit(1)

	iter := query.Documents(ctx)
	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Conversation", nil)
		}
		return nil, errors.Internal("Failed to query conversation pairing", err)
	}

	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conv, nil
}

func (r *firestoreConversationRepository) roleQuery(role entity.Role, userID string) firestore.Query {
	// Admins see the whole system; sellers only their own pairing. The
	// store returns the set unordered, callers sort by lastMessageTime.
	if role == entity.RoleAdmin {
		return r.conversations().Query
	}
	return r.conversations().Where("sellerId", "==", userID)
}

func (r *firestoreConversationRepository) ListForRole(ctx context.Context, role entity.Role, userID string) ([]*entity.Conversation, error) {
	docs, err := r.roleQuery(role, userID).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing conversations for %s %s: %v", role, userID, err)
		return nil, errors.Internal("Failed to list conversations", err)
	}

	var convs []*entity.Conversation
	for _, doc := range docs {
		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			logger.Warn("Skipping malformed conversation %s: %v", doc.Ref.ID, err)
			continue
		}
		convs = append(convs, &conv)
	}

	return convs, nil
}

func (r *firestoreConversationRepository) WatchConversations(ctx context.Context, role entity.Role, userID string) (*repository.ConversationSubscription, error) {
	watchCtx, cancel := context.WithCancel(ctx)

	snapshots := make(chan entity.ConversationSnapshot)
	errc := make(chan error, 1)

	it := r.roleQuery(role, userID).Snapshots(watchCtx)

	go func() {
		defer close(snapshots)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if watchCtx.Err() == nil {
					errc <- errors.Internal("Conversation subscription failed", err)
				}
				return
			}

			snap, err := conversationSnapshotFrom(qs)
			if err != nil {
				errc <- err
				return
			}

			select {
			case snapshots <- snap:
			case <-watchCtx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return repository.NewConversationSubscription(snapshots, errc, func() {
		once.Do(cancel)
	}), nil
}

func conversationSnapshotFrom(qs *firestore.QuerySnapshot) (entity.ConversationSnapshot, error) {
	var snap entity.ConversationSnapshot

	docs, err := qs.Documents.GetAll()
	if err != nil {
		return snap, errors.Internal("Failed to read conversation snapshot", err)
	}

	for _, doc := range docs {
		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			logger.Warn("Skipping malformed conversation %s in snapshot: %v", doc.Ref.ID, err)
			continue
		}
		snap.Conversations = append(snap.Conversations, &conv)
	}

	for _, change := range qs.Changes {
		var conv entity.Conversation
		if err := change.Doc.DataTo(&conv); err != nil {
			continue
		}
		snap.Changes = append(snap.Changes, entity.ConversationChange{
			Kind:         changeKind(change.Kind),
			Conversation: &conv,
		})
	}

	return snap, nil
}

func changeKind(kind firestore.DocumentChangeKind) entity.ChangeKind {
	switch kind {
	case firestore.DocumentAdded:
		return entity.ChangeAdded
	case firestore.DocumentRemoved:
		return entity.ChangeRemoved
	default:
		return entity.ChangeModified
	}
}

func (r *firestoreConversationRepository) Summarize(ctx context.Context, conversationID string, summary entity.MessageSummary) error {
	_, err := r.conversations().Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: summary},
		{Path: "lastMessageTime", Value: summary.Timestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to update conversation summary", err)
	}
	return nil
}

func unreadField(role entity.Role) string {
	if role == entity.RoleAdmin {
		return "adminUnreadCount"
	}
	return "sellerUnreadCount"
}

func (r *firestoreConversationRepository) IncrementUnread(ctx context.Context, conversationID string, role entity.Role) error {
	// A store-level transform, so concurrent senders never lose increments
	// to a stale read-modify-write.
	_, err := r.conversations().Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: unreadField(role), Value: firestore.Increment(1)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to increment unread counter", err)
	}
	return nil
}

func (r *firestoreConversationRepository) MarkRead(ctx context.Context, conversationID string, role entity.Role) error {
	_, err := r.conversations().Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: unreadField(role), Value: 0},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to reset unread counter", err)
	}
	return nil
}

func (r *firestoreConversationRepository) CreateMessage(ctx context.Context, msg *entity.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if msg.Seq == 0 {
		msg.Seq = seqCounter.Add(1)
	}

	_, err := r.messages(msg.ConversationID).Doc(msg.ID).Set(ctx, msg)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	doc, err := r.messages(conversationID).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var msg entity.Message
	if err := doc.DataTo(&msg); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &msg, nil
}

func (r *firestoreConversationRepository) orderedMessages(conversationID string) firestore.Query {
	return r.messages(conversationID).
		OrderBy("timestamp", firestore.Asc).
		OrderBy("seq", firestore.Asc)
}

func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	iter := r.orderedMessages(conversationID).Documents(ctx)

	var msgs []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for conversation %s: %v", conversationID, err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var msg entity.Message
		if err := doc.DataTo(&msg); err != nil {
			logger.Error("Error parsing message data for conversation %s: %v", conversationID, err)
			return nil, errors.Internal("Failed to parse message data", err)
		}

		msgs = append(msgs, &msg)
	}

	return msgs, nil
}

func (r *firestoreConversationRepository) WatchMessages(ctx context.Context, conversationID string) (*repository.MessageSubscription, error) {
	watchCtx, cancel := context.WithCancel(ctx)

	snapshots := make(chan entity.MessageSnapshot)
	errc := make(chan error, 1)

	it := r.orderedMessages(conversationID).Snapshots(watchCtx)

	go func() {
		defer close(snapshots)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if watchCtx.Err() == nil {
					errc <- errors.Internal("Message subscription failed", err)
				}
				return
			}

			snap, err := messageSnapshotFrom(qs)
			if err != nil {
				errc <- err
				return
			}

			select {
			case snapshots <- snap:
			case <-watchCtx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return repository.NewMessageSubscription(snapshots, errc, func() {
		once.Do(cancel)
	}), nil
}

func messageSnapshotFrom(qs *firestore.QuerySnapshot) (entity.MessageSnapshot, error) {
	var snap entity.MessageSnapshot

	docs, err := qs.Documents.GetAll()
	if err != nil {
		return snap, errors.Internal("Failed to read message snapshot", err)
	}

	for _, doc := range docs {
		var msg entity.Message
		if err := doc.DataTo(&msg); err != nil {
			logger.Warn("Skipping malformed message %s in snapshot: %v", doc.Ref.ID, err)
			continue
		}
		snap.Messages = append(snap.Messages, &msg)
	}

	for _, change := range qs.Changes {
		var msg entity.Message
		if err := change.Doc.DataTo(&msg); err != nil {
			continue
		}
		snap.Changes = append(snap.Changes, entity.MessageChange{
			Kind:    changeKind(change.Kind),
			Message: &msg,
		})
	}

	return snap, nil
}

func (r *firestoreConversationRepository) DeleteMessage(ctx context.Context, conversationID, messageID string) error {
	_, err := r.messages(conversationID).Doc(messageID).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete message", err)
	}
	return nil
}

func (r *firestoreConversationRepository) ResetWithSentinel(ctx context.Context, conv *entity.Conversation, deleteMessageIDs []string) error {
	convRef := r.conversations().Doc(conv.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Set(convRef, conv); err != nil {
			return err
		}
		for _, id := range deleteMessageIDs {
			if err := tx.Delete(r.messages(conv.ID).Doc(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.PartialBatchFailure("Conversation reset did not commit", err)
	}

	return nil
}

func (r *firestoreConversationRepository) PurgeConversation(ctx context.Context, conversationID string, messageIDs []string) error {
	convRef := r.conversations().Doc(conversationID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, id := range messageIDs {
			if err := tx.Delete(r.messages(conversationID).Doc(id)); err != nil {
				return err
			}
		}
		return tx.Delete(convRef)
	})
	if err != nil {
		return errors.PartialBatchFailure("Conversation purge did not commit", err)
	}

	return nil
}
