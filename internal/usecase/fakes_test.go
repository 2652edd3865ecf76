package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"storedesk/internal/domain/entity"
	"storedesk/internal/domain/repository"
	"storedesk/internal/domain/service"
	"storedesk/pkg/errors"
)

type fakeUserRepo struct {
	users map[string]*entity.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, errors.NotFound("User", nil)
}

func (f *fakeUserRepo) ListAdmins(ctx context.Context) ([]*entity.User, error) {
	var admins []*entity.User
	for _, user := range f.users {
		if user.Role == string(entity.RoleAdmin) {
			admins = append(admins, user)
		}
	}
	sort.Slice(admins, func(i, j int) bool {
		return admins[i].CreatedAt.Before(admins[j].CreatedAt)
	})
	return admins, nil
}

// fakeConvRepo is an in-memory ConversationRepository. Message order follows
// the store contract: ascending (timestamp, seq).
type fakeConvRepo struct {
	mu     sync.Mutex
	seq    int64
	nextID int

	convs map[string]*entity.Conversation
	msgs  map[string][]*entity.Message

	convFeed    chan entity.ConversationSnapshot
	convFeedErr chan error
	msgFeed     chan entity.MessageSnapshot
	msgFeedErr  chan error
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{
		convs: make(map[string]*entity.Conversation),
		msgs:  make(map[string][]*entity.Message),
	}
}

func (f *fakeConvRepo) Create(ctx context.Context, conv *entity.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	conv.ID = fmt.Sprintf("conv-%d", f.nextID)
	clone := *conv
	f.convs[conv.ID] = &clone
	return nil
}

func (f *fakeConvRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv, ok := f.convs[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	clone := *conv
	return &clone, nil
}

func (f *fakeConvRepo) GetBySellerAndAdmin(ctx context.Context, sellerID, adminID string) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, conv := range f.convs {
		if conv.SellerID == sellerID && conv.AdminID == adminID {
			clone := *conv
			return &clone, nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (f *fakeConvRepo) ListForRole(ctx context.Context, role entity.Role, userID string) ([]*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*entity.Conversation
	for _, conv := range f.convs {
		if role == entity.RoleAdmin || conv.SellerID == userID {
			clone := *conv
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeConvRepo) WatchConversations(ctx context.Context, role entity.Role, userID string) (*repository.ConversationSubscription, error) {
	snaps := make(chan entity.ConversationSnapshot, 8)
	errc := make(chan error, 1)

	f.mu.Lock()
	f.convFeed = snaps
	f.convFeedErr = errc
	f.mu.Unlock()

	var once sync.Once
	cancel := func() { once.Do(func() { close(snaps) }) }
	return repository.NewConversationSubscription(snaps, errc, cancel), nil
}

func (f *fakeConvRepo) Summarize(ctx context.Context, conversationID string, summary entity.MessageSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv, ok := f.convs[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	conv.LastMessage = summary
	conv.LastMessageTime = summary.Timestamp
	return nil
}

func (f *fakeConvRepo) IncrementUnread(ctx context.Context, conversationID string, role entity.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv, ok := f.convs[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	if role == entity.RoleAdmin {
		conv.AdminUnreadCount++
	} else {
		conv.SellerUnreadCount++
	}
	return nil
}

func (f *fakeConvRepo) MarkRead(ctx context.Context, conversationID string, role entity.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv, ok := f.convs[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	if role == entity.RoleAdmin {
		conv.AdminUnreadCount = 0
	} else {
		conv.SellerUnreadCount = 0
	}
	return nil
}

func (f *fakeConvRepo) CreateMessage(ctx context.Context, msg *entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.seq++
	msg.ID = fmt.Sprintf("msg-%d", f.nextID)
	msg.Seq = f.seq
	clone := *msg
	f.msgs[msg.ConversationID] = append(f.msgs[msg.ConversationID], &clone)
	return nil
}

func (f *fakeConvRepo) GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, msg := range f.msgs[conversationID] {
		if msg.ID == messageID {
			clone := *msg
			return &clone, nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (f *fakeConvRepo) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msgs := make([]*entity.Message, 0, len(f.msgs[conversationID]))
	for _, msg := range f.msgs[conversationID] {
		clone := *msg
		msgs = append(msgs, &clone)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		}
		return msgs[i].Seq < msgs[j].Seq
	})
	return msgs, nil
}

func (f *fakeConvRepo) WatchMessages(ctx context.Context, conversationID string) (*repository.MessageSubscription, error) {
	snaps := make(chan entity.MessageSnapshot, 8)
	errc := make(chan error, 1)

	f.mu.Lock()
	f.msgFeed = snaps
	f.msgFeedErr = errc
	f.mu.Unlock()

	var once sync.Once
	cancel := func() { once.Do(func() { close(snaps) }) }
	return repository.NewMessageSubscription(snaps, errc, cancel), nil
}

func (f *fakeConvRepo) DeleteMessage(ctx context.Context, conversationID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	msgs := f.msgs[conversationID]
	for i, msg := range msgs {
		if msg.ID == messageID {
			f.msgs[conversationID] = append(msgs[:i:i], msgs[i+1:]...)
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (f *fakeConvRepo) ResetWithSentinel(ctx context.Context, conv *entity.Conversation, deleteMessageIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doomed := make(map[string]bool, len(deleteMessageIDs))
	for _, id := range deleteMessageIDs {
		doomed[id] = true
	}

	var kept []*entity.Message
	for _, msg := range f.msgs[conv.ID] {
		if !doomed[msg.ID] {
			kept = append(kept, msg)
		}
	}
	f.msgs[conv.ID] = kept

	clone := *conv
	f.convs[conv.ID] = &clone
	return nil
}

func (f *fakeConvRepo) PurgeConversation(ctx context.Context, conversationID string, messageIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.convs, conversationID)
	delete(f.msgs, conversationID)
	return nil
}

type stubResolver struct {
	identity service.ResolvedIdentity
}

func (s *stubResolver) Resolve(ctx context.Context, sessionToken string) service.ResolvedIdentity {
	return s.identity
}
