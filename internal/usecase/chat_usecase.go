package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"storedesk/internal/domain/entity"
	"storedesk/internal/domain/repository"
	"storedesk/internal/domain/service"
	ws "storedesk/internal/infrastructure/websocket"
	"storedesk/pkg/errors"
	"storedesk/pkg/logger"
)

// ChatUseCase is the conversation and message synchronization engine.
//
// Consistency note: append-message, update-summary and bump-counter are
// separate document writes. Subscribers may transiently see a new message
// before the conversation summary reflects it, or the other way around.
// Only the reset path commits as a single batch.
type ChatUseCase struct {
	convRepo  repository.ConversationRepository
	userRepo  repository.UserRepository
	masking   service.MaskingPolicy
	resolver  service.IdentityResolver
	wsManager *ws.Manager

	// Fixed sentinel content: every conversation starts with this greeting
	// authored under the masked admin identity.
	greeting string
}

func NewChatUseCase(
	convRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	masking service.MaskingPolicy,
	resolver service.IdentityResolver,
	wsManager *ws.Manager,
	greeting string,
) *ChatUseCase {
	return &ChatUseCase{
		convRepo:  convRepo,
		userRepo:  userRepo,
		masking:   masking,
		resolver:  resolver,
		wsManager: wsManager,
		greeting:  greeting,
	}
}

type SendMessageInput struct {
	ConversationID string
	Text           string
	ImageURL       string
	SessionToken   string
}

type ConversationView struct {
	*entity.Conversation
	CounterpartName string `json:"counterpart_name"`
	UnreadCount     int    `json:"unread_count"`
}

type MessageView struct {
	*entity.Message
	DisplayName string `json:"display_name"`
}

// GetOrCreateConversation resolves the seller's support conversation,
// creating it (with its sentinel greeting) on first contact. Safe to call
// repeatedly: the (seller, admin) pairing is looked up before any create.
func (uc *ChatUseCase) GetOrCreateConversation(ctx context.Context, sellerID string) (*entity.Conversation, error) {
	admins, err := uc.userRepo.ListAdmins(ctx)
	if err != nil {
		logger.Error("GetOrCreateConversation: failed to list support pool: %v", err)
		return nil, err
	}
	if len(admins) == 0 {
		return nil, errors.NoAdminAvailable(nil)
	}
	adminID := admins[0].ID

	existing, err := uc.convRepo.GetBySellerAndAdmin(ctx, sellerID, adminID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		logger.Error("GetOrCreateConversation: pairing lookup failed for seller %s: %v", sellerID, err)
		return nil, err
	}

	now := time.Now()
	sentinel := &entity.Message{
		SenderID:   adminID,
		SenderName: uc.masking.Label(),
		Text:       uc.greeting,
		Timestamp:  now,
	}

	conv := &entity.Conversation{
		SellerID:        sellerID,
		AdminID:         adminID,
		CreatedAt:       now,
		LastMessageTime: now,
		LastMessage:     sentinel.Summary(),
		// The greeting counts as unread for the seller until they open
		// the conversation.
		SellerUnreadCount: 1,
		AdminUnreadCount:  0,
	}

	if err := uc.convRepo.Create(ctx, conv); err != nil {
		logger.Error("GetOrCreateConversation: failed to create conversation for seller %s: %v", sellerID, err)
		return nil, err
	}

	sentinel.ConversationID = conv.ID
	if err := uc.convRepo.CreateMessage(ctx, sentinel); err != nil {
		logger.Error("GetOrCreateConversation: failed to create sentinel for conversation %s: %v", conv.ID, err)
		return nil, err
	}

	logger.Info("Created support conversation %s for seller %s", conv.ID, sellerID)
	return conv, nil
}

// ListConversations returns the role-scoped working set sorted by most
// recent activity; conversations that never had a message time sort last.
func (uc *ChatUseCase) ListConversations(ctx context.Context, role entity.Role, userID string) ([]*ConversationView, error) {
	convs, err := uc.convRepo.ListForRole(ctx, role, userID)
	if err != nil {
		return nil, err
	}

	SortConversations(convs)

	views := make([]*ConversationView, 0, len(convs))
	for _, conv := range convs {
		views = append(views, uc.viewConversation(ctx, conv, role))
	}
	return views, nil
}

// SortConversations orders by lastMessageTime descending, zero times last.
func SortConversations(convs []*entity.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		ti, tj := convs[i].LastMessageTime, convs[j].LastMessageTime
		if ti.IsZero() {
			return false
		}
		if tj.IsZero() {
			return true
		}
		return ti.After(tj)
	})
}

func (uc *ChatUseCase) viewConversation(ctx context.Context, conv *entity.Conversation, viewer entity.Role) *ConversationView {
	view := &ConversationView{
		Conversation: conv,
		UnreadCount:  conv.UnreadFor(viewer),
	}

	switch viewer {
	case entity.RoleSeller:
		view.CounterpartName = uc.masking.Label()
	case entity.RoleAdmin:
		if seller, err := uc.userRepo.GetByID(ctx, conv.SellerID); err == nil {
			view.CounterpartName = seller.Username
		} else {
			logger.Warn("Seller %s not found for conversation %s: %v", conv.SellerID, conv.ID, err)
			view.CounterpartName = conv.SellerID
		}
	}

	return view
}

func (uc *ChatUseCase) viewMessage(msg *entity.Message, conv *entity.Conversation, viewer entity.Role) *MessageView {
	senderIsAdmin := msg.SenderID != conv.SellerID

	display := msg.SenderName
	if viewer == entity.RoleSeller {
		display = uc.masking.DisplayName(senderIsAdmin, msg.SenderName)
	}

	return &MessageView{Message: msg, DisplayName: display}
}

// SendMessage appends to the conversation's log, refreshes the denormalized
// summary and bumps the counterpart's unread counter. A send with neither
// text nor image is rejected before any store call.
func (uc *ChatUseCase) SendMessage(ctx context.Context, input SendMessageInput) (*entity.Message, error) {
	text := strings.TrimSpace(input.Text)
	imageURL := strings.TrimSpace(input.ImageURL)
	if text == "" && imageURL == "" {
		return nil, errors.InvalidSend()
	}

	identity := uc.resolver.Resolve(ctx, input.SessionToken)
	if !identity.Established() {
		return nil, errors.Unauthorized("No session and no cached identity available", nil)
	}
	if identity.Source == service.IdentityCached {
		logger.Warn("Send into conversation %s using cached identity %s", input.ConversationID, identity.ID)
	}

	conv, err := uc.convRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}

	senderRole, err := uc.participantRole(ctx, conv, identity.ID)
	if err != nil {
		return nil, err
	}

	msg := &entity.Message{
		ConversationID: conv.ID,
		Text:           text,
		ImageURL:       imageURL,
		SenderID:       identity.ID,
		SenderName:     identity.Name,
		Timestamp:      time.Now(),
		CachedIdentity: identity.Source == service.IdentityCached,
	}

	if err := uc.convRepo.CreateMessage(ctx, msg); err != nil {
		logger.Error("SendMessage: failed to append to conversation %s: %v", conv.ID, err)
		return nil, err
	}

	if err := uc.convRepo.Summarize(ctx, conv.ID, msg.Summary()); err != nil {
		logger.Error("SendMessage: failed to update summary for conversation %s: %v", conv.ID, err)
		return nil, err
	}

	if err := uc.convRepo.IncrementUnread(ctx, conv.ID, senderRole.Counterpart()); err != nil {
		logger.Error("SendMessage: failed to increment unread for conversation %s: %v", conv.ID, err)
		return nil, err
	}

	return msg, nil
}

// participantRole maps a sender to their role in the conversation, rejecting
// identities that are neither the paired seller nor a support-pool admin.
func (uc *ChatUseCase) participantRole(ctx context.Context, conv *entity.Conversation, userID string) (entity.Role, error) {
	if userID == conv.SellerID {
		return entity.RoleSeller, nil
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil || user.Role != string(entity.RoleAdmin) {
		return "", errors.Forbidden("User is not a participant in this conversation", err)
	}
	return entity.RoleAdmin, nil
}

// MarkRead zeroes the caller's own unread counter. Idempotent. Only a
// participant may touch the counter: the counter's owning role is derived
// from the caller, never supplied by the client.
func (uc *ChatUseCase) MarkRead(ctx context.Context, conversationID, userID string) error {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	role, err := uc.participantRole(ctx, conv, userID)
	if err != nil {
		return err
	}

	return uc.convRepo.MarkRead(ctx, conversationID, role)
}

// FetchMessages is the point-in-time read used for manual refresh; same
// ordering contract as the live subscription. The viewer must be a
// participant, and masking follows their role.
func (uc *ChatUseCase) FetchMessages(ctx context.Context, conversationID, viewerID string) ([]*MessageView, error) {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	viewer, err := uc.participantRole(ctx, conv, viewerID)
	if err != nil {
		return nil, err
	}

	msgs, err := uc.convRepo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	views := make([]*MessageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, uc.viewMessage(msg, conv, viewer))
	}
	return views, nil
}

// DeleteMessage removes one message and re-derives the conversation summary
// from the new tail of the log, so lastMessage never points at a deleted
// message.
func (uc *ChatUseCase) DeleteMessage(ctx context.Context, conversationID, messageID string) error {
	if _, err := uc.convRepo.GetByID(ctx, conversationID); err != nil {
		return err
	}
	if _, err := uc.convRepo.GetMessageByID(ctx, conversationID, messageID); err != nil {
		return err
	}

	if err := uc.convRepo.DeleteMessage(ctx, conversationID, messageID); err != nil {
		return err
	}

	remaining, err := uc.convRepo.ListMessages(ctx, conversationID)
	if err != nil {
		return errors.PartialBatchFailure("Message deleted but summary repair failed", err)
	}

	var summary entity.MessageSummary
	if len(remaining) > 0 {
		summary = remaining[len(remaining)-1].Summary()
	}

	if err := uc.convRepo.Summarize(ctx, conversationID, summary); err != nil {
		return errors.PartialBatchFailure("Message deleted but summary repair failed", err)
	}

	return nil
}
