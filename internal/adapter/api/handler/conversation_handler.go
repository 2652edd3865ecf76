package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storedesk/internal/adapter/api/middleware"
	"storedesk/internal/domain/entity"
	"storedesk/internal/domain/repository"
	"storedesk/internal/usecase"
	"storedesk/pkg/response"
)

type ConversationHandler struct {
	chatUseCase *usecase.ChatUseCase
	userRepo    repository.UserRepository
}

func NewConversationHandler(chatUseCase *usecase.ChatUseCase, userRepo repository.UserRepository) *ConversationHandler {
	return &ConversationHandler{
		chatUseCase: chatUseCase,
		userRepo:    userRepo,
	}
}

type sendMessageRequest struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// viewerRole maps the authenticated uid to a conversation role. Anyone not
// carrying the admin role is treated as a seller.
func (h *ConversationHandler) viewerRole(c echo.Context, userID string) entity.Role {
	user, err := h.userRepo.GetByID(c.Request().Context(), userID)
	if err == nil && user.Role == string(entity.RoleAdmin) {
		return entity.RoleAdmin
	}
	return entity.RoleSeller
}

// GetConversations returns the caller's working set: every conversation for
// admins, only their own for sellers.
func (h *ConversationHandler) GetConversations(c echo.Context) error {
	userID := c.Get("uid").(string)
	role := h.viewerRole(c, userID)

	conversations, err := h.chatUseCase.ListConversations(c.Request().Context(), role, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

// OpenConversation resolves the seller's support conversation, creating it
// with its greeting on first contact.
func (h *ConversationHandler) OpenConversation(c echo.Context) error {
	userID := c.Get("uid").(string)

	conversation, err := h.chatUseCase.GetOrCreateConversation(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, conversation)
}

// GetMessages returns the full ordered message log for one conversation,
// masked for the viewer. Participants only.
func (h *ConversationHandler) GetMessages(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	messages, err := h.chatUseCase.FetchMessages(c.Request().Context(), conversationID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

// SendMessage appends a message. The raw bearer token is forwarded to the
// identity resolver rather than enforced up front, so the cached-identity
// fallback still works when the session has expired.
func (h *ConversationHandler) SendMessage(c echo.Context) error {
	conversationID := c.Param("id")

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), usecase.SendMessageInput{
		ConversationID: conversationID,
		Text:           req.Text,
		ImageURL:       req.ImageURL,
		SessionToken:   middleware.BearerToken(c),
	})

	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// MarkAsRead zeroes the caller's unread counter for the conversation.
// Participants only.
func (h *ConversationHandler) MarkAsRead(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.MarkRead(c.Request().Context(), conversationID, userID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// DeleteMessage removes one message and repairs the conversation summary.
func (h *ConversationHandler) DeleteMessage(c echo.Context) error {
	conversationID := c.Param("id")
	messageID := c.Param("messageId")

	if err := h.chatUseCase.DeleteMessage(c.Request().Context(), conversationID, messageID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// ResetConversation clears the conversation back to its greeting. Any
// participant may clear their conversation, seller included.
func (h *ConversationHandler) ResetConversation(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	result, err := h.chatUseCase.ResetConversation(c.Request().Context(), conversationID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}
