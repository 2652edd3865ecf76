package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"storedesk/internal/adapter/api/middleware"
	"storedesk/internal/domain/entity"
	"storedesk/internal/domain/repository"
	"storedesk/internal/infrastructure/ratelimit"
	ws "storedesk/internal/infrastructure/websocket"
	"storedesk/internal/usecase"
	"storedesk/pkg/errors"
	"storedesk/pkg/logger"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	userRepo       repository.UserRepository
	chatUseCase    *usecase.ChatUseCase
	frameLimiter   *ratelimit.RateLimiter
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // You should restrict this in production
	},
}

func NewWebSocketHandler(
	wsManager *ws.Manager,
	authMiddleware *middleware.AuthMiddleware,
	userRepo repository.UserRepository,
	chatUseCase *usecase.ChatUseCase,
) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		userRepo:       userRepo,
		chatUseCase:    chatUseCase,
		frameLimiter:   ratelimit.NewRateLimiter(30, 30, time.Minute),
	}
}

type clientFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

// messageFeeds tracks the per-conversation feed cancel funcs of one
// connection, so unwatch and disconnect release the underlying listeners.
type messageFeeds struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newMessageFeeds() *messageFeeds {
	return &messageFeeds{cancels: make(map[string]context.CancelFunc)}
}

func (f *messageFeeds) add(conversationID string, cancel context.CancelFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, ok := f.cancels[conversationID]; ok {
		prev()
	}
	f.cancels[conversationID] = cancel
}

func (f *messageFeeds) drop(conversationID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cancel, ok := f.cancels[conversationID]; ok {
		cancel()
		delete(f.cancels, conversationID)
	}
}

func (f *messageFeeds) dropAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, cancel := range f.cancels {
		cancel()
		delete(f.cancels, id)
	}
}

// HandleWebSocket authenticates via the token query parameter, upgrades the
// connection and starts the caller's conversation feed. Message feeds are
// opened and closed through watch_messages / unwatch_messages frames.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	role := entity.RoleSeller
	if user, err := h.userRepo.GetByID(c.Request().Context(), userID); err == nil && user.Role == string(entity.RoleAdmin) {
		role = entity.RoleAdmin
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		UserID: userID,
		Role:   role,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.wsManager.Register <- client

	// Connection-scoped context: cancelling it tears down the conversation
	// feed and every open message feed.
	ctx, cancel := context.WithCancel(context.Background())
	feeds := newMessageFeeds()

	go func() {
		if err := h.chatUseCase.ServeConversationFeed(ctx, role, userID); err != nil {
			logger.Debug("Conversation feed ended for %s: %v", userID, err)
		}
	}()

	go client.WritePump()
	go func() {
		client.ReadPump(h.wsManager, func(payload []byte) {
			h.handleFrame(ctx, client, feeds, payload)
		})
		cancel()
		feeds.dropAll()
		h.frameLimiter.Forget(userID)
	}()

	return nil
}

func (h *WebSocketHandler) handleFrame(ctx context.Context, client *ws.Client, feeds *messageFeeds, payload []byte) {
	if allowed, wait := h.frameLimiter.Allow(client.UserID); !allowed {
		logger.Warn("Throttling websocket frames from %s (next token in %v)", client.UserID, wait)
		return
	}

	var frame clientFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		logger.Debug("Discarding malformed frame from %s: %v", client.UserID, err)
		return
	}

	switch frame.Type {
	case "watch_messages":
		if frame.ConversationID == "" {
			return
		}
		feedCtx, feedCancel := context.WithCancel(ctx)
		feeds.add(frame.ConversationID, feedCancel)
		go func() {
			if err := h.chatUseCase.ServeMessageFeed(feedCtx, frame.ConversationID, client.UserID); err != nil {
				logger.Debug("Message feed ended for %s on %s: %v", client.UserID, frame.ConversationID, err)
			}
			feedCancel()
		}()

	case "unwatch_messages":
		feeds.drop(frame.ConversationID)

	case "mark_read":
		if frame.ConversationID == "" {
			return
		}
		if err := h.chatUseCase.MarkRead(ctx, frame.ConversationID, client.UserID); err != nil {
			logger.Error("mark_read failed for %s on %s: %v", client.UserID, frame.ConversationID, err)
		}

	default:
		logger.Debug("Unknown frame type %q from %s", frame.Type, client.UserID)
	}
}
