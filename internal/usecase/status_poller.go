package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"storedesk/internal/domain/repository"
	ws "storedesk/internal/infrastructure/websocket"
	"storedesk/pkg/logger"
)

// StatusPoller re-checks connected users' account status on a fixed period,
// independent of the live subscriptions, and pushes a change event when the
// status moves. Slowly-changing state like suspension does not warrant a
// dedicated listener.
type StatusPoller struct {
	userRepo  repository.UserRepository
	wsManager *ws.Manager
	interval  time.Duration

	mu   sync.Mutex
	last map[string]string
}

func NewStatusPoller(userRepo repository.UserRepository, wsManager *ws.Manager, interval time.Duration) *StatusPoller {
	return &StatusPoller{
		userRepo:  userRepo,
		wsManager: wsManager,
		interval:  interval,
		last:      make(map[string]string),
	}
}

// Start runs the poll loop until ctx is cancelled.
func (p *StatusPoller) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.poll(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (p *StatusPoller) poll(ctx context.Context) {
	for _, userID := range p.wsManager.ConnectedUsers() {
		user, err := p.userRepo.GetByID(ctx, userID)
		if err != nil {
			logger.Debug("Status poll skipped %s: %v", userID, err)
			continue
		}

		p.mu.Lock()
		prev, seen := p.last[userID]
		p.last[userID] = user.Status
		p.mu.Unlock()

		if !seen || prev == user.Status {
			continue
		}

		payload, err := json.Marshal(map[string]string{
			"type":   "account_status",
			"status": user.Status,
		})
		if err != nil {
			continue
		}
		p.wsManager.SendToUser(userID, payload)
	}
}
