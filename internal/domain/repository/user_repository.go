package repository

import (
	"context"

	"storedesk/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// ListAdmins returns the support pool ordered by creation time, so the
	// first member is the deterministic pairing choice.
	ListAdmins(ctx context.Context) ([]*entity.User, error)
}
