package firebase

import (
	"context"

	"storedesk/internal/domain/repository"
	"storedesk/internal/domain/service"
	"storedesk/pkg/logger"
)

// identityResolver resolves the effective sender identity: a verified
// Firebase session when the token checks out, otherwise the cached identity
// the hosting application configured, otherwise none.
type identityResolver struct {
	authClient *FirebaseAuthClient
	userRepo   repository.UserRepository

	cachedID   string
	cachedName string
}

func NewIdentityResolver(authClient *FirebaseAuthClient, userRepo repository.UserRepository, cachedID, cachedName string) service.IdentityResolver {
	return &identityResolver{
		authClient: authClient,
		userRepo:   userRepo,
		cachedID:   cachedID,
		cachedName: cachedName,
	}
}

func (r *identityResolver) Resolve(ctx context.Context, sessionToken string) service.ResolvedIdentity {
	if sessionToken != "" {
		uid, err := r.authClient.VerifyToken(ctx, sessionToken)
		if err == nil {
			name := uid
			if user, uerr := r.userRepo.GetByID(ctx, uid); uerr == nil {
				name = user.Username
			}
			return service.ResolvedIdentity{ID: uid, Name: name, Source: service.IdentityVerified}
		}
		logger.Debug("Session token rejected, falling back to cached identity: %v", err)
	}

	if r.cachedID != "" {
		return service.ResolvedIdentity{ID: r.cachedID, Name: r.cachedName, Source: service.IdentityCached}
	}

	return service.ResolvedIdentity{Source: service.IdentityNone}
}
