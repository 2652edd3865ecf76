package service

import "context"

// IdentitySource tags how an identity was established.
type IdentitySource int

const (
	// IdentityNone means no identity could be established at all.
	IdentityNone IdentitySource = iota
	// IdentityVerified comes from a live authenticated session.
	IdentityVerified
	// IdentityCached is a fallback identity supplied by the hosting
	// application when no live session exists. Usable for sends, but the
	// resulting records are marked as unverified.
	IdentityCached
)

type ResolvedIdentity struct {
	ID     string
	Name   string
	Source IdentitySource
}

func (id ResolvedIdentity) Established() bool {
	return id.Source != IdentityNone
}

// IdentityResolver resolves the effective sender identity for an operation:
// the verified session identity when one exists, otherwise the cached
// fallback, otherwise None.
type IdentityResolver interface {
	Resolve(ctx context.Context, sessionToken string) ResolvedIdentity
}
