package ws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/auth"
)

// Handshake failures. All but ErrAlreadyAuthenticated are fatal for the
// connection: an unauthenticated peer is not trusted to hold any state.
var (
	ErrMissingToken         = errors.New("missing token")
	ErrInvalidToken         = errors.New("invalid token")
	ErrWrongApplication     = errors.New("token grants no access to this application")
	ErrUnknownTenant        = errors.New("unknown tenant")
	ErrAlreadyAuthenticated = errors.New("connection already authenticated")
)

type ClaimsVerifier interface {
	VerifyAccessToken(ctx context.Context, accessToken string) (*auth.PlatformIdentity, error)
}

type TenantResolver interface {
	ResolveInternalTenantID(ctx context.Context, externalTenantID string) (int64, error)
}

// Authenticator binds a tenant to a connection from an "authenticate" control
// message. Verification and tenant resolution are delegated; the authenticator
// owns only the grant selection and the at-most-once binding.
type Authenticator struct {
	verifier ClaimsVerifier
	resolver TenantResolver
	appName  string
}

func NewAuthenticator(verifier ClaimsVerifier, resolver TenantResolver, appName string) *Authenticator {
	return &Authenticator{verifier: verifier, resolver: resolver, appName: appName}
}

func (a *Authenticator) Authenticate(ctx context.Context, client *Client, token string) (int64, error) {
	// A bound connection is rejected up front; the outcome of a repeat
	// authenticate never depends on what the second token carries.
	if _, bound := client.TenantID(); bound {
		return 0, ErrAlreadyAuthenticated
	}
	if strings.TrimSpace(token) == "" {
		return 0, ErrMissingToken
	}

	identity, err := a.verifier.VerifyAccessToken(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	grant, ok := identity.GrantFor(a.appName)
	if !ok {
		return 0, ErrWrongApplication
	}

	tenantID, err := a.resolver.ResolveInternalTenantID(ctx, grant.ExternalTenantID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnknownTenant, err)
	}

	if err := client.bindTenant(tenantID); err != nil {
		return 0, ErrAlreadyAuthenticated
	}
	return tenantID, nil
}
