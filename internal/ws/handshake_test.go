package ws

import (
	"context"
	"errors"
	"testing"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/auth"
)

type fakeVerifier struct {
	identity *auth.PlatformIdentity
	err      error
}

func (v fakeVerifier) VerifyAccessToken(_ context.Context, _ string) (*auth.PlatformIdentity, error) {
	return v.identity, v.err
}

type fakeResolver struct {
	tenants map[string]int64
}

func (r fakeResolver) ResolveInternalTenantID(_ context.Context, externalTenantID string) (int64, error) {
	id, ok := r.tenants[externalTenantID]
	if !ok {
		return 0, errors.New("no such tenant")
	}
	return id, nil
}

func riTrackIdentity(externalTenantID string) *auth.PlatformIdentity {
	return &auth.PlatformIdentity{
		Subject: "user-1",
		Grants: []auth.TenantGrant{
			{ExternalTenantID: "other-app-tenant", Application: "riDispatch"},
			{ExternalTenantID: externalTenantID, Application: "riTrack"},
		},
	}
}

func newTestAuthenticator(verifier ClaimsVerifier, resolver TenantResolver) *Authenticator {
	return NewAuthenticator(verifier, resolver, "riTrack")
}

func TestAuthenticateBindsTenant(t *testing.T) {
	a := newTestAuthenticator(
		fakeVerifier{identity: riTrackIdentity("ext-7")},
		fakeResolver{tenants: map[string]int64{"ext-7": 7}},
	)
	client := NewClient(&fakeConn{})

	tenantID, err := a.Authenticate(context.Background(), client, "token")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if tenantID != 7 {
		t.Fatalf("tenant id = %d, want 7", tenantID)
	}
	if bound, ok := client.TenantID(); !ok || bound != 7 {
		t.Fatalf("client binding = (%d, %v)", bound, ok)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	a := newTestAuthenticator(fakeVerifier{}, fakeResolver{})
	client := NewClient(&fakeConn{})

	_, err := a.Authenticate(context.Background(), client, "   ")
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	a := newTestAuthenticator(fakeVerifier{err: errors.New("signature mismatch")}, fakeResolver{})
	client := NewClient(&fakeConn{})

	_, err := a.Authenticate(context.Background(), client, "token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, ok := client.TenantID(); ok {
		t.Fatalf("failed handshake bound a tenant")
	}
}

func TestAuthenticateWrongApplication(t *testing.T) {
	identity := &auth.PlatformIdentity{
		Subject: "user-1",
		Grants:  []auth.TenantGrant{{ExternalTenantID: "ext-7", Application: "riDispatch"}},
	}
	a := newTestAuthenticator(fakeVerifier{identity: identity}, fakeResolver{tenants: map[string]int64{"ext-7": 7}})
	client := NewClient(&fakeConn{})

	_, err := a.Authenticate(context.Background(), client, "token")
	if !errors.Is(err, ErrWrongApplication) {
		t.Fatalf("expected ErrWrongApplication, got %v", err)
	}
}

func TestAuthenticateUnknownTenant(t *testing.T) {
	a := newTestAuthenticator(fakeVerifier{identity: riTrackIdentity("ext-404")}, fakeResolver{tenants: map[string]int64{}})
	client := NewClient(&fakeConn{})

	_, err := a.Authenticate(context.Background(), client, "token")
	if !errors.Is(err, ErrUnknownTenant) {
		t.Fatalf("expected ErrUnknownTenant, got %v", err)
	}
}

// A second authenticate on a bound connection is rejected; the first binding
// stands and the connection is not rebound.
func TestAuthenticateSecondAttemptRejected(t *testing.T) {
	resolver := fakeResolver{tenants: map[string]int64{"ext-7": 7, "ext-9": 9}}
	client := NewClient(&fakeConn{})

	first := newTestAuthenticator(fakeVerifier{identity: riTrackIdentity("ext-7")}, resolver)
	if _, err := first.Authenticate(context.Background(), client, "token"); err != nil {
		t.Fatalf("first authenticate: %v", err)
	}

	second := newTestAuthenticator(fakeVerifier{identity: riTrackIdentity("ext-9")}, resolver)
	_, err := second.Authenticate(context.Background(), client, "token")
	if !errors.Is(err, ErrAlreadyAuthenticated) {
		t.Fatalf("expected ErrAlreadyAuthenticated, got %v", err)
	}
	if bound, _ := client.TenantID(); bound != 7 {
		t.Fatalf("rebind happened: tenant = %d", bound)
	}
}

// A bound connection is rejected the same way whether the repeat token is
// valid or garbage; a bad second token must never surface as a fatal
// verification failure.
func TestAuthenticateSecondAttemptBadTokenStillRejectedAsRepeat(t *testing.T) {
	resolver := fakeResolver{tenants: map[string]int64{"ext-7": 7}}
	client := NewClient(&fakeConn{})

	first := newTestAuthenticator(fakeVerifier{identity: riTrackIdentity("ext-7")}, resolver)
	if _, err := first.Authenticate(context.Background(), client, "token"); err != nil {
		t.Fatalf("first authenticate: %v", err)
	}

	second := newTestAuthenticator(fakeVerifier{err: errors.New("signature mismatch")}, resolver)
	_, err := second.Authenticate(context.Background(), client, "garbage")
	if !errors.Is(err, ErrAlreadyAuthenticated) {
		t.Fatalf("expected ErrAlreadyAuthenticated, got %v", err)
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Fatalf("repeat authenticate surfaced a token error: %v", err)
	}
	if bound, ok := client.TenantID(); !ok || bound != 7 {
		t.Fatalf("binding disturbed by repeat attempt: (%d, %v)", bound, ok)
	}
}
