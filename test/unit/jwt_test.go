package unit

import (
	"testing"
	"time"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/auth"
)

func TestJWTMintAndParse(t *testing.T) {
	m := auth.NewJWTManager("issuer", "aud", "secret")
	tok, err := m.Mint("u1", auth.RoleOperator, 7, 5*time.Minute)
	if err != nil {
		t.Fatalf("mint error: %v", err)
	}

	claims, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != auth.RoleOperator || claims.TenantID != 7 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTParseRejectsWrongIssuer(t *testing.T) {
	minter := auth.NewJWTManager("other-issuer", "aud", "secret")
	tok, err := minter.Mint("u1", auth.RoleAdmin, 1, 5*time.Minute)
	if err != nil {
		t.Fatalf("mint error: %v", err)
	}

	m := auth.NewJWTManager("issuer", "aud", "secret")
	if _, err := m.Parse(tok); err == nil {
		t.Fatalf("expected issuer rejection")
	}
}

func TestJWTParseRejectsExpired(t *testing.T) {
	m := auth.NewJWTManager("issuer", "aud", "secret")
	tok, err := m.Mint("u1", auth.RoleAdmin, 1, -time.Minute)
	if err != nil {
		t.Fatalf("mint error: %v", err)
	}
	if _, err := m.Parse(tok); err == nil {
		t.Fatalf("expected expiry rejection")
	}
}

func TestPlatformIdentityGrantSelection(t *testing.T) {
	identity := &auth.PlatformIdentity{
		Subject: "user-1",
		Grants: []auth.TenantGrant{
			{ExternalTenantID: "ext-1", Application: "riDispatch"},
			{ExternalTenantID: "ext-2", Application: "riTrack"},
		},
	}

	grant, ok := identity.GrantFor("riTrack")
	if !ok || grant.ExternalTenantID != "ext-2" {
		t.Fatalf("unexpected grant: %+v ok=%v", grant, ok)
	}

	if _, ok := identity.GrantFor("riPay"); ok {
		t.Fatalf("grant for unknown application should not match")
	}
}
