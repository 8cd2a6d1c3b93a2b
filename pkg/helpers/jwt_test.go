package helpers

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	tok, exp, err := m.GenerateAccessToken("user-1", "session-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(exp) < 55*time.Minute {
		t.Errorf("expiry too soon: %v", exp)
	}

	claims, err := m.ParseAccessToken(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.SessionID != "session-1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestJWTAccessAndRefreshSecretsAreSeparate(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	access, _, err := m.GenerateAccessToken("user-1", "session-1")
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}
	if _, err := m.ParseRefreshToken(access); err == nil {
		t.Error("access token verified against refresh secret")
	}

	refresh, _, err := m.GenerateRefreshToken("user-1", "session-1")
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}
	if _, err := m.ParseAccessToken(refresh); err == nil {
		t.Error("refresh token verified against access secret")
	}
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", -time.Minute, 24*time.Hour)

	tok, _, err := m.GenerateAccessToken("user-1", "session-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.ParseAccessToken(tok); err == nil {
		t.Error("expired token accepted")
	}
}

func TestJWTRejectsTampering(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	other := NewJWTManager("different-secret", "refresh-secret", time.Hour, 24*time.Hour)

	tok, _, err := other.GenerateAccessToken("user-1", "session-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.ParseAccessToken(tok); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}
