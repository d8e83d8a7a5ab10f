package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestIssuer(t *testing.T, secret string, clock func() time.Time) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte(secret),
		Issuer:        "kostkita-auth",
		Audience:      "kostkita-api",
		TokenTTL:      7 * 24 * time.Hour,
		Clock:         clock,
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return issuer
}

func TestTokenIssuerIssuesPrincipalClaims(t *testing.T) {
	issuer := newTestIssuer(t, "super-secret", nil)

	tokenString, expiresIn, err := issuer.IssueToken(context.Background(), Principal{
		UserID:   "user-123",
		Username: "admin",
		Role:     "admin",
	})
	if err != nil {
		t.Fatalf("expected successful issuance: %v", err)
	}
	if expiresIn != int64((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected expiry seconds %d", expiresIn)
	}

	claims := &Claims{}
	_, err = jwt.NewParser().ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("super-secret"), nil
	})
	if err != nil {
		t.Fatalf("failed to parse generated token: %v", err)
	}
	if claims.UserID != "user-123" || claims.Subject != "user-123" {
		t.Fatalf("unexpected subject claims %#v", claims)
	}
	if claims.Username != "admin" || claims.Role != "admin" {
		t.Fatalf("unexpected principal claims %#v", claims)
	}
	if len(claims.Audience) == 0 || claims.Audience[0] != "kostkita-api" {
		t.Fatalf("unexpected audience %#v", claims.Audience)
	}
}

func TestTokenIssuerValidatesIssuedTokens(t *testing.T) {
	issuer := newTestIssuer(t, "another-secret", nil)

	tokenString, _, err := issuer.IssueToken(context.Background(), Principal{UserID: "user-321", Username: "budi", Role: "admin"})
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	principal, err := issuer.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("expected validation success: %v", err)
	}
	if principal.UserID != "user-321" || principal.Username != "budi" {
		t.Fatalf("unexpected principal %#v", principal)
	}

	if _, err := issuer.ValidateToken("invalid.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}

	other := newTestIssuer(t, "different-secret", nil)
	if _, err := other.ValidateToken(tokenString); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature mismatch to be rejected, got %v", err)
	}
}

func TestTokenIssuerRejectsExpiredTokens(t *testing.T) {
	issuedAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	now := issuedAt
	issuer := newTestIssuer(t, "secret", func() time.Time { return now })

	tokenString, _, err := issuer.IssueToken(context.Background(), Principal{UserID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	now = issuedAt.Add(8 * 24 * time.Hour)
	if _, err := issuer.ValidateToken(tokenString); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestTokenIssuerRequiresPrincipal(t *testing.T) {
	issuer := newTestIssuer(t, "secret", nil)
	if _, _, err := issuer.IssueToken(context.Background(), Principal{}); !errors.Is(err, ErrMissingPrincipal) {
		t.Fatalf("expected missing principal error, got %v", err)
	}
}

func TestNewTokenIssuerValidatesConfig(t *testing.T) {
	cases := []struct {
		name   string
		config TokenIssuerConfig
		want   error
	}{
		{name: "missing secret", config: TokenIssuerConfig{Issuer: "a", Audience: "b", TokenTTL: time.Minute}, want: ErrMissingSigningSecret},
		{name: "missing issuer", config: TokenIssuerConfig{SigningSecret: []byte("s"), Audience: "b", TokenTTL: time.Minute}, want: ErrMissingIssuer},
		{name: "blank audience", config: TokenIssuerConfig{SigningSecret: []byte("s"), Issuer: "a", Audience: " ", TokenTTL: time.Minute}, want: ErrMissingAudience},
		{name: "zero ttl", config: TokenIssuerConfig{SigningSecret: []byte("s"), Issuer: "a", Audience: "b"}, want: ErrInvalidTTL},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := NewTokenIssuer(testCase.config); !errors.Is(err, testCase.want) {
				t.Fatalf("expected %v, got %v", testCase.want, err)
			}
		})
	}
}
