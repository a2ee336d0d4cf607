package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"dm-relay/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-entropy"

func newTestService(issuer string) *Service {
	return NewService(config.JWTConfig{Secret: testSecret, Issuer: issuer, ExpiresIn: time.Hour})
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestService_VerifyRoundTrip(t *testing.T) {
	req := require.New(t)
	svc := newTestService("")

	token, err := svc.NewToken("alice", 0)
	req.NoError(err)

	userID, err := svc.Verify(token)
	req.NoError(err)
	req.Equal("alice", userID)
}

func TestService_VerifyRejects(t *testing.T) {
	svc := newTestService("relay")
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "empty token",
			token: "",
		},
		{
			name:  "garbage",
			token: "not-a-jwt",
		},
		{
			name: "wrong secret",
			token: sign(t, jwt.SigningMethodHS256, []byte("other-secret"), &Claims{
				UserID:           "alice",
				RegisteredClaims: jwt.RegisteredClaims{Issuer: "relay", ExpiresAt: future},
			}),
		},
		{
			name: "expired",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
				UserID:           "alice",
				RegisteredClaims: jwt.RegisteredClaims{Issuer: "relay", ExpiresAt: past},
			}),
		},
		{
			name: "no expiry",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
				UserID:           "alice",
				RegisteredClaims: jwt.RegisteredClaims{Issuer: "relay"},
			}),
		},
		{
			name: "wrong issuer",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
				UserID:           "alice",
				RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: future},
			}),
		},
		{
			name: "unsigned",
			token: sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &Claims{
				UserID:           "alice",
				RegisteredClaims: jwt.RegisteredClaims{Issuer: "relay", ExpiresAt: future},
			}),
		},
		{
			name: "no identity",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
				RegisteredClaims: jwt.RegisteredClaims{Issuer: "relay", ExpiresAt: future},
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			userID, err := svc.Verify(tt.token)
			req.Error(err)
			req.Empty(userID)
		})
	}
}

func TestService_VerifySubjectFallback(t *testing.T) {
	req := require.New(t)
	svc := newTestService("")

	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "bob",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})

	userID, err := svc.Verify(token)
	req.NoError(err)
	req.Equal("bob", userID)
}

func TestService_VerifyErrorKinds(t *testing.T) {
	req := require.New(t)
	svc := newTestService("")

	_, err := svc.Verify("")
	req.ErrorIs(err, ErrMissingToken)

	_, err = svc.Verify("not-a-jwt")
	req.ErrorIs(err, ErrInvalidToken)
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{"query parameter", "/ws?token=abc", "", "abc"},
		{"bearer header", "/ws", "Bearer xyz", "xyz"},
		{"lowercase scheme", "/ws", "bearer xyz", "xyz"},
		{"query wins", "/ws?token=abc", "Bearer xyz", "abc"},
		{"basic auth ignored", "/ws", "Basic Zm9vOmJhcg==", ""},
		{"nothing", "/ws", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			require.Equal(t, tt.want, TokenFromRequest(r))
		})
	}
}
