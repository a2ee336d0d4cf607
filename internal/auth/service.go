package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dm-relay/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carries the identity bound to a connection. Tokens from the account
// service put the user id in "userId"; "sub" is accepted as a fallback.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) identity() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

type Service struct {
	secret    []byte
	issuer    string
	expiresIn time.Duration
	parser    *jwt.Parser
}

func NewService(cfg config.JWTConfig) *Service {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Service{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		expiresIn: cfg.ExpiresIn,
		parser:    jwt.NewParser(opts...),
	}
}

// Verify checks the token signature and expiry and returns the user id it
// carries.
func (s *Service) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	userID := claims.identity()
	if userID == "" {
		return "", fmt.Errorf("%w: no user id in token", ErrInvalidToken)
	}
	return userID, nil
}

// NewToken signs a token for userID. A zero ttl uses the configured expiry.
func (s *Service) NewToken(userID string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = s.expiresIn
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// TokenFromRequest reads the handshake token from the "token" query
// parameter or a bearer Authorization header.
func TokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
