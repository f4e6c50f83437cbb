package creatorgateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errInvalidSession = errors.New("invalid session token")

// SessionClaims binds a session to a profile and its wallet.
type SessionClaims struct {
	Wallet string `json:"wallet"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies HS256 session tokens.
type Sessions struct {
	secret []byte
	issuer string
	ttl    time.Duration
	nowFn  func() time.Time
}

func NewSessions(cfg SessionConfig) *Sessions {
	return &Sessions{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: cfg.TTL, nowFn: time.Now}
}

// Issue signs a token for profile.
func (s *Sessions) Issue(profile *Profile) (string, time.Time, error) {
	now := s.nowFn().UTC()
	expires := now.Add(s.ttl)
	claims := SessionClaims{
		Wallet: profile.WalletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

// Verify parses token and returns the profile id it was issued for.
func (s *Sessions) Verify(token string) (uuid.UUID, *SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.nowFn),
	)
	if err != nil || !parsed.Valid {
		return uuid.Nil, nil, errInvalidSession
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, nil, errInvalidSession
	}
	return id, claims, nil
}
