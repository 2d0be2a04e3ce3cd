package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/epicevents/crm/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL applies when Issue is called with a non-positive ttl.
const DefaultTokenTTL = 30 * time.Minute

// TokenCodec issues and validates HS256 access tokens whose subject is a
// user id.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// TokenOption configures a TokenCodec.
type TokenOption func(*TokenCodec)

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) { c.now = now }
}

// NewTokenCodec returns a codec signing with secret. An empty secret is a
// configuration error.
func NewTokenCodec(secret []byte, opts ...TokenOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token signing secret is not configured")
	}
	c := &TokenCodec{secret: append([]byte(nil), secret...), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for subjectID valid for ttl.
func (c *TokenCodec) Issue(subjectID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(subjectID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	return token.SignedString(c.secret)
}

// Validate checks signature and expiry and returns the subject id.
// Expired tokens yield common.ErrExpiredToken; anything else wrong yields
// common.ErrInvalidToken.
func (c *TokenCodec) Validate(tokenString string) (int64, error) {
	if tokenString == "" {
		return 0, common.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, common.ErrExpiredToken
		}
		return 0, common.ErrInvalidToken
	}
	if !token.Valid {
		return 0, common.ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrInvalidToken
	}
	return id, nil
}
