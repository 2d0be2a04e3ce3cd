package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/epicevents/crm/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCodec(t *testing.T, clock *fakeClock) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec([]byte("super-secret"), WithClock(clock.Now))
	require.NoError(t, err)
	return c
}

func TestNewTokenCodec_EmptySecret(t *testing.T) {
	_, err := NewTokenCodec(nil)
	assert.Error(t, err)
}

func TestIssueAndValidate_Success(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	tok, err := c.Issue(42, 30*time.Minute)
	require.NoError(t, err)

	id, err := c.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestValidate_ExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	tok, err := c.Issue(7, 30*time.Minute)
	require.NoError(t, err)

	clock.Advance(29 * time.Minute)
	_, err = c.Validate(tok)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = c.Validate(tok)
	assert.ErrorIs(t, err, common.ErrExpiredToken)
}

func TestIssue_DefaultTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	tok, err := c.Issue(7, 0)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	assert.True(t, clock.t.Add(DefaultTokenTTL).Equal(claims.ExpiresAt.Time), "exp = %v", claims.ExpiresAt.Time)
	assert.Equal(t, "7", claims.Subject)
}

func TestValidate_FlippedSignatureBit(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clock)

	tok, err := c.Issue(1, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	sig[0] ^= 0x01
	parts[2] = base64.RawURLEncoding.EncodeToString(sig)

	_, err = c.Validate(strings.Join(parts, "."))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidate_TamperedPayload(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clock)

	tok, err := c.Issue(1, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"2","exp":4102444800}`))
	_, err = c.Validate(parts[0] + "." + forged + "." + parts[2])
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidate_WrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	other, err := NewTokenCodec([]byte("other-secret"), WithClock(clock.Now))
	require.NoError(t, err)
	tok, err := other.Issue(1, time.Hour)
	require.NoError(t, err)

	_, err = newTestCodec(t, clock).Validate(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidate_AlgNoneRejected(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestCodec(t, clock).Validate(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidate_MissingExpiryOrSubject(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	secret := []byte("super-secret")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString(secret)
	require.NoError(t, err)
	badSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)

	c := newTestCodec(t, clock)
	for _, tok := range []string{noExp, badSub} {
		_, err := c.Validate(tok)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	}
}

func TestValidate_Malformed(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now()})

	for _, tok := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		_, err := c.Validate(tok)
		assert.ErrorIs(t, err, common.ErrInvalidToken, "token %q", tok)
	}
}
