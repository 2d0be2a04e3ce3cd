package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the suite fast; verification reads them from the hash
var testParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHasher_HashVerifyRoundTrip(t *testing.T) {
	h := NewHasher(testParams)

	for _, pw := range []string{"s3cretpass", "päss wörd 1", strings.Repeat("x", 200) + "9"} {
		encoded, err := h.Hash(pw)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"), encoded)
		assert.True(t, h.Verify(encoded, pw), "password %q must verify", pw)
	}
}

func TestHasher_SaltedHashesDiffer(t *testing.T) {
	h := NewHasher(testParams)

	a, err := h.Hash("same-password1")
	require.NoError(t, err)
	b, err := h.Hash("same-password1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify(a, "same-password1"))
	assert.True(t, h.Verify(b, "same-password1"))
}

func TestHasher_WrongPasswordRejected(t *testing.T) {
	h := NewHasher(testParams)

	encoded, err := h.Hash("correct-horse1")
	require.NoError(t, err)

	assert.False(t, h.Verify(encoded, "correct-horse2"))
	assert.False(t, h.Verify(encoded, ""))
}

func TestHasher_VerifyUsesParamsFromHash(t *testing.T) {
	writer := NewHasher(Params{Memory: 2048, Iterations: 2, Parallelism: 2, SaltLength: 8, KeyLength: 16})
	encoded, err := writer.Hash("rotated-params1")
	require.NoError(t, err)

	reader := NewHasher(testParams)
	assert.True(t, reader.Verify(encoded, "rotated-params1"))
}

func TestHasher_MalformedHashesNeverVerify(t *testing.T) {
	h := NewHasher(testParams)
	valid, err := h.Hash("password1")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"bcrypt", "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"},
		{"argon2i", strings.Replace(valid, "$argon2id$", "$argon2i$", 1)},
		{"wrong version", strings.Replace(valid, "v=19", "v=16", 1)},
		{"trailing garbage in version", strings.Replace(valid, "v=19", "v=19x", 1)},
		{"missing key", strings.Join(parts[:5], "$")},
		{"bad salt encoding", strings.Join([]string{"", parts[1], parts[2], parts[3], "!!!", parts[5]}, "$")},
		{"bad key encoding", strings.Join([]string{"", parts[1], parts[2], parts[3], parts[4], "***"}, "$")},
		{"zero iterations", strings.Replace(valid, "t=1", "t=0", 1)},
		{"absurd memory", strings.Replace(valid, "m=1024", "m=4000000000", 1)},
		{"non numeric params", strings.Replace(valid, "m=1024", "m=lots", 1)},
		{"trailing garbage in params", strings.Replace(valid, "p=1$", "p=1garbage$", 1)},
		{"extra param", strings.Replace(valid, "p=1$", "p=1,x=2$", 1)},
		{"params out of order", strings.Replace(valid, "m=1024,t=1", "t=1,m=1024", 1)},
		{"signed param", strings.Replace(valid, "t=1", "t=+1", 1)},
		{"absurd iterations", strings.Replace(valid, "t=1", "t=4294967295", 1)},
		{"parallelism overflow", strings.Replace(valid, "p=1$", "p=256$", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify(tt.encoded, "password1"))
			})
		})
	}
}

func TestHasher_EmptyPassword(t *testing.T) {
	h := NewHasher(testParams)

	encoded, err := h.Hash("")
	require.NoError(t, err)
	assert.True(t, h.Verify(encoded, ""))
	assert.False(t, h.Verify(encoded, "x"))
}

func TestHasher_InvalidParams(t *testing.T) {
	_, err := NewHasher(Params{}).Hash("password1")
	assert.Error(t, err)
}
