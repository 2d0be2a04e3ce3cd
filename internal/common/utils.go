package common

import "crypto/rand"

// GenerateRandByteArray returns size bytes from crypto/rand. It panics if
// the system randomness source fails, which is unrecoverable anyway.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray overwrites b with zeros. Used on password buffers once they
// have been hashed or verified. Nil-safe.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
