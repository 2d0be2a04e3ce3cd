package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/epicevents/crm/internal/common"
	"golang.org/x/crypto/argon2"
)

// Params are the argon2id cost settings embedded in every hash.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  int
	KeyLength   uint32
}

// DefaultParams match the argon2-cffi defaults.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher produces and checks PHC-formatted argon2id hashes:
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>
//
// with salt and key in unpadded standard base64.
type Hasher struct {
	params Params
}

// NewHasher returns a Hasher using p for new hashes. Verification always
// uses the parameters recorded in the hash itself.
func NewHasher(p Params) *Hasher {
	return &Hasher{params: p}
}

// Hash derives a salted argon2id hash of password. Any string is accepted,
// the empty one included; password policy is enforced by callers.
func (h *Hasher) Hash(password string) (string, error) {
	if h.params.SaltLength <= 0 || h.params.KeyLength == 0 || h.params.Iterations == 0 || h.params.Parallelism == 0 {
		return "", fmt.Errorf("invalid argon2 parameters: %+v", h.params)
	}

	salt := common.GenerateRandByteArray(h.params.SaltLength)
	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. Malformed, empty or
// foreign hashes yield false.
func (h *Hasher) Verify(encoded, password string) bool {
	p, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

// Upper bounds on the cost a stored hash may request.
const (
	maxMemory     = 1024 * 1024 // KiB, 1 GiB
	maxIterations = 64
)

func decodeHash(encoded string) (Params, []byte, []byte, error) {
	var p Params

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, fmt.Errorf("unexpected hash layout")
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("unsupported algorithm %q", parts[1])
	}

	v, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return p, nil, nil, fmt.Errorf("missing argon2 version")
	}
	version, err := strconv.Atoi(v)
	if err != nil {
		return p, nil, nil, fmt.Errorf("malformed argon2 version: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if err := parseParams(parts[3], &p); err != nil {
		return p, nil, nil, err
	}
	if p.Memory == 0 || p.Memory > maxMemory || p.Iterations == 0 || p.Iterations > maxIterations || p.Parallelism == 0 {
		return p, nil, nil, fmt.Errorf("argon2 parameters out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, fmt.Errorf("bad salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, fmt.Errorf("bad key")
	}
	p.SaltLength = len(salt)
	p.KeyLength = uint32(len(key))

	return p, salt, key, nil
}

// parseParams reads exactly "m=<n>,t=<n>,p=<n>" into p.
func parseParams(segment string, p *Params) error {
	fields := strings.Split(segment, ",")
	if len(fields) != 3 {
		return fmt.Errorf("malformed argon2 parameters %q", segment)
	}
	for i, key := range []string{"m", "t", "p"} {
		name, value, ok := strings.Cut(fields[i], "=")
		if !ok || name != key {
			return fmt.Errorf("malformed argon2 parameters %q", segment)
		}
		bits := 32
		if key == "p" {
			bits = 8
		}
		n, err := strconv.ParseUint(value, 10, bits)
		if err != nil {
			return fmt.Errorf("malformed argon2 parameter %s: %w", key, err)
		}
		switch key {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Iterations = uint32(n)
		case "p":
			p.Parallelism = uint8(n)
		}
	}
	return nil
}
