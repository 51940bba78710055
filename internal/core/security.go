// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength       = 16
	refreshTokenSize = 32
)

var errMalformedHash = errors.New("malformed password hash")

// argonParams are the argon2id cost settings encoded into every stored hash.
type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

var currentArgon = argonParams{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	keyLen:  32,
}

func (p argonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
}

func (p argonParams) encode(salt, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.time,
		p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// storedHash is a parsed "$argon2id$v=..$m=..,t=..,p=..$salt$key" string.
type storedHash struct {
	params argonParams
	salt   []byte
	key    []byte
}

func parseHash(encoded string) (*storedHash, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[1] != "argon2id" {
		return nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("%w: version: %w", errMalformedHash, err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: argon2 version %d", errMalformedHash, version)
	}

	h := &storedHash{}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d",
		&h.params.memory, &h.params.time, &h.params.threads); err != nil {
		return nil, fmt.Errorf("%w: params: %w", errMalformedHash, err)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return nil, fmt.Errorf("%w: salt: %w", errMalformedHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return nil, fmt.Errorf("%w: key: %w", errMalformedHash, err)
	}

	//nolint:gosec // G115: argon2id keys are 32 bytes
	h.params.keyLen = uint32(len(h.key))

	return h, nil
}

func (h *storedHash) matches(password string) bool {
	return subtle.ConstantTimeCompare(h.key, h.params.derive(password, h.salt)) == 1
}

func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return currentArgon.encode(salt, currentArgon.derive(password, salt)), nil
}

// PasswordCheck is the outcome of CheckPassword. Upgraded holds a fresh hash
// when the stored one used older cost settings.
type PasswordCheck struct {
	OK       bool
	Upgraded string
}

// placeholderHash is verified against when the account does not exist so
// both paths cost the same.
var placeholderHash = func() *storedHash {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		panic(fmt.Sprintf("security: generate placeholder salt: %v", err))
	}
	return &storedHash{
		params: currentArgon,
		salt:   salt,
		key:    currentArgon.derive("shelflife-placeholder", salt),
	}
}()

// CheckPassword verifies password against encoded. An empty encoded hash
// runs the same work against a placeholder and never succeeds.
func CheckPassword(password, encoded string) (PasswordCheck, error) {
	if encoded == "" {
		placeholderHash.matches(password)
		return PasswordCheck{}, nil
	}

	h, err := parseHash(encoded)
	if err != nil {
		return PasswordCheck{}, err
	}

	if !h.matches(password) {
		return PasswordCheck{}, nil
	}

	check := PasswordCheck{OK: true}
	if h.params != currentArgon {
		if upgraded, hashErr := HashPassword(password); hashErr == nil {
			check.Upgraded = upgraded
		}
	}

	return check, nil
}

// NewToken returns n random bytes, URL-safe base64 encoded.
func NewToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

func NewRefreshToken() (string, error) {
	return NewToken(refreshTokenSize)
}

// HashToken is the storage key for refresh and reset tokens. Only the hex
// sha256 ever reaches postgres or redis.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
