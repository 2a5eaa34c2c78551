// Package passwd verifies menu passwords against the forms they may be
// stored in and generates new hashes.
//
// Supported forms:
//
//	secret                       plaintext
//	$4$salt$base64(sha1(salt+pw)) salted SHA-1
//	$2a$... $2b$... $2y$...       bcrypt
//
// Any other value starting with '$' is an unknown scheme and never matches.
package passwd

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Scheme identifies how a stored secret is encoded.
type Scheme int

const (
	SchemePlain Scheme = iota
	SchemeSHA1
	SchemeBcrypt
	SchemeUnknown
)

func (s Scheme) String() string {
	switch s {
	case SchemePlain:
		return "plain"
	case SchemeSHA1:
		return "sha1"
	case SchemeBcrypt:
		return "bcrypt"
	}
	return "unknown"
}

// ParseScheme maps a name used on command lines to a Scheme.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(name) {
	case "plain", "plaintext":
		return SchemePlain, nil
	case "sha1", "4":
		return SchemeSHA1, nil
	case "bcrypt", "2", "2a", "2b", "2y":
		return SchemeBcrypt, nil
	}
	return SchemeUnknown, fmt.Errorf("unknown password scheme %q", name)
}

// SchemeOf reports the scheme of a stored secret.
func SchemeOf(stored string) Scheme {
	switch {
	case !strings.HasPrefix(stored, "$"):
		return SchemePlain
	case strings.HasPrefix(stored, "$4$"):
		return SchemeSHA1
	case strings.HasPrefix(stored, "$2a$"), strings.HasPrefix(stored, "$2b$"), strings.HasPrefix(stored, "$2y$"):
		return SchemeBcrypt
	}
	return SchemeUnknown
}

// IsHashed reports whether stored is in any '$' form, known or not.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$")
}

// Verify reports whether candidate matches the stored secret. An empty
// candidate never matches.
func Verify(stored, candidate string) bool {
	if candidate == "" {
		return false
	}
	switch SchemeOf(stored) {
	case SchemePlain:
		return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
	case SchemeSHA1:
		return verifySHA1(stored[len("$4$"):], candidate)
	case SchemeBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
	}
	return false
}

// verifySHA1 checks "salt$digest" or a bare "digest" (empty salt). The salt
// ends at the first '$'. The digest is base64 of the 20-byte SHA-1; padding
// is optional.
func verifySHA1(rest, candidate string) bool {
	salt, encoded := "", rest
	if i := strings.IndexByte(rest, '$'); i >= 0 {
		salt, encoded = rest[:i], rest[i+1:]
	}
	want, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil || len(want) != sha1.Size {
		return false
	}
	got := sha1.Sum([]byte(salt + candidate))
	return subtle.ConstantTimeCompare(got[:], want) == 1
}

// HashSHA1 returns the "$4$" form of password with the given salt.
func HashSHA1(salt, password string) (string, error) {
	if strings.Contains(salt, "$") {
		return "", errors.New("salt must not contain '$'")
	}
	sum := sha1.Sum([]byte(salt + password))
	return "$4$" + salt + "$" + base64.StdEncoding.EncodeToString(sum[:]), nil
}

// NewSalt returns n random bytes encoded as base64 without padding, which
// never contains '$'.
func NewSalt(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}

// HashBcrypt returns the bcrypt form of password.
func HashBcrypt(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Hash encodes password in the given scheme, generating a fresh salt where
// one is needed.
func Hash(scheme Scheme, password string) (string, error) {
	switch scheme {
	case SchemePlain:
		if strings.HasPrefix(password, "$") {
			return "", errors.New("plaintext password must not start with '$'")
		}
		return password, nil
	case SchemeSHA1:
		salt, err := NewSalt(6)
		if err != nil {
			return "", err
		}
		return HashSHA1(salt, password)
	case SchemeBcrypt:
		return HashBcrypt(password, 0)
	}
	return "", fmt.Errorf("cannot hash with scheme %s", scheme)
}
