package locket

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Key sizes.
const (
	// SubKeySize is the length of each half of a Key.
	SubKeySize = 16

	// KeySize is the total length of key material: signing sub-key followed
	// by encryption sub-key.
	KeySize = 2 * SubKeySize
)

// Key is symmetric key material for the token codec.
// The first half signs tokens (HMAC-SHA256), the second half encrypts them (AES-128-CBC).
type Key [KeySize]byte

// ParseKey validates raw key material and returns it as a Key.
// Material must be exactly KeySize bytes.
func ParseKey(material []byte) (Key, error) {
	var k Key
	if len(material) != KeySize {
		return k, fmt.Errorf("%w: must be %d bytes, got %d", ErrKeyInvalid, KeySize, len(material))
	}
	copy(k[:], material)
	return k, nil
}

// DecodeKey parses key material from its text form.
// Accepted encodings are base64url (padded or not) and hex.
func DecodeKey(s string) (Key, error) {
	s = strings.TrimSpace(s)

	if len(s) == 2*KeySize {
		if raw, err := hex.DecodeString(s); err == nil {
			return ParseKey(raw)
		}
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return Key{}, fmt.Errorf("%w: not base64url or hex", ErrKeyInvalid)
	}
	return ParseKey(raw)
}

// GenerateKey draws fresh key material from r.
// A nil reader uses crypto/rand.
func GenerateKey(r io.Reader) (Key, error) {
	if r == nil {
		r = rand.Reader
	}
	var k Key
	if _, err := io.ReadFull(r, k[:]); err != nil {
		return k, fmt.Errorf("failed to generate key: %w", err)
	}
	return k, nil
}

// SigningKey returns the HMAC sub-key.
func (k Key) SigningKey() []byte {
	return k[:SubKeySize]
}

// EncryptionKey returns the AES sub-key.
func (k Key) EncryptionKey() []byte {
	return k[SubKeySize:]
}

// Encode returns the padded base64url form of the key, suitable for configuration.
func (k Key) Encode() string {
	return base64.URLEncoding.EncodeToString(k[:])
}

// Fingerprint identifies a key in logs and events without revealing it.
// The result is the hex-encoded first 8 bytes of an unkeyed BLAKE2b-256 digest.
func (k Key) Fingerprint() string {
	sum := blake2b.Sum256(k[:])
	return hex.EncodeToString(sum[:8])
}

// String never prints key material.
func (k Key) String() string {
	return "locket.Key(" + k.Fingerprint() + ")"
}
