package locket

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Token layout.
//
//	version (1) | timestamp (8, big-endian seconds) | iv (16) | ciphertext (n*16) | hmac-sha256 (32)
const (
	// Version is the marker in the first byte of every token.
	Version byte = 0x80

	timestampSize = 8
	ivSize        = aes.BlockSize
	signatureSize = sha256.Size

	headerSize = 1 + timestampSize + ivSize

	// Overhead is the fixed size of a token excluding ciphertext.
	Overhead = headerSize + signatureSize
)

// tokenEncoding is unpadded base64url. Strict mode rejects non-zero trailing
// bits so every token string maps to exactly one byte sequence.
var tokenEncoding = base64.RawURLEncoding.Strict()

// TokenCodec encodes plaintext into authenticated, timestamped tokens and back.
// A TokenCodec holds no keys and no locks; it is safe for concurrent use
// provided its random source is.
type TokenCodec struct {
	rand io.Reader
}

// CodecOption configures a TokenCodec.
type CodecOption func(*TokenCodec)

// WithRandSource sets the source IVs are drawn from. Defaults to crypto/rand.
func WithRandSource(r io.Reader) CodecOption {
	return func(c *TokenCodec) {
		c.rand = r
	}
}

// NewTokenCodec returns a TokenCodec.
func NewTokenCodec(opts ...CodecOption) *TokenCodec {
	c := &TokenCodec{rand: rand.Reader}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode encrypts plaintext under key and returns the token text.
// The token records now as its creation time.
// It fails only if the random source fails.
func (c *TokenCodec) Encode(plaintext []byte, key Key, now time.Time) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}
	return tokenEncoding.EncodeToString(seal(plaintext, key, now, iv)), nil
}

// Decode verifies token under key and returns its plaintext.
//
// A ttl of zero disables the age check; otherwise tokens created more than
// ttl before now are rejected with ErrTokenExpired. The signature is checked
// before the age and before any decryption.
func (c *TokenCodec) Decode(token string, key Key, ttl time.Duration, now time.Time) ([]byte, error) {
	data, err := verify(token, key)
	if err != nil {
		return nil, err
	}

	if ttl > 0 {
		created := time.Unix(int64(binary.BigEndian.Uint64(data[1:1+timestampSize])), 0) // #nosec G115 -- authenticated timestamp
		if created.Add(ttl).Before(now) {
			return nil, ErrTokenExpired
		}
	}

	return open(data, key)
}

// Timestamp returns the verified creation time of token.
func (c *TokenCodec) Timestamp(token string, key Key) (time.Time, error) {
	data, err := verify(token, key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(binary.BigEndian.Uint64(data[1:1+timestampSize])), 0), nil // #nosec G115 -- authenticated timestamp
}

// seal builds the raw token bytes for a fixed iv.
func seal(plaintext []byte, key Key, now time.Time, iv []byte) []byte {
	padded := pad(plaintext)
	out := make([]byte, headerSize+len(padded), headerSize+len(padded)+signatureSize)

	out[0] = Version
	binary.BigEndian.PutUint64(out[1:1+timestampSize], uint64(now.Unix())) // #nosec G115 -- pre-epoch clocks are not supported
	copy(out[1+timestampSize:headerSize], iv)

	block, err := aes.NewCipher(key.EncryptionKey())
	if err != nil {
		// EncryptionKey is always SubKeySize bytes.
		panic(err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[headerSize:], padded)

	mac := hmac.New(sha256.New, key.SigningKey())
	mac.Write(out)
	return mac.Sum(out)
}

// verify decodes token text, checks its structure and authenticates it.
// The returned slice excludes the signature.
func verify(token string, key Key) ([]byte, error) {
	raw, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	if len(raw) == 0 || raw[0] != Version {
		return nil, ErrTokenMalformed
	}
	if len(raw) < Overhead+aes.BlockSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTokenMalformed, len(raw))
	}

	data, sig := raw[:len(raw)-signatureSize], raw[len(raw)-signatureSize:]
	if (len(data)-headerSize)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: partial cipher block", ErrTokenMalformed)
	}

	mac := hmac.New(sha256.New, key.SigningKey())
	mac.Write(data)
	if !hmac.Equal(mac.Sum(nil), sig) {
		return nil, ErrTokenInvalid
	}

	return data, nil
}

// open decrypts authenticated token bytes.
func open(data []byte, key Key) ([]byte, error) {
	block, err := aes.NewCipher(key.EncryptionKey())
	if err != nil {
		panic(err)
	}

	iv := data[1+timestampSize : headerSize]
	plaintext := make([]byte, len(data)-headerSize)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, data[headerSize:])

	return unpad(plaintext)
}

// pad applies PKCS#7 padding to a whole number of AES blocks.
func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad strips PKCS#7 padding.
func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrTokenInvalid
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, ErrTokenInvalid
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, ErrTokenInvalid
		}
	}
	return b[:len(b)-n], nil
}
