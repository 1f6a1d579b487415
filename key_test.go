package locket

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func TestParseKey(t *testing.T) {
	material := bytes.Repeat([]byte{7}, KeySize)
	k, err := ParseKey(material)
	if err != nil {
		t.Fatalf("ParseKey() error: %v", err)
	}
	if !bytes.Equal(k[:], material) {
		t.Error("ParseKey() should copy material verbatim")
	}

	material[0] = 8
	if k[0] != 7 {
		t.Error("Key should not alias the caller's material")
	}
}

func TestParseKey_InvalidLength(t *testing.T) {
	for _, n := range []int{0, 16, 28, 31, 33, 64} {
		_, err := ParseKey(make([]byte, n))
		if !errors.Is(err, ErrKeyInvalid) {
			t.Errorf("ParseKey(%d bytes) error = %v, want ErrKeyInvalid", n, err)
		}
	}
}

func TestKey_SubKeys(t *testing.T) {
	var k Key
	for i := range k {
		k[i] = byte(i)
	}

	if !bytes.Equal(k.SigningKey(), k[:16]) {
		t.Errorf("SigningKey() = %x, want first half", k.SigningKey())
	}
	if !bytes.Equal(k.EncryptionKey(), k[16:]) {
		t.Errorf("EncryptionKey() = %x, want second half", k.EncryptionKey())
	}
}

func TestDecodeKey(t *testing.T) {
	k, _ := GenerateKey(nil)

	inputs := map[string]string{
		"base64url padded":   base64.URLEncoding.EncodeToString(k[:]),
		"base64url unpadded": base64.RawURLEncoding.EncodeToString(k[:]),
		"hex upper":          strings.ToUpper(hex.EncodeToString(k[:])),
		"hex with newline":   hex.EncodeToString(k[:]) + "\n",
		"Encode output":      k.Encode(),
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeKey(in)
			if err != nil {
				t.Fatalf("DecodeKey() error: %v", err)
			}
			if got != k {
				t.Error("DecodeKey() returned a different key")
			}
		})
	}
}

func TestDecodeKey_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"not a key",
		base64.RawURLEncoding.EncodeToString(make([]byte, 28)),
		hex.EncodeToString(make([]byte, 31)),
	}

	for _, in := range inputs {
		if _, err := DecodeKey(in); !errors.Is(err, ErrKeyInvalid) {
			t.Errorf("DecodeKey(%q) error = %v, want ErrKeyInvalid", in, err)
		}
	}
}

func TestGenerateKey(t *testing.T) {
	k1, err := GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	k2, _ := GenerateKey(nil)
	if k1 == k2 {
		t.Error("GenerateKey() should return distinct keys")
	}

	fixed, err := GenerateKey(bytes.NewReader(bytes.Repeat([]byte{1}, KeySize)))
	if err != nil {
		t.Fatalf("GenerateKey(reader) error: %v", err)
	}
	if fixed[0] != 1 || fixed[KeySize-1] != 1 {
		t.Error("GenerateKey() should read from the supplied reader")
	}

	if _, err := GenerateKey(bytes.NewReader([]byte{1, 2})); err == nil {
		t.Error("GenerateKey() should fail on a short reader")
	}
}

func TestKey_Fingerprint(t *testing.T) {
	var k1, k2 Key
	k2[0] = 1

	if k1.Fingerprint() == k2.Fingerprint() {
		t.Error("different keys should have different fingerprints")
	}
	if len(k1.Fingerprint()) != 16 {
		t.Errorf("Fingerprint() length = %d, want 16", len(k1.Fingerprint()))
	}
	if strings.Contains(k2.String(), hex.EncodeToString(k2[:])) {
		t.Error("String() should not reveal key material")
	}
}
