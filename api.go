// Package locket provides transparent field-level encryption for stored records.
//
// A value is sealed into a self-describing, authenticated token before it is
// persisted and opened again on read. Keys are bound per field in a
// KeyRegistry; the persistence layer only ever sees token strings.
//
// # Tokens
//
// A token is the unpadded base64url encoding of
//
//	0x80 | uint64 seconds (big-endian) | 16-byte IV | AES-128-CBC ciphertext | HMAC-SHA256
//
// The signature covers everything before it, timestamp included, and is
// verified in constant time before any decryption. A token that fails
// verification is ErrTokenInvalid whether it was tampered with or opened
// with the wrong key.
//
// # Keys
//
// A Key is 32 bytes: a 16-byte signing key followed by a 16-byte encryption
// key. Keys are bound once per (owner, field):
//
//	keys := locket.NewKeyRegistry()
//	if err := keys.Set("patients", "ssn", material); err != nil {
//	    // ErrKeyInvalid or ErrKeyAlreadyBound
//	}
//
// Rebinding requires an explicit Unset so a field never silently changes key.
//
// # Storage Boundary
//
// A Cipher joins the registry and the codec:
//
//	c := locket.NewCipher(keys)
//	token, err := c.EncodeForStorage(ctx, []byte("123-45-6789"), "patients", "ssn")
//	plain, err := c.DecodeFromStorage(ctx, token, "patients", "ssn")
//
// A field with no key fails with ErrKeyUndefined before the codec runs.
// WithTTL enables age checks on decode; by default tokens never expire.
//
// # Struct Tags
//
// Processor encrypts tagged fields on Store and decrypts them on Load:
//
//	type Patient struct {
//	    ID  string `json:"id"`
//	    SSN string `json:"ssn" store.encrypt:"ssn" load.decrypt:"ssn"`
//	}
//
//	func (p Patient) Clone() Patient { return p }
//
//	proc, _ := locket.NewProcessor[Patient](json.New(), c, locket.WithOwner("patients"))
//	data, _ := proc.Store(ctx, &patient)
//	loaded, _ := proc.Load(ctx, data)
//
// # Codec Providers
//
//   - json - JSON encoding (application/json)
//   - yaml - YAML encoding (application/yaml)
//   - msgpack - MessagePack encoding (application/msgpack)
//   - bson - BSON encoding (application/bson)
//   - xml - XML encoding (application/xml)
//
// The gormfield package registers a GORM serializer that applies the same
// boundary to database columns.
package locket
