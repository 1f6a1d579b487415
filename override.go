package locket

import "context"

// Override interfaces allow types to bypass reflection-based processing.
// When a type implements one of them, the Processor calls it instead of
// walking tagged fields. Key lookup still goes through the registry: a
// field without a key fails with ErrKeyUndefined either way.

// FieldSet resolves field identities under the processor's owner.
type FieldSet interface {
	Field(name string) *Field
}

// Encryptable bypasses reflection for store.encrypt actions.
type Encryptable interface {
	// Encrypt replaces the receiver's sensitive fields with tokens.
	// The receiver is a clone, so mutations are safe.
	Encrypt(ctx context.Context, fields FieldSet) error
}

// Decryptable bypasses reflection for load.decrypt actions.
type Decryptable interface {
	// Decrypt replaces the receiver's tokens with plaintext.
	// Called on freshly unmarshaled data.
	Decrypt(ctx context.Context, fields FieldSet) error
}

// ownerFields is the FieldSet handed to override implementations.
type ownerFields struct {
	cipher *Cipher
	owner  string
}

func (o ownerFields) Field(name string) *Field {
	return o.cipher.Field(o.owner, name)
}
