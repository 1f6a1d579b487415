package locket

import (
	"context"
	"sync"
)

// binding identifies one encrypted field: the owner it is declared on and
// its identity within that owner.
type binding struct {
	owner string
	field string
}

// KeyRegistry maps (owner, field) pairs to keys.
//
// Keys are assign-once: a bound field must be Unset before it can be given a
// different key. A single mutex guards the whole table.
type KeyRegistry struct {
	mu   sync.Mutex
	keys map[binding]Key
}

// NewKeyRegistry returns an empty registry.
func NewKeyRegistry() *KeyRegistry {
	return &KeyRegistry{keys: make(map[binding]Key)}
}

// Set binds key material to (owner, field).
// Returns ErrKeyInvalid for malformed material and ErrKeyAlreadyBound if the
// field already has a key, both wrapped in a *KeyError. Material is checked
// first, so malformed material is ErrKeyInvalid even on a bound field.
func (r *KeyRegistry) Set(owner, field string, material []byte) error {
	key, err := ParseKey(material)
	if err != nil {
		emitKeyRejected(context.Background(), owner, field, err)
		return &KeyError{Err: err, Owner: owner, Field: field}
	}
	return r.SetKey(owner, field, key)
}

// SetKey binds an already parsed key to (owner, field).
func (r *KeyRegistry) SetKey(owner, field string, key Key) error {
	b := binding{owner: owner, field: field}

	r.mu.Lock()
	if _, ok := r.keys[b]; ok {
		r.mu.Unlock()
		err := newKeyError(ErrKeyAlreadyBound, owner, field)
		emitKeyRejected(context.Background(), owner, field, err)
		return err
	}
	r.keys[b] = key
	r.mu.Unlock()

	emitKeyBound(context.Background(), owner, field, key.Fingerprint())
	return nil
}

// Get returns the key bound to (owner, field), if any.
func (r *KeyRegistry) Get(owner, field string) (Key, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.keys[binding{owner: owner, field: field}]
	return key, ok
}

// Unset removes the binding for (owner, field). Unsetting an unbound field is a no-op.
func (r *KeyRegistry) Unset(owner, field string) {
	b := binding{owner: owner, field: field}

	r.mu.Lock()
	_, ok := r.keys[b]
	delete(r.keys, b)
	r.mu.Unlock()

	if ok {
		emitKeyUnbound(context.Background(), owner, field)
	}
}

// IsBound reports whether (owner, field) has a key.
func (r *KeyRegistry) IsBound(owner, field string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.keys[binding{owner: owner, field: field}]
	return ok
}

// Len returns the number of bindings.
func (r *KeyRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

// Reset removes every binding.
// This is primarily useful for test isolation and shutdown.
func (r *KeyRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = make(map[binding]Key)
}
