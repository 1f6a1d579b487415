package locket

// Codec provides content-type aware marshaling.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// Cloner allows types to provide deep copy logic.
// Implementing this interface is required for use with Processor, which
// encrypts a clone so the caller's value keeps its plaintext.
//
// For simple value types with no pointers, slices, or maps, Clone can simply return
// the receiver value:
//
//	func (u User) Clone() User { return u }
//
// Types with slice or map fields must copy them, otherwise Store would
// overwrite the caller's elements with tokens.
type Cloner[T any] interface {
	Clone() T
}
