// Package bson provides a BSON codec for locket processors, for records
// persisted as MongoDB documents.
package bson

import (
	"github.com/zoobzio/locket"
	"go.mongodb.org/mongo-driver/bson"
)

// bsonCodec implements locket.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec. BSON documents must be structs or maps; Store
// on a nil record therefore fails with locket.ErrMarshal.
func New() locket.Codec {
	return bsonCodec{}
}

func (bsonCodec) ContentType() string {
	return "application/bson"
}

func (bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

func (bsonCodec) Unmarshal(data []byte, v any) error {
	return bson.Unmarshal(data, v)
}
