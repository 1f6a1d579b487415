// Package msgpack provides a MessagePack codec for locket processors.
package msgpack

import (
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zoobzio/locket"
)

// msgpackCodec implements locket.Codec for MessagePack.
type msgpackCodec struct{}

// New returns a MessagePack codec. Encrypted []byte fields travel as bin
// values holding the token text.
func New() locket.Codec {
	return msgpackCodec{}
}

func (msgpackCodec) ContentType() string {
	return "application/msgpack"
}

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
