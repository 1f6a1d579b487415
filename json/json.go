// Package json provides a JSON codec for locket processors.
package json

import (
	"encoding/json"

	"github.com/zoobzio/locket"
)

// jsonCodec implements locket.Codec for JSON.
type jsonCodec struct{}

// New returns a JSON codec. Tokens are plain ASCII, so encrypted string
// fields need no escaping; []byte fields are base64 encoded by encoding/json.
func New() locket.Codec {
	return jsonCodec{}
}

func (jsonCodec) ContentType() string {
	return "application/json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
