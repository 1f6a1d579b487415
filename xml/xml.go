// Package xml provides an XML codec for locket processors.
package xml

import (
	"encoding/xml"

	"github.com/zoobzio/locket"
)

// xmlCodec implements locket.Codec for XML.
type xmlCodec struct{}

// New returns an XML codec. Map fields are not supported by encoding/xml.
func New() locket.Codec {
	return xmlCodec{}
}

func (xmlCodec) ContentType() string {
	return "application/xml"
}

func (xmlCodec) Marshal(v any) ([]byte, error) {
	return xml.Marshal(v)
}

func (xmlCodec) Unmarshal(data []byte, v any) error {
	return xml.Unmarshal(data, v)
}
