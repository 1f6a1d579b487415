// Package yaml provides a YAML codec for locket processors.
package yaml

import (
	"github.com/zoobzio/locket"
	"gopkg.in/yaml.v3"
)

// yamlCodec implements locket.Codec for YAML.
type yamlCodec struct{}

// New returns a YAML codec.
func New() locket.Codec {
	return yamlCodec{}
}

func (yamlCodec) ContentType() string {
	return "application/yaml"
}

func (yamlCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (yamlCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}
