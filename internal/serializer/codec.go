package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Codec encodes and decodes one payload format.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

type jsonCodec struct{}

func (jsonCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (jsonCodec) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

type yamlCodec struct{}

func (yamlCodec) Encode(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (yamlCodec) Decode(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

type tomlCodec struct{}

func (tomlCodec) Encode(v any) ([]byte, error) {
	return toml.Marshal(v)
}

func (tomlCodec) Decode(data []byte) (any, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// formCodec handles application/x-www-form-urlencoded payloads. Decoded keys
// with a single value map to a string, repeated keys to a []any.
type formCodec struct{}

func (formCodec) Encode(v any) ([]byte, error) {
	values := url.Values{}
	switch m := v.(type) {
	case url.Values:
		values = m
	case map[string]string:
		for k, s := range m {
			values.Set(k, s)
		}
	case map[string]any:
		for k, x := range m {
			values.Set(k, fmt.Sprint(x))
		}
	default:
		return nil, fmt.Errorf("form: cannot encode %T", v)
	}
	return []byte(values.Encode()), nil
}

func (formCodec) Decode(data []byte) (any, error) {
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, s := range vs {
			list[i] = s
		}
		out[k] = list
	}
	return out, nil
}

type textCodec struct{}

func (textCodec) Encode(v any) ([]byte, error) {
	switch s := v.(type) {
	case string:
		return []byte(s), nil
	case []byte:
		return s, nil
	case fmt.Stringer:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("text: cannot encode %T", v)
}

func (textCodec) Decode(data []byte) (any, error) {
	return string(data), nil
}

type binaryCodec struct{}

func (binaryCodec) Encode(v any) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	return nil, fmt.Errorf("binary: cannot encode %T", v)
}

func (binaryCodec) Decode(data []byte) (any, error) {
	return bytes.Clone(data), nil
}
