// Package serializer converts in-memory values to and from wire payloads.
//
// The [Smart] serializer picks a codec from a strategy table keyed by
// [ContentType]. Requests are always encoded with the default codec; responses
// are decoded according to the content type reported by the server. When no
// usable hint is present the default codec is tried first and the payload is
// returned as text if that fails.
package serializer

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Serializer converts values to and from wire payloads.
//
// Implementations must be safe for concurrent use.
type Serializer interface {
	// Serialize encodes v for a request body.
	Serialize(v any) ([]byte, error)

	// Deserialize decodes a response payload. The contentType argument is a
	// hint and may be empty.
	Deserialize(data []byte, contentType string) (any, error)

	// MediaType is the Content-Type of payloads produced by Serialize.
	MediaType() string
}

// ErrUndecodable is returned when a payload without a usable content type
// hint is neither decodable by the default codec nor valid UTF-8 text.
var ErrUndecodable = errors.New("serializer: undecodable payload")

// Smart is the default [Serializer].
//
// Construct using [NewSmart] or [New].
type Smart struct {
	defaultType ContentType
	codecs      map[ContentType]Codec
}

var _ Serializer = &Smart{}

// NewSmart returns a [*Smart] encoding request bodies as JSON.
func NewSmart() *Smart {
	s, _ := New(ContentTypeJSON)
	return s
}

// New returns a [*Smart] whose default codec is defaultType, which must be
// one of JSON, YAML or TOML.
func New(defaultType ContentType) (*Smart, error) {
	switch defaultType {
	case ContentTypeJSON, ContentTypeYAML, ContentTypeTOML:
	default:
		return nil, fmt.Errorf("serializer: %s cannot be the default format", defaultType)
	}
	return &Smart{
		defaultType: defaultType,
		codecs: map[ContentType]Codec{
			ContentTypeJSON:   jsonCodec{},
			ContentTypeYAML:   yamlCodec{},
			ContentTypeTOML:   tomlCodec{},
			ContentTypeForm:   formCodec{},
			ContentTypeText:   textCodec{},
			ContentTypeBinary: binaryCodec{},
		},
	}, nil
}

// MediaType implements [Serializer].
func (s *Smart) MediaType() string {
	return s.defaultType.MediaType()
}

// Serialize implements [Serializer].
//
// Byte slices, strings and [json.RawMessage] are treated as already encoded
// and returned unchanged. A string is therefore not JSON-quoted: "123"
// deserializes back to float64(123) and "plain" to the string itself.
func (s *Smart) Serialize(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case json.RawMessage:
		return x, nil
	case string:
		return []byte(x), nil
	}
	data, err := s.codecs[s.defaultType].Encode(v)
	if err != nil {
		return nil, fmt.Errorf("serializer: encode %T as %s: %w", v, s.defaultType, err)
	}
	return data, nil
}

// Deserialize implements [Serializer].
func (s *Smart) Deserialize(data []byte, contentType string) (any, error) {
	ct := ParseContentType(contentType)
	if ct == ContentTypeUnknown {
		return s.fallback(data)
	}
	v, err := s.codecs[ct].Decode(data)
	if err != nil {
		return nil, fmt.Errorf("serializer: decode %s: %w", ct, err)
	}
	return v, nil
}

func (s *Smart) fallback(data []byte) (any, error) {
	if v, err := s.codecs[s.defaultType].Decode(data); err == nil {
		return v, nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return nil, ErrUndecodable
}
