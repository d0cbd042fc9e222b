package serializer

import (
	"fmt"
	"mime"
	"strings"
)

// ContentType is a normalized payload format used to select a codec.
type ContentType int

const (
	// ContentTypeUnknown means no usable hint was available.
	ContentTypeUnknown ContentType = iota
	ContentTypeJSON
	ContentTypeYAML
	ContentTypeTOML
	ContentTypeForm
	ContentTypeText
	ContentTypeBinary
)

var mediaTypes = map[ContentType]string{
	ContentTypeJSON:   "application/json",
	ContentTypeYAML:   "application/yaml",
	ContentTypeTOML:   "application/toml",
	ContentTypeForm:   "application/x-www-form-urlencoded",
	ContentTypeText:   "text/plain; charset=utf-8",
	ContentTypeBinary: "application/octet-stream",
}

// MediaType returns the canonical MIME type for t, or "" for [ContentTypeUnknown].
func (t ContentType) MediaType() string {
	return mediaTypes[t]
}

func (t ContentType) String() string {
	switch t {
	case ContentTypeJSON:
		return "json"
	case ContentTypeYAML:
		return "yaml"
	case ContentTypeTOML:
		return "toml"
	case ContentTypeForm:
		return "form"
	case ContentTypeText:
		return "text"
	case ContentTypeBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// ParseContentType maps a Content-Type header value to a [ContentType].
//
// Parameters such as charset are ignored. Unrecognized values map to
// [ContentTypeUnknown].
func ParseContentType(value string) ContentType {
	mt, _, err := mime.ParseMediaType(value)
	if err != nil {
		mt, _, _ = strings.Cut(value, ";")
		mt = strings.ToLower(strings.TrimSpace(mt))
	}
	switch {
	case mt == "":
		return ContentTypeUnknown
	case mt == "application/json", mt == "text/json", strings.HasSuffix(mt, "+json"):
		return ContentTypeJSON
	case mt == "application/yaml", mt == "application/x-yaml", mt == "text/yaml",
		mt == "text/x-yaml", strings.HasSuffix(mt, "+yaml"):
		return ContentTypeYAML
	case mt == "application/toml", mt == "text/toml", mt == "application/x-toml":
		return ContentTypeTOML
	case mt == "application/x-www-form-urlencoded":
		return ContentTypeForm
	case strings.HasPrefix(mt, "text/"):
		return ContentTypeText
	case mt == "application/octet-stream", mt == "application/pdf", mt == "application/zip",
		strings.HasPrefix(mt, "image/"), strings.HasPrefix(mt, "audio/"), strings.HasPrefix(mt, "video/"):
		return ContentTypeBinary
	}
	return ContentTypeUnknown
}

// ParseFormat maps a configuration name ("json", "yaml", "toml") to the
// structured [ContentType] used as default encoding.
func ParseFormat(name string) (ContentType, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return ContentTypeJSON, nil
	case "yaml":
		return ContentTypeYAML, nil
	case "toml":
		return ContentTypeTOML, nil
	}
	return ContentTypeUnknown, fmt.Errorf("serializer: unsupported format %q", name)
}
