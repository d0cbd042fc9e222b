package connection

import (
	"encoding/json"
	"net/http"
	"strings"

	"openapi-client-go/internal/model"
)

// messageKeys are the payload keys searched for an error description,
// in order of preference.
var messageKeys = []string{"errors", "error", "message", "reason"}

// errorMessage extracts a human readable description from an error response.
//
// It falls back to the status text when the payload carries none.
func errorMessage(resp *model.Response) string {
	if obj, ok := resp.Data.(map[string]any); ok {
		for _, key := range messageKeys {
			if msg := describe(obj[key]); msg != "" {
				return msg
			}
		}
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return "unexpected status"
}

func describe(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			if msg := describe(item); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		for _, key := range []string{"reason", "message", "type"} {
			if msg := describe(value[key]); msg != "" {
				return msg
			}
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
