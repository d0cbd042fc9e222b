package connection

import "net/http"

// redacted replaces credential header values in traces.
const redacted = "[REDACTED]"

var sensitiveHeaders = map[string]bool{
	"Authorization":       true,
	"Proxy-Authorization": true,
	"X-Api-Key":           true,
	"Cookie":              true,
	"Set-Cookie":          true,
}

// redactHeaders returns a copy of h with credential values replaced.
// Keys are matched in canonical form, so maps built as literals with
// lowercase keys are redacted too.
func redactHeaders(h http.Header) http.Header {
	if h == nil {
		return nil
	}
	out := h.Clone()
	for name := range out {
		if sensitiveHeaders[http.CanonicalHeaderKey(name)] {
			out[name] = []string{redacted}
		}
	}
	return out
}
