package pipeline

import (
	"context"
	"io"
	"net/http"
	"strings"

	"openapi-client-go/internal/model"
)

// captureHandler returns a terminal handler that stores the request it
// receives in *got and answers with resp.
func captureHandler(got **model.Request, resp *model.Response) HandlerFunc {
	return func(ctx context.Context, req *model.Request) (*model.Response, error) {
		*got = req
		return resp, nil
	}
}

// newResponse returns a response with the given status, content type and body.
func newResponse(status int, contentType, body string) *model.Response {
	return &model.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {contentType}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// errReader fails every Read with err.
type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
