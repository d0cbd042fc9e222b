package model

import (
	"io"
	"net/http"
)

// Keys set by the HTTP transport in [Response.TransferStats].
const (
	StatTotalTime    = "total_time"
	StatURL          = "url"
	StatContentType  = "content_type"
	StatHTTPCode     = "http_code"
	StatPrimaryIP    = "primary_ip"
	StatSizeDownload = "size_download"
)

// Response is the result of a transport call as it travels back up the pipeline.
//
// Body holds the raw payload while in flight. The response serialization stage
// drains it into Raw and stores the decoded value in Data.
type Response struct {
	StatusCode    int
	Header        http.Header
	Body          io.ReadCloser
	Raw           []byte
	Data          any
	TransferStats map[string]any
}

// ContentType returns the content type reported by the transport, falling back
// to the Content-Type header.
func (r *Response) ContentType() string {
	if v, ok := r.TransferStats[StatContentType].(string); ok && v != "" {
		return v
	}
	return r.Header.Get("Content-Type")
}

// TotalTime returns the transfer duration in seconds, or zero when unknown.
func (r *Response) TotalTime() float64 {
	v, _ := r.TransferStats[StatTotalTime].(float64)
	return v
}
