package proto

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// ServerName identifies this server in the Server response header and as the
// fixed body of the default route.
const ServerName = "mikufans-bvc-server"

// Response is one HTTP/1.1 response. Body may be nil; callers streaming a
// deferred payload write it to the socket themselves after WriteToStream,
// having set Content-Length up front. A Response is consumed by exactly one
// WriteToStream call.
type Response struct {
	Status  int
	Headers *Headers
	Body    []byte
}

// NewResponse returns a 200 response carrying the default header set.
// Callers override headers and status before writing.
func NewResponse() *Response {
	h := NewHeaders()
	h.Set("Server", ServerName)
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Connection", "keep-alive")
	return &Response{Status: http.StatusOK, Headers: h}
}

// NewStatusResponse returns a default response with the given status.
func NewStatusResponse(status int) *Response {
	resp := NewResponse()
	resp.Status = status
	return resp
}

// WriteToStream serializes the response to w and flushes it. The status line
// carries the numeric code only. When a body is present its exact length is
// written as Content-Length, overwriting any caller-set value. Any error
// leaves the stream unusable for further responses.
func (r *Response) WriteToStream(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d\r\n", r.Status); err != nil {
		return err
	}

	if r.Body != nil {
		r.Headers.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}

	var werr error
	r.Headers.Each(func(name, value string) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(bw, "%s: %s\r\n", name, value)
	})
	if werr != nil {
		return werr
	}

	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}

	if r.Body != nil {
		if _, err := bw.Write(r.Body); err != nil {
			return err
		}
	}

	return bw.Flush()
}
