package proto

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

var knownMethods = map[string]struct{}{
	"GET":     {},
	"HEAD":    {},
	"POST":    {},
	"PUT":     {},
	"DELETE":  {},
	"CONNECT": {},
	"OPTIONS": {},
	"TRACE":   {},
	"PATCH":   {},
}

// Request is one parsed HTTP/1.1 request head. This server never reads
// request bodies.
type Request struct {
	Method  string
	Target  *url.URL
	Headers *Headers
}

// Path returns the path component of the request target.
func (r *Request) Path() string {
	return r.Target.Path
}

// ParseRequest reads one request head from br: a request line, header lines,
// and the terminating blank line. It returns (nil, nil) when the peer closed
// the stream before sending anything, which callers must treat as a clean
// end of stream.
func ParseRequest(br *bufio.Reader) (*Request, error) {
	line, err := readLine(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read request line: %w", err)
	}

	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %q", ErrRequestLine, line)
	}

	method := parts[0]
	if _, ok := knownMethods[method]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrMethod, method)
	}

	target, err := url.ParseRequestURI(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrTarget, parts[1])
	}

	if parts[2] != "HTTP/1.1" {
		return nil, fmt.Errorf("%w: %q", ErrVersion, parts[2])
	}

	headers := NewHeaders()
	for {
		line, err := readLine(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: stream ended before header terminator", ErrHeader)
			}
			return nil, fmt.Errorf("read header line: %w", err)
		}
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrHeader, line)
		}
		if name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("%w: %q", ErrHeader, line)
		}
		headers.Set(name, strings.TrimSpace(value))
	}

	return &Request{Method: method, Target: target, Headers: headers}, nil
}

// readLine reads up to the next LF and strips the line terminator. A stream
// that ends without a terminator still yields its final bytes as a line;
// io.EOF is returned only when nothing was read at all.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
