// Package ranges resolves Range request headers against a resource length.
//
// Only a single bytes range is supported. Anything else — an absent header,
// multiple ranges, a syntax problem, or a span falling outside the resource —
// degrades to serving the whole resource. This server never answers 416.
package ranges

import (
	"strconv"
	"strings"
)

// ByteRange is a half-open span [Start, End) within a resource of known
// length. Invariant: 0 <= Start <= End <= total.
type ByteRange struct {
	Start uint64
	End   uint64
}

// Len returns the number of bytes covered by the span.
func (r ByteRange) Len() uint64 {
	return r.End - r.Start
}

// ContentRange renders the span as a Content-Range header value, with the
// inclusive last byte on the wire: "bytes {start}-{end-1}/{total}".
func (r ByteRange) ContentRange(total uint64) string {
	last := r.End
	if last > 0 {
		last--
	}
	return "bytes " + strconv.FormatUint(r.Start, 10) +
		"-" + strconv.FormatUint(last, 10) +
		"/" + strconv.FormatUint(total, 10)
}

// Resolve maps a raw Range header value onto a resource of total bytes.
// partial is true only for a valid single range, to be served as 206.
// Otherwise the returned span covers the whole resource and the caller
// serves it as a plain 200.
func Resolve(header string, total uint64) (span ByteRange, partial bool) {
	whole := ByteRange{Start: 0, End: total}

	if !strings.HasPrefix(header, "bytes=") {
		return whole, false
	}

	specs := strings.Split(strings.TrimPrefix(header, "bytes="), ",")
	if len(specs) != 1 {
		// multipart/byteranges is unsupported
		return whole, false
	}

	spec := strings.TrimSpace(specs[0])
	dash := strings.IndexByte(spec, '-')
	if dash < 0 {
		return whole, false
	}
	startPart, endPart := spec[:dash], spec[dash+1:]

	if startPart == "" {
		// suffix form: last n bytes
		n, err := strconv.ParseUint(endPart, 10, 64)
		if err != nil || n > total {
			return whole, false
		}
		return ByteRange{Start: total - n, End: total}, true
	}

	start, err := strconv.ParseUint(startPart, 10, 64)
	if err != nil {
		return whole, false
	}

	var end uint64
	if endPart == "" {
		end = total
	} else {
		last, err := strconv.ParseUint(endPart, 10, 64)
		if err != nil {
			return whole, false
		}
		end = last + 1
	}

	if start > end || start > total || end > total {
		return whole, false
	}
	return ByteRange{Start: start, End: end}, true
}
