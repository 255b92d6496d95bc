package proto

import "errors"

// ProtocolError is a parse failure in the request head. The session answers
// such a failure with a 400 and keeps the connection open; transport failures
// are returned as plain wrapped I/O errors and close the connection.
type ProtocolError string

func (e ProtocolError) Error() string { return string(e) }

const (
	ErrRequestLine ProtocolError = "malformed request line"
	ErrMethod      ProtocolError = "invalid request method"
	ErrTarget      ProtocolError = "invalid request target"
	ErrVersion     ProtocolError = "unsupported http version"
	ErrHeader      ProtocolError = "malformed header"
)

// IsProtocolError reports whether err is a parse failure rather than a
// transport failure.
func IsProtocolError(err error) bool {
	var pe ProtocolError
	return errors.As(err, &pe)
}
