// package errors contains the error values a transporter call may fail with.
// every error is terminal for the call it was returned from and embeds the
// URL of the request for diagnosis.
package errors

import (
	"fmt"
	"strconv"
)

// EncodingError is returned when the request could not be serialized, e.g.
// parameters that could not be JSON-encoded or a header that would break
// the wire format.
type EncodingError struct {
	URL    string
	Reason string
	Err    error
}

func (e EncodingError) Error() string {
	msg := "the request to " + e.URL + " could not be sent as " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e EncodingError) Unwrap() error {
	return e.Err
}

// TransportError is returned when the network exchange itself failed.
type TransportError struct {
	URL   string
	Code  Code
	Errno string // OS level error name if one was involved, e.g. ECONNREFUSED
	Err   error
}

func (e TransportError) Error() string {
	detail := e.Code.String()
	if e.Errno != "" {
		detail += ", " + e.Errno
	}
	msg := fmt.Sprintf("the request to %s could not be sent because of transport error %d (%s)", e.URL, int(e.Code), detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e TransportError) Unwrap() error {
	return e.Err
}

// Is matches any TransportError carrying the same Code, so that
// errors.Is(err, TransportError{Code: CouldntConnect}) works.
func (e TransportError) Is(err error) bool {
	if err, ok := err.(TransportError); ok {
		return e.Code == err.Code
	}
	return false
}

const (
	ExpectedSeparator  = "without a header/body separator"
	ExpectedStatusLine = "without protocol and status code"
)

// MalformedResponseError is returned when bytes were received but could not
// be split into a status line, headers and a body.
type MalformedResponseError struct {
	URL      string
	Expected string
}

func (e MalformedResponseError) Error() string {
	return "the request to " + e.URL + " returned an invalid response " + e.Expected
}

// HTTPStatusError is returned when the server answered with a status code
// outside [200, 300).
type HTTPStatusError struct {
	URL     string
	Code    int
	Message string
}

func (e HTTPStatusError) Error() string {
	return "the request to " + e.URL + " returned status code " + strconv.Itoa(e.Code) + ": " + e.Message
}
