package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Error describes a failed download. Transport errors are wrapped, never
// returned bare.
type Error struct {
	URL    string
	Kind   Kind
	Status int
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the download was cut off by a deadline.
func (e *Error) IsTimeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

func statusError(rawURL string, kind Kind, status int) *Error {
	return &Error{URL: rawURL, Kind: kind, Status: status, Reason: fmt.Sprintf("http status %d", status)}
}

func transportError(rawURL string, kind Kind, err error) *Error {
	fetchErr := &Error{URL: rawURL, Kind: kind, Err: err}
	var dnsErr *net.DNSError
	switch {
	case fetchErr.IsTimeout():
		fetchErr.Reason = "request timed out"
	case errors.Is(err, context.Canceled):
		fetchErr.Reason = "request canceled"
	case errors.As(err, &dnsErr):
		fetchErr.Reason = "dns lookup failed"
	default:
		fetchErr.Reason = "request failed"
	}
	return fetchErr
}
