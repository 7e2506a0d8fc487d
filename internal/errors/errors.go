package errors

import "errors"

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")
var ErrNotFound = errors.New("resource not found")
var ErrInvalidInput = errors.New("invalid input")
var ErrPrecondition = errors.New("operation is not allowed in current state")
var ErrConflict = errors.New("resource already exists")
var ErrGateway = errors.New("external service failure")
var ErrRateLimited = errors.New("too many requests")

// Error carries a category sentinel and a message that is safe to show to the client
type Error struct {
	kind   error
	detail string
}

func (e *Error) Error() string {
	return e.detail
}

func (e *Error) Unwrap() error {
	return e.kind
}

// New returns an error matching kind via errors.Is and printing detail
func New(kind error, detail string) error {
	return &Error{kind: kind, detail: detail}
}

// Detail returns the client-facing message of err, or fallback when err carries none
func Detail(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.detail
	}
	return fallback
}
