// Package apperrors defines the error kinds the HTTP layer knows how to
// translate into status codes. Lower layers wrap these sentinels with
// context; callers test for them with errors.Is.
package apperrors

import "errors"

var (
	// ErrValidation marks input that has the wrong shape or content.
	ErrValidation = errors.New("validation error")
	// ErrAlreadyExists marks a create that collides with an existing record.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthenticated marks bad credentials or a bad bearer token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound marks a lookup with no result.
	ErrNotFound = errors.New("not found")
	// ErrRender marks a failed call to the external renderer.
	ErrRender = errors.New("render error")
	// ErrRateLimited marks a caller that exceeded its request budget.
	ErrRateLimited = errors.New("rate limited")
)

// Error pairs a sentinel kind with a message safe to show to clients.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) Unwrap() error { return e.Kind }

// New returns an error of the given kind carrying a client-facing detail.
func New(kind error, detail string) error {
	return &Error{Kind: kind, Detail: detail}
}

// Detail returns the client-facing message of err if it carries one.
func Detail(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail, true
	}
	return "", false
}
