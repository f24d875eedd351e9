package errors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalid        = errors.New("invalid")
	ErrConflict       = errors.New("conflict")
	ErrTooMany        = errors.New("too many requests")
	ErrInternal       = errors.New("internal")
	ErrEmptyQuery     = errors.New("empty query")
	ErrNoKeywords     = errors.New("no keywords provided for counting")
	ErrUnsupportedExt = errors.New("unsupported file extension")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
