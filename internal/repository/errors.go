package repository

// NotFoundError is an error type for when a resource is not found.
type NotFoundError struct {
	message string
}

// Error returns the error message.
func (e NotFoundError) Error() string {
	return e.message
}

// NewNotFoundError returns a NotFoundError with the given message.
func NewNotFoundError(message string) NotFoundError {
	return NotFoundError{message: message}
}
