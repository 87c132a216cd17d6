package helper

import "fmt"

// NewError wraps err with the name of the failing operation, the single
// error-wrapping convention used across the database, core and job-handler
// packages.
func NewError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
