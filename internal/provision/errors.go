package provision

import (
	"errors"
	"fmt"
)

// Error categories for provisioning failures. All of them are fatal: the
// run stops at the first error with a non-zero exit status, and re-running
// after fixing the reported condition is the supported recovery path.
var (
	// ErrValidation marks malformed or inconsistent input.
	ErrValidation = errors.New("validation error")

	// ErrPermission marks a run without the required privileges.
	ErrPermission = errors.New("permission error")

	// ErrEnvironment marks a host missing a required capability, such as
	// a supported package manager or a named local user.
	ErrEnvironment = errors.New("environment error")

	// ErrConfig marks a missing or empty credential.
	ErrConfig = errors.New("configuration error")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func environmentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEnvironment, fmt.Sprintf(format, args...))
}

func configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
