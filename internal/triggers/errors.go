package triggers

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a task whose calendar trigger cannot be scheduled.
type ConfigurationError struct {
	TaskID string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("task %s: invalid trigger configuration: %s", e.TaskID, e.Reason)
}

// NewConfigurationError creates a configuration error for a task.
func NewConfigurationError(taskID, format string, args ...interface{}) error {
	return ConfigurationError{TaskID: taskID, Reason: fmt.Sprintf(format, args...)}
}

// Signature verification failures. Tasks failing verification are excluded silently.
var (
	ErrSignatureMissing  = errors.New("signature: secret or header missing")
	ErrSignatureFormat   = errors.New("signature: header is not sha256=<hex>")
	ErrSignatureMismatch = errors.New("signature: digest mismatch")
)
