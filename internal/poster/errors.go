package poster

import (
	"errors"
	"fmt"

	"github.com/abdulachik/crossbot/internal/account"
)

// ConfigError means the destination itself is misconfigured (missing
// required setting, wrong credential shape). Not retryable; the caller
// must fix the account.
type ConfigError struct {
	Platform account.Platform
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s destination misconfigured: %s", e.Platform, e.Reason)
}

// PlatformError means the platform or the transport rejected the call.
// Potentially transient and retryable by a caller-level policy.
type PlatformError struct {
	Platform account.Platform
	Op       string
	Err      error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Platform, e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is a destination configuration
// failure rather than a transient platform failure.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
