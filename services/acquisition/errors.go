package acquisition

import (
	"errors"
	"fmt"
	"time"
)

// Channel error codes. Adapters never panic across their boundary for these;
// anything not in the taxonomy is converted to TechnicalError.
const (
	CodeAuthenticationFailure = "AuthenticationFailure"
	CodeNoAvailability        = "NoAvailability"
	CodeRateLimitExceeded     = "RateLimitExceeded"
	CodeBudgetExceeded        = "BudgetExceeded"
	CodeLegalGateDisabled     = "LegalGateDisabled"
	CodeNoPartnerAvailable    = "NoPartnerAvailable"
	CodeTechnicalError        = "TechnicalError"
)

// ChannelError is a tagged failure returned by a channel adapter.
type ChannelError struct {
	Code    string
	Message string
	// RetryAfter is set on RateLimitExceeded to hint how long to wait.
	RetryAfter time.Duration
	// NextDates is set on NoAvailability with the next few available dates.
	NextDates []string
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewChannelError(code, format string, args ...any) *ChannelError {
	return &ChannelError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsChannelError returns err as a *ChannelError, wrapping unknown errors as
// TechnicalError so callers always see a tagged failure.
func AsChannelError(err error) *ChannelError {
	if err == nil {
		return nil
	}
	var chErr *ChannelError
	if errors.As(err, &chErr) {
		return chErr
	}
	return NewChannelError(CodeTechnicalError, "%v", err)
}
