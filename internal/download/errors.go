package download

import (
	"errors"
	"net/http"
	"strings"
)

// Category buckets every failure the download pipeline can surface into
// a small taxonomy the caller can act on: retryable (RateLimited,
// Unavailable), terminal (InvalidInput, AccessRestricted) or faults
// (UnknownProviderFailure, LocalIOFailure).
type Category int

const (
	InvalidInput Category = iota
	RateLimited
	AccessRestricted
	Unavailable
	UnknownProviderFailure
	LocalIOFailure
)

func (category Category) String() string {
	return []string{
		"invalid_input",
		"rate_limited",
		"access_restricted",
		"unavailable",
		"provider_failure",
		"local_io_failure",
	}[category]
}

// StatusCode maps each category to its externally observable HTTP
// status. Every category carries a distinct code.
func (category Category) StatusCode() int {
	return []int{
		http.StatusBadRequest,          // InvalidInput
		http.StatusTooManyRequests,     // RateLimited
		http.StatusForbidden,           // AccessRestricted
		http.StatusNotFound,            // Unavailable
		http.StatusBadGateway,          // UnknownProviderFailure
		http.StatusInternalServerError, // LocalIOFailure
	}[category]
}

func (category Category) message() string {
	return []string{
		"A source URL must be provided",
		"The source is rate limiting requests - try again later",
		"The source requires sign-in or has flagged automated access",
		"The requested content is private, removed or otherwise unavailable",
		"The provider failed to process this request",
		"The downloaded file could not be located",
	}[category]
}

// Error is a classified pipeline failure carrying its category and the
// underlying provider error for logging.
type Error struct {
	Category Category
	Message  string
	cause    error
}

func (err *Error) Error() string {
	if err.cause != nil {
		return err.Message + ": " + err.cause.Error()
	}

	return err.Message
}

func (err *Error) Unwrap() error { return err.cause }

func newError(category Category, cause error) *Error {
	return &Error{Category: category, Message: category.message(), cause: cause}
}

// ErrTooBusy is returned when the admission pool has no free transfer
// slots; callers should retry later.
var ErrTooBusy = errors.New("too many downloads in flight - try again later")

// Classify buckets a provider failure by matching its description
// against known failure signals. Signals this classifier has never seen
// fall through to UnknownProviderFailure - never a crash.
func Classify(err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	description := strings.ToLower(err.Error())

	switch {
	case strings.Contains(description, "429"),
		strings.Contains(description, "too many requests"):
		return newError(RateLimited, err)
	case strings.Contains(description, "sign in"),
		strings.Contains(description, "login"),
		strings.Contains(description, "bot"),
		strings.Contains(description, "age restriction"):
		return newError(AccessRestricted, err)
	case strings.Contains(description, "private"),
		strings.Contains(description, "unavailable"),
		strings.Contains(description, "not found"),
		strings.Contains(description, "removed"):
		return newError(Unavailable, err)
	default:
		return newError(UnknownProviderFailure, err)
	}
}
