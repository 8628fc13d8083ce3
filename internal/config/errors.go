package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoTarget is returned when neither --domain nor a domains file
	// provides something to process.
	ErrNoTarget = errors.New("no target specified: provide --domain or a domains CSV file")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no domains are ever processed.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidDelay is returned when the per-host delay is negative.
	// Use 0 to disable spacing between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxPages is returned when the page budget is negative.
	// Use 0 to crawl only the predefined contact paths.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidRetries is returned when the retry count is not positive.
	// At least one attempt per request is required.
	ErrInvalidRetries = errors.New("invalid retries: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidSchedule is returned when --schedule is not a 24h HH:MM time.
	ErrInvalidSchedule = errors.New("invalid schedule: must be HH:MM in 24-hour format")
)
