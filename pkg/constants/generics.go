package constants

import "time"

// RFC 3339 date-time format string, used for timestamps in gateway responses.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

// DocumentDateFormat is the YYYY-MM-DD layout the registration service expects for date fields.
const DocumentDateFormat = "2006-01-02"

// Registration service defaults.
const (
	DefaultDocumentsCreateURL = "https://ismp.crpt.ru/api/v3/lk/documents/create"
	DefaultSignatureHeader    = "Signature"
	DefaultSubmitRequestLimit = 10
	DefaultSubmitTimeUnit     = "second"
	DefaultSubmitHTTPTimeout  = 30 * time.Second
)

// Default inbound (gateway) rate limiting configuration
const (
	DefaultRateLimitRequests      = 100
	DefaultRateLimitWindowMinutes = 1
)

// DefaultRateLimitWindow returns the default inbound rate limit window duration
func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}

// Receipt journal retention defaults.
const (
	DefaultReceiptRetention     = 90 * 24 * time.Hour
	DefaultReceiptPruneSchedule = "@daily"
)
