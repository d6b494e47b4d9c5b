// Package httpapi provides shared HTTP client patterns for the external
// service clients: JSON request/response handling, a structured APIError
// taxonomy and optional retry for transient failures.
//
// The patch pipeline itself never retries - its clients are configured with
// MaxRetries of 1 - but the retry support remains available to other
// consumers of the package.
package httpapi
