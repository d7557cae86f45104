// Package ferrors defines the sentinel error kinds shared across the
// fuzzer's components. Transport failures, unknown auth roles, and an
// unrecognized contract format wrap one of these sentinels so callers can
// branch with errors.Is rather than string matching; other errors (ingest
// parse errors, report I/O, OAuth2 token fetches) are returned unwrapped.
package ferrors

import "errors"

var (
	// ErrConfigInvalid marks a malformed or incomplete configuration —
	// contract ingestion failure, missing base URL, unparseable budget.
	ErrConfigInvalid = errors.New("ferrors: invalid configuration")

	// ErrTransportFailure marks a request that could not be completed —
	// connection refused, timeout, DNS failure. Always a plain error
	// returned from Transport.Send, never a panic.
	ErrTransportFailure = errors.New("ferrors: transport failure")

	// ErrAuthUnavailable marks an auth adapter that could not produce or
	// refresh a credential for the requested role.
	ErrAuthUnavailable = errors.New("ferrors: auth unavailable")

	// ErrValidationError marks a response the validator could not assess —
	// malformed schema, undecodable body where one was expected.
	ErrValidationError = errors.New("ferrors: validation error")

	// ErrBudgetExhausted marks an endpoint that has spent its request or
	// time budget and must stop probing.
	ErrBudgetExhausted = errors.New("ferrors: budget exhausted")

	// ErrUnhealthy marks an endpoint whose ban/rate-limit/success-rate
	// profile has crossed the configured unhealthy threshold.
	ErrUnhealthy = errors.New("ferrors: endpoint unhealthy")
)

// Wrap attaches a sentinel to a lower-level error, preserving it for
// errors.Is while keeping the original message.
func Wrap(sentinel error, detail string, cause error) error {
	if cause == nil {
		return errors.Join(sentinel, errors.New(detail))
	}
	return errors.Join(sentinel, errors.New(detail), cause)
}
