// Package sentinel holds the infrastructure facts stores report.
//
// Stores return these (optionally wrapped with fmt.Errorf) and services
// translate them into domain errors:
//   - ErrNotFound: the record does not exist
//   - ErrConflict: a unique field (user email) is already taken
//   - ErrUnavailable: the backing service could not be reached
//
// Input validation failures use pkg/domain-errors directly.
package sentinel

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
