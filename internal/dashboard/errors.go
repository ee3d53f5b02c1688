// Package dashboard composes the stores, the aggregation client and the
// pure transaction and reconciliation packages into the operations served
// by the API and the CLI.
package dashboard

import "errors"

// ErrInvalidInput marks a request the caller must correct.
var ErrInvalidInput = errors.New("invalid input")
