// Package common defines shared constants and sentinel errors used across
// AuthGate components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Directory verification errors.
	ErrorInvalidCredentials    = errors.New("invalid credentials")
	ErrorDirectorySearchFailed = errors.New("directory search failed")

	// Local store reconciliation errors.
	ErrorUserSyncFailed = errors.New("user sync failed")

	// Token errors (invalid signature, expired or malformed token).
	ErrorInvalidToken = errors.New("invalid token")
)
