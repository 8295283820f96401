// Package client talks to the storefront REST API on behalf of the desktop
// launcher and bootstraps the launcher's local SQLite state file.
//
// Failures are reported as *APIError, which matches ErrUnauthorized,
// ErrForbidden, ErrRateLimited and ErrUnavailable with errors.Is. Transport
// failures wrap ErrUnavailable.
package client
