// Package common contains shared constants and sentinel errors used across
// steamhub components.
package common

const (
	// AuthCookieName carries the website session token.
	AuthCookieName = "token"

	// DefaultCurrency is used when a payment does not name one.
	DefaultCurrency = "USD"

	// AppTokenBytes is the amount of random bytes behind a desktop app token.
	AppTokenBytes = 32

	// VerificationTokenBytes is the amount of random bytes behind an e-mail
	// verification token.
	VerificationTokenBytes = 20
)
