package models

import "time"

// LibraryEntry is one row of a user's materialized library.
// ExpirationDate and IsActive are derived from the payment ledger;
// AccumulatedHours is tracked separately and survives rewrites.
type LibraryEntry struct {
	UserID           string
	GameID           string
	ExpirationDate   time.Time
	IsActive         bool
	AccumulatedHours float64
}

// LibraryGame is a library entry joined with catalog metadata.
type LibraryGame struct {
	LibraryEntry
	Title       string
	ImagePath   string
	BannerPath  string
	Description string
	Developer   string
}
