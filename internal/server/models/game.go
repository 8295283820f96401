package models

import "github.com/shopspring/decimal"

// Game is catalog metadata. The core only reads it.
type Game struct {
	ID                 string
	Name               string
	Price              decimal.Decimal
	SteamID            string
	Tags               []string
	ImageMain          string
	ImageBanner        string
	About              string
	Developer          string
	SystemRequirements string
	IsEnabled          bool
}
