package config

import "time"

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./library.db"

	// DefaultLoanPeriod is the lending period used to compute due dates when
	// an issue request does not specify one. Two weeks, the usual library term.
	DefaultLoanPeriod = 14 * 24 * time.Hour
)
