package config

import "errors"

var (
	// ErrInvalidBatchSize is returned when batch_size is not greater than 0
	ErrInvalidBatchSize = errors.New("batch_size must be greater than 0")
	// ErrInvalidInterval is returned when tick_interval is not greater than 0
	ErrInvalidInterval = errors.New("tick_interval must be greater than 0")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidMatcher is returned when matcher names an unknown implementation
	ErrInvalidMatcher = errors.New(`matcher must be "regex" or "dom"`)
	// ErrEmptyDatabasePath is returned when database path is empty
	ErrEmptyDatabasePath = errors.New("database_path cannot be empty")
)
