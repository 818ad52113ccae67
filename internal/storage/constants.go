package db

import "time"

const (
	// ConnectionRetrySleep separates connection attempts at start-up.
	ConnectionRetrySleep = 2 * time.Second
	maxConnectionRetries = 5
)

// Pool defaults sized for short batch runs.
const (
	defaultMaxConns          int32         = 5
	defaultMinConns          int32         = 0
	defaultMaxConnIdleTime   time.Duration = 5 * time.Minute
	defaultMaxConnLifetime   time.Duration = 30 * time.Minute
	defaultHealthCheckPeriod time.Duration = time.Minute
)

// migrationLockID is the advisory lock key held while migrating.
const migrationLockID int64 = 7301
