// File: utils/constants.go
package utils

import "time"

// ActiveSessionKey is the Redis key holding the signed-in account session.
const ActiveSessionKey = "session:active"

// SessionTTL is the time-to-live for the account session. Sessions refresh
// on authenticated requests; an expired session makes sync fail closed.
const SessionTTL = 30 * 24 * time.Hour

// SyncLockKey is the Redis key taken while a sync run is in flight.
const SyncLockKey = "sync:running"

// SyncLockTTL bounds how long a crashed run can hold the sync lock.
const SyncLockTTL = 5 * time.Minute
