package sync

import "errors"

var (
	// ErrNoSession means no account is signed in. SyncAll fails closed on it:
	// nothing is pushed, pulled, or checkpointed.
	ErrNoSession = errors.New("no signed-in account")

	// ErrSyncBusy means another sync run already holds the single-flight lock.
	ErrSyncBusy = errors.New("sync already in progress")
)
