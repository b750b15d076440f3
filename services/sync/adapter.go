package sync

import "context"

// Adapter gives the engine uniform access to one entity type's local rows.
// Rows cross this boundary boxed as any; the owning Descriptor's accessors
// read them back. Implementations must satisfy:
//
//   - LocalsChangedAfter returns every row, tombstones included, with
//     updatedAt strictly greater than the watermark; all rows when nil.
//   - UpsertAll and MarkDeletedByIDs are atomic per call.
//   - MarkDeletedByIDs flips the tombstone flag and touches nothing else, so
//     applied remote deletions do not re-enter the next push window.
type Adapter interface {
	LocalsChangedAfter(ctx context.Context, updatedAfter *int64) ([]any, error)
	UpsertAll(ctx context.Context, items []any) error
	MarkDeletedByIDs(ctx context.Context, ids []string) error
	LocalUpdatedAt(ctx context.Context, id string) (*int64, error)
	IsLocalDeleted(ctx context.Context, id string) (bool, error)
}
