package remoteRepo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// RemoteStore is the cloud-side document store the sync engine exchanges
// entities with. Documents are partitioned by account uid and addressed by
// the app-level id field. Raw documents cross this boundary; mapping and
// timestamp normalization happen in the sync layer.
type RemoteStore interface {
	// ChangedAfter retrieves up to limit documents for uid with updatedAt
	// strictly greater than the watermark, ordered ascending. A nil
	// watermark retrieves from the beginning.
	ChangedAfter(ctx context.Context, collection, uid string, updatedAfter *int64, limit int64) ([]bson.M, error)
	// GetByIDs retrieves the documents for the given ids, keyed by id.
	// Missing ids are simply absent from the result.
	GetByIDs(ctx context.Context, collection, uid string, ids []string) (map[string]bson.M, error)
	// UpsertAll replaces-or-inserts the documents by (uid, id) inside one
	// transaction. An empty batch is a no-op.
	UpsertAll(ctx context.Context, collection, uid string, docs []bson.M) error
	// TombstoneIDsBefore lists tombstone ids with updatedAt strictly below cutoff.
	TombstoneIDsBefore(ctx context.Context, collection, uid string, cutoff int64) ([]string, error)
	// DeleteByIDs removes documents permanently, reporting how many went.
	DeleteByIDs(ctx context.Context, collection, uid string, ids []string) (int64, error)
}
