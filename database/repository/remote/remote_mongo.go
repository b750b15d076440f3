package remoteRepo

import (
	"context"
	"fmt"
	"time"

	"remindful/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRemoteStore implements RemoteStore using MongoDB.
type MongoRemoteStore struct {
	db *mongo.Database
}

// NewMongoRemoteStore constructs the store and ensures indexes on the given
// collections.
func NewMongoRemoteStore(collections ...string) RemoteStore {
	store := &MongoRemoteStore{db: database.MongoDatabase()}

	for _, coll := range collections {
		if err := store.ensureIndexes(coll); err != nil {
			fmt.Printf("failed to create indexes on %s: %v\n", coll, err)
		}
	}
	return store
}

// ensureIndexes creates indexes for fields the sync queries run on.
func (repo *MongoRemoteStore) ensureIndexes(collection string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "uid", Value: 1}, {Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "uid", Value: 1}, {Key: "updatedAt", Value: 1}}},
		{Keys: bson.D{{Key: "uid", Value: 1}, {Key: "isDeleted", Value: 1}, {Key: "updatedAt", Value: 1}}},
	}

	_, err := repo.db.Collection(collection).Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// ChangedAfter retrieves up to limit documents changed strictly after the
// watermark, ordered ascending by updatedAt.
func (repo *MongoRemoteStore) ChangedAfter(ctx context.Context, collection, uid string, updatedAfter *int64, limit int64) ([]bson.M, error) {
	filter := bson.M{"uid": uid}
	if updatedAfter != nil {
		filter["updatedAt"] = bson.M{"$gt": *updatedAfter}
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := repo.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s changes: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error on %s: %w", collection, err)
	}
	return docs, nil
}

// GetByIDs retrieves the documents for the given ids, keyed by id.
func (repo *MongoRemoteStore) GetByIDs(ctx context.Context, collection, uid string, ids []string) (map[string]bson.M, error) {
	result := make(map[string]bson.M, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	filter := bson.M{"uid": uid, "id": bson.M{"$in": ids}}
	cursor, err := repo.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s documents by id: %w", collection, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", collection, err)
		}
		if id, ok := doc["id"].(string); ok {
			result[id] = doc
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error on %s: %w", collection, err)
	}
	return result, nil
}

// UpsertAll replaces-or-inserts the documents by (uid, id) inside one
// transaction, so a partial batch never becomes visible.
func (repo *MongoRemoteStore) UpsertAll(ctx context.Context, collection, uid string, docs []bson.M) error {
	if len(docs) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		id, ok := doc["id"].(string)
		if !ok || id == "" {
			return fmt.Errorf("document for %s is missing an id", collection)
		}
		doc["uid"] = uid
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"uid": uid, "id": id}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	txnFn := func(sc mongo.SessionContext) error {
		if _, err := repo.db.Collection(collection).BulkWrite(sc, writes); err != nil {
			return fmt.Errorf("bulk upsert on %s failed: %w", collection, err)
		}
		return nil
	}
	return repo.withTransaction(ctx, txnFn)
}

// withTransaction runs fn inside a mongo session transaction.
func (repo *MongoRemoteStore) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	client := repo.db.Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return fmt.Errorf("remote store transaction failed: %w", err)
	}
	return nil
}

// TombstoneIDsBefore lists tombstone ids last touched strictly before cutoff.
func (repo *MongoRemoteStore) TombstoneIDsBefore(ctx context.Context, collection, uid string, cutoff int64) ([]string, error) {
	filter := bson.M{"uid": uid, "isDeleted": true, "updatedAt": bson.M{"$lt": cutoff}}
	opts := options.Find().SetProjection(bson.M{"id": 1})

	cursor, err := repo.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s tombstones: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s tombstone: %w", collection, err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error on %s: %w", collection, err)
	}
	return ids, nil
}

// DeleteByIDs removes documents permanently, reporting how many went.
func (repo *MongoRemoteStore) DeleteByIDs(ctx context.Context, collection, uid string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	filter := bson.M{"uid": uid, "id": bson.M{"$in": ids}}
	res, err := repo.db.Collection(collection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s documents: %w", collection, err)
	}
	return res.DeletedCount, nil
}
