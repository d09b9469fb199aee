package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/channelscan/channelscan/internal/logger"
)

// MongoRepository stores documents in a MongoDB collection.
// The (chat_id, msg_id) natural key is not enforced as a unique index here;
// callers relying on uniqueness must deduplicate upstream.
type MongoRepository struct {
	url        string
	database   string
	collection string
	log        *logger.Logger

	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoRepository creates a MongoDB-backed repository.
func NewMongoRepository(url, database, collection string) *MongoRepository {
	return &MongoRepository{
		url:        url,
		database:   database,
		collection: collection,
		log:        logger.Get(),
	}
}

// Connect opens the client and probes the server eagerly. The driver
// otherwise connects lazily and surfaces failures confusingly deep inside
// the first write.
func (r *MongoRepository) Connect(ctx context.Context) error {
	r.log.Info().Str("database", r.database).Str("collection", r.collection).
		Msg("mongo: connecting")

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(r.url).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	r.client = client

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		r.log.Error().Err(err).Msg("mongo: server unreachable")
		return fmt.Errorf("ping mongodb: %w", err)
	}

	r.coll = client.Database(r.database).Collection(r.collection)
	r.log.Info().Msg("mongo: connection established")
	return nil
}

// Disconnect closes the client. Safe to call after a failed Connect.
func (r *MongoRepository) Disconnect(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	r.client = nil
	r.coll = nil
	r.log.Info().Msg("mongo: connection closed")
	return nil
}

// PutOne inserts a single compacted document.
func (r *MongoRepository) PutOne(ctx context.Context, doc Doc) (Result, error) {
	if r.coll == nil {
		return Result{}, ErrNotConnected
	}

	compacted := Compact(doc)
	if len(compacted) == 0 {
		r.log.Warn().Msg("mongo: document was empty, skipping insert")
		return Result{Outcome: OutcomeEmpty, Detail: "skipped empty document", Skipped: 1}, nil
	}

	res, err := r.coll.InsertOne(ctx, compacted)
	if err != nil {
		return Result{}, fmt.Errorf("insert one: %w", err)
	}
	return Result{
		Outcome:  OutcomeInserted,
		Detail:   fmt.Sprintf("record id %v", res.InsertedID),
		Inserted: 1,
	}, nil
}

// PutMany bulk-inserts the non-empty subset of a compacted batch.
// An all-empty batch is reported as a failure and never attempted.
func (r *MongoRepository) PutMany(ctx context.Context, docs []Doc) (Result, error) {
	if r.coll == nil {
		return Result{}, ErrNotConnected
	}

	kept, skipped := compactBatch(docs)
	if skipped > 0 {
		r.log.Warn().Int("count", skipped).Msg("mongo: skipping empty documents")
	}
	if len(kept) == 0 {
		r.log.Error().Msg("mongo: refusing to insert an all-empty batch")
		return Result{Outcome: OutcomeEmpty, Detail: "failed to insert any document", Skipped: skipped}, nil
	}

	payload := make([]any, len(kept))
	for i, doc := range kept {
		payload[i] = doc
	}
	if _, err := r.coll.InsertMany(ctx, payload); err != nil {
		return Result{}, fmt.Errorf("insert many: %w", err)
	}

	outcome := OutcomeInserted
	if skipped > 0 {
		outcome = OutcomePartial
	}
	return Result{
		Outcome:  outcome,
		Detail:   fmt.Sprintf("inserted %d documents", len(kept)),
		Inserted: len(kept),
		Skipped:  skipped,
	}, nil
}

// GetAll returns every document in the collection.
func (r *MongoRepository) GetAll(ctx context.Context) ([]Doc, error) {
	if r.coll == nil {
		return nil, ErrNotConnected
	}

	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find all: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []Doc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return docs, nil
}
