package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second

	usersCollection    = "users"
	followsCollection  = "follows"
	postsCollection    = "posts"
	commentsCollection = "comments"
	countersCollection = "counters"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the indexes every repository relies on. The unique
// username index is what makes concurrent registrations safe.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		followsCollection: {
			{Keys: bson.D{{Key: "follower_id", Value: 1}, {Key: "followee_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "followee_id", Value: 1}}},
		},
		postsCollection: {
			{Keys: bson.D{{Key: "author_id", Value: 1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "post_id", Value: 1}}},
			{Keys: bson.D{{Key: "author_id", Value: 1}}},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Ping reports whether the database answers; used by readiness checks.
func Ping(ctx context.Context, db *mongo.Database) error {
	return db.Client().Ping(ctx, nil)
}

// nextID hands out sequential int64 ids per sequence name from the counters
// collection.
func nextID(ctx context.Context, db *mongo.Database, sequence string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": sequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", sequence, err)
	}
	return doc.Seq, nil
}

func notFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
