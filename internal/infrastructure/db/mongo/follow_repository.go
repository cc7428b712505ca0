package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/postly/postly-api/internal/core/ports"
)

// FollowRepository implements ports.FollowRepository using MongoDB. Each edge
// is one document keyed by the (follower_id, followee_id) pair.
type FollowRepository struct {
	coll *mongo.Collection
}

// NewFollowRepository creates a new FollowRepository.
func NewFollowRepository(db *mongo.Database) ports.FollowRepository {
	return &FollowRepository{coll: db.Collection(followsCollection)}
}

func edgeFilter(followerID, followeeID int64) bson.M {
	return bson.M{"follower_id": followerID, "followee_id": followeeID}
}

func (r *FollowRepository) Follow(ctx context.Context, followerID, followeeID int64) error {
	_, err := r.coll.UpdateOne(ctx,
		edgeFilter(followerID, followeeID),
		bson.M{"$setOnInsert": bson.M{"created_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}

func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	if _, err := r.coll.DeleteOne(ctx, edgeFilter(followerID, followeeID)); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	return nil
}

func (r *FollowRepository) DeleteAllFor(ctx context.Context, id int64) error {
	filter := bson.M{"$or": bson.A{
		bson.M{"follower_id": id},
		bson.M{"followee_id": id},
	}}
	if _, err := r.coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("delete follows for %d: %w", id, err)
	}
	return nil
}
