package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/postly/postly-api/internal/core/domain"
	"github.com/postly/postly-api/internal/core/ports"
)

// ContentRepository implements ports.ContentRepository over the posts and
// comments collections. Only ownership is read; bodies are never loaded.
type ContentRepository struct {
	posts    *mongo.Collection
	comments *mongo.Collection
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(db *mongo.Database) ports.ContentRepository {
	return &ContentRepository{
		posts:    db.Collection(postsCollection),
		comments: db.Collection(commentsCollection),
	}
}

type ownerDoc struct {
	ID       int64 `bson:"_id"`
	AuthorID int64 `bson:"author_id"`
}

var ownerProjection = bson.M{"_id": 1, "author_id": 1}

func (r *ContentRepository) FindPost(ctx context.Context, id int64) (*domain.ContentRef, error) {
	return findOwner(ctx, r.posts, domain.ContentPost, id)
}

// DeletePost removes the post together with its comments.
func (r *ContentRepository) DeletePost(ctx context.Context, id int64) error {
	if _, err := r.comments.DeleteMany(ctx, bson.M{"post_id": id}); err != nil {
		return fmt.Errorf("delete comments of post %d: %w", id, err)
	}
	return deleteByID(ctx, r.posts, id)
}

func (r *ContentRepository) FindComment(ctx context.Context, id int64) (*domain.ContentRef, error) {
	return findOwner(ctx, r.comments, domain.ContentComment, id)
}

func (r *ContentRepository) DeleteComment(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.comments, id)
}

func findOwner(ctx context.Context, coll *mongo.Collection, kind domain.ContentKind, id int64) (*domain.ContentRef, error) {
	var doc ownerDoc
	err := coll.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(ownerProjection)).Decode(&doc)
	if err != nil {
		if notFound(err) {
			return nil, domain.ErrContentNotFound
		}
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return &domain.ContentRef{Kind: kind, ID: doc.ID, AuthorID: doc.AuthorID}, nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id int64) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", coll.Name(), id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrContentNotFound
	}
	return nil
}
