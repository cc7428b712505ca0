package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/postly/postly-api/internal/core/domain"
	"github.com/postly/postly-api/internal/core/ports"
)

// PrincipalRepository implements ports.PrincipalRepository using MongoDB.
type PrincipalRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

// NewPrincipalRepository creates a new PrincipalRepository.
func NewPrincipalRepository(db *mongo.Database) ports.PrincipalRepository {
	return &PrincipalRepository{db: db, coll: db.Collection(usersCollection)}
}

type userDoc struct {
	ID             int64     `bson:"_id"`
	Username       string    `bson:"username"`
	Role           string    `bson:"role"`
	PasswordSecret []byte    `bson:"password_secret"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (d userDoc) toDomain() (*domain.Principal, error) {
	role, err := domain.ParseRole(d.Role)
	if err != nil {
		return nil, fmt.Errorf("decode user %d: %w", d.ID, err)
	}
	return &domain.Principal{
		ID:             d.ID,
		Username:       d.Username,
		Role:           role,
		PasswordSecret: d.PasswordSecret,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}, nil
}

func (r *PrincipalRepository) Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	id, err := nextID(ctx, r.db, usersCollection)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := userDoc{
		ID:             id,
		Username:       p.Username,
		Role:           p.Role.String(),
		PasswordSecret: p.PasswordSecret,
		CreatedAt:      orNow(p.CreatedAt, now),
		UpdatedAt:      orNow(p.UpdatedAt, now),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUsernameConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain()
}

func (r *PrincipalRepository) FindByID(ctx context.Context, id int64) (*domain.Principal, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *PrincipalRepository) FindByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *PrincipalRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *PrincipalRepository) UpdateUsername(ctx context.Context, id int64, username string) error {
	return r.set(ctx, id, bson.M{"username": username})
}

func (r *PrincipalRepository) UpdatePasswordSecret(ctx context.Context, id int64, secret []byte) error {
	return r.set(ctx, id, bson.M{"password_secret": secret})
}

func (r *PrincipalRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	return r.set(ctx, id, bson.M{"role": role.String()})
}

func (r *PrincipalRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPrincipalNotFound
	}
	return nil
}

func (r *PrincipalRepository) findOne(ctx context.Context, filter bson.M) (*domain.Principal, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if notFound(err) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain()
}

func (r *PrincipalRepository) set(ctx context.Context, id int64, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUsernameConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPrincipalNotFound
	}
	return nil
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t.UTC()
}
