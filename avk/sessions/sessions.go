package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// handles session database operations
type Repository struct {
	coll *mongo.Collection
}

var _ Store = (*Repository)(nil)

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{coll: db.Collection(CollectionName)}
}

// creates the token and owner indexes
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_token", Value: 1}},
			Options: options.Index().SetName("sessions_token_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("sessions_user"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("sessions_expires_at"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}

	return nil
}

func (r *Repository) Create(ctx context.Context, session *Session) error {
	if _, err := r.coll.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// returns the session regardless of expiry; callers decide validity
func (r *Repository) FindByToken(ctx context.Context, token string) (*Session, error) {
	var session Session

	err := r.coll.FindOne(ctx, bson.M{"session_token": token}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return &session, nil
}

func (r *Repository) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"session_token": token}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

func (r *Repository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}

	return res.DeletedCount, nil
}

func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return res.DeletedCount, nil
}
