package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// handles user database operations
type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ Store = (*Repository)(nil)

// creates a new user repository
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		coll: db.Collection(CollectionName),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// creates the unique indexes the store relies on
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels()); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	return nil
}

// inserts a new user; email and identity uniqueness are enforced by indexes
func (r *Repository) Create(ctx context.Context, user *User) error {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if dup := duplicateKeyError(err); dup != err {
			return dup
		}

		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// finds a user by their ID
func (r *Repository) FindByID(ctx context.Context, userID string) (*User, error) {
	return r.findOne(ctx, filterByID(userID))
}

// finds a user by exact email
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, filterByEmail(email))
}

// finds a user by linked provider identity
func (r *Repository) FindByIdentity(ctx context.Context, provider, providerID string) (*User, error) {
	return r.findOne(ctx, filterByIdentity(provider, providerID))
}

// attaches an external identity to an existing user
func (r *Repository) LinkIdentity(ctx context.Context, userID string, identity Identity) (*User, error) {
	update := bson.M{
		"$addToSet": bson.M{"identities": identity},
		"$set":      bson.M{"updated_at": r.now()},
	}

	user, err := r.findOneAndUpdate(ctx, filterByID(userID), update)
	if err != nil {
		return nil, duplicateKeyError(err)
	}

	return user, nil
}

// updates the mutable profile fields
func (r *Repository) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error) {
	if update.IsEmpty() {
		return nil, ErrNothingToApply
	}

	return r.findOneAndUpdate(ctx, filterByID(userID), profileUpdateDoc(update, r.now()))
}

// replaces the password hash
func (r *Repository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := r.coll.UpdateOne(ctx, filterByID(userID), bson.M{
		"$set": bson.M{"hashed_password": passwordHash, "updated_at": r.now()},
	})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *Repository) ReplacePassword(ctx context.Context, userID, currentHash, newHash string) error {
	res, err := r.coll.UpdateOne(ctx, filterByPassword(userID, currentHash), bson.M{
		"$set": bson.M{"hashed_password": newHash, "updated_at": r.now()},
	})
	if err != nil {
		return fmt.Errorf("failed to replace password: %w", err)
	}

	if res.MatchedCount > 0 {
		return nil
	}

	if _, err := r.FindByID(ctx, userID); err != nil {
		return err
	}

	return ErrStalePassword
}

// changes the account role
func (r *Repository) UpdateRole(ctx context.Context, userID, role string) (*User, error) {
	role, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}

	return r.findOneAndUpdate(ctx, filterByID(userID), bson.M{
		"$set": bson.M{"role": role, "updated_at": r.now()},
	})
}

// enables or disables an account
func (r *Repository) SetActive(ctx context.Context, userID string, active bool) (*User, error) {
	return r.findOneAndUpdate(ctx, filterByID(userID), bson.M{
		"$set": bson.M{"is_active": active, "updated_at": r.now()},
	})
}

// removes a user permanently
func (r *Repository) Delete(ctx context.Context, userID string) error {
	res, err := r.coll.DeleteOne(ctx, filterByID(userID))
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if res.DeletedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

// lists users newest first
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*User, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	defer cursor.Close(ctx) //nolint:errcheck // read-only cursor

	var list []*User

	for cursor.Next(ctx) {
		var u User
		if err := cursor.Decode(&u); err != nil {
			return nil, 0, fmt.Errorf("failed to decode user: %w", err)
		}

		normalize(&u)
		list = append(list, &u)
	}

	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}

	return list, total, nil
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var user User

	err := r.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	normalize(&user)
	return &user, nil
}

func (r *Repository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*User, error) {
	var user User

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	normalize(&user)
	return &user, nil
}

// legacy documents may carry "user" or "employee" roles
func normalize(u *User) {
	if role, err := NormalizeRole(u.Role); err == nil {
		u.Role = role
	}
}
