package users

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	indexUserID   = "users_id_unique"
	indexEmail    = "users_email_unique"
	indexIdentity = "users_identity_unique"
)

// unique indexes for email and linked identities
func indexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName(indexUserID).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(indexEmail).SetUnique(true),
		},
		{
			// multikey over the identities array; sparse so password-only users don't collide
			Keys: bson.D{
				{Key: "identities.provider", Value: 1},
				{Key: "identities.provider_id", Value: 1},
			},
			Options: options.Index().SetName(indexIdentity).SetUnique(true).SetSparse(true),
		},
	}
}

func filterByID(userID string) bson.M {
	return bson.M{"id": userID}
}

// matches the user only while its stored hash equals passwordHash; an empty hash also matches a missing field
func filterByPassword(userID, passwordHash string) bson.M {
	if passwordHash == "" {
		return bson.M{"id": userID, "hashed_password": bson.M{"$in": bson.A{"", nil}}}
	}

	return bson.M{"id": userID, "hashed_password": passwordHash}
}

func filterByEmail(email string) bson.M {
	return bson.M{"email": email}
}

func filterByIdentity(provider, providerID string) bson.M {
	return bson.M{
		"identities": bson.M{
			"$elemMatch": bson.M{"provider": provider, "provider_id": providerID},
		},
	}
}

func profileUpdateDoc(update ProfileUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}

	if update.FullName != nil {
		set["full_name"] = *update.FullName
	}

	if update.Phone != nil {
		set["phone"] = *update.Phone
	}

	if update.Address != nil {
		set["address"] = *update.Address
	}

	if update.City != nil {
		set["city"] = *update.City
	}

	if update.Picture != nil {
		set["picture"] = *update.Picture
	}

	return bson.M{"$set": set}
}

// maps a duplicate key error onto the index it violated
func duplicateKeyError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}

	if strings.Contains(err.Error(), indexIdentity) {
		return ErrIdentityTaken
	}

	return ErrEmailTaken
}
