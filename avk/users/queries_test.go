package users

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyWrite(index string) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: avk.users index: " + index + " dup key: { : \"x\" }",
		}},
	}
}

func TestDuplicateKeyError(t *testing.T) {
	other := errors.New("connection reset")

	testCases := []struct {
		name string
		err  error
		want error
	}{
		{name: "identity index", err: duplicateKeyWrite(indexIdentity), want: ErrIdentityTaken},
		{name: "email index", err: duplicateKeyWrite(indexEmail), want: ErrEmailTaken},
		{name: "not a duplicate", err: other, want: other},
		{
			name: "other write error",
			err:  mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 121, Message: "Document failed validation"}}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := duplicateKeyError(tc.err)

			if tc.want == nil {
				assert.Equal(t, tc.err, got)
				return
			}

			assert.ErrorIs(t, got, tc.want)
		})
	}
}

func TestFilterByPassword(t *testing.T) {
	assert.Equal(t, bson.M{"id": "u1", "hashed_password": "h"}, filterByPassword("u1", "h"))

	// oauth-only accounts have no stored hash at all
	missing := filterByPassword("u1", "")
	assert.Equal(t, bson.M{"$in": bson.A{"", nil}}, missing["hashed_password"])
}
