package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeEnsurer struct {
	calls *int
	err   error
}

func (f fakeEnsurer) EnsureIndexes(context.Context) error {
	*f.calls++
	return f.err
}

func TestEnsureIndexes_StopsAtFirstFailure(t *testing.T) {
	calls := 0
	boom := errors.New("boom")

	c := &Client{}
	err := c.EnsureIndexes(context.Background(),
		fakeEnsurer{calls: &calls},
		fakeEnsurer{calls: &calls, err: boom},
		fakeEnsurer{calls: &calls},
	)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestNewClient_InvalidURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewClient(ctx, "not-a-mongo-url", "hockey_shop")
	assert.Error(t, err)
}
