package main

import (
	"context"
	"time"

	"codeberg.org/avksport/server/avk/sessions"
	"codeberg.org/avksport/server/internal/logger"
)

// deletes every expired session once; the server does the same on its cleanup interval
func PurgeSessions(ctx context.Context, store sessions.Store) error {
	removed, err := store.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	logger.Info("expired sessions purged", "removed", removed)
	return nil
}
