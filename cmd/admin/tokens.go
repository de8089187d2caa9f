package main

import (
	"context"
	"fmt"
	"io"

	"codeberg.org/avksport/server/avk/users"
	"codeberg.org/avksport/server/internal/auth"
	"codeberg.org/avksport/server/internal/config"
)

// prints a curl-ready access token for an existing account
func IssueToken(ctx context.Context, out io.Writer, store users.Store, issuer *auth.Issuer, flags config.Flags) error {
	if flags.Email == "" {
		return fmt.Errorf("%w: --email", errMissingFlags)
	}

	user, err := store.FindByEmail(ctx, flags.Email)
	if err != nil {
		return err
	}

	if user.Disabled() {
		return fmt.Errorf("account %s is disabled", user.Email)
	}

	token, err := issuer.IssueAccess(user.ID, user.Email)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "user: %s (%s, role %s)\n\ncurl -H \"Authorization: Bearer %s\" http://localhost:8001/api/auth/me\n",
		user.Email, user.ID, user.Role, token)
	return err
}
