package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"codeberg.org/avksport/server/avk/users"
	"codeberg.org/avksport/server/internal/accounts"
	"codeberg.org/avksport/server/internal/config"
	"codeberg.org/avksport/server/internal/logger"
)

var errMissingFlags = errors.New("missing required flags")

func CreateAdmin(ctx context.Context, svc *accounts.Service, flags config.Flags) error {
	if flags.Email == "" || flags.Password == "" {
		return fmt.Errorf("%w: --email and --password", errMissingFlags)
	}

	user, err := svc.CreateAdmin(ctx, flags.Email, flags.Password, flags.Name)
	if errors.Is(err, users.ErrEmailTaken) {
		return fmt.Errorf("account %s already exists; use set-role or reset-password", flags.Email)
	}

	if err != nil {
		return err
	}

	logger.Info("admin created", "user_id", user.ID, "email", user.Email)
	return nil
}

func ResetPassword(ctx context.Context, svc *accounts.Service, flags config.Flags) error {
	if flags.Email == "" || flags.Password == "" {
		return fmt.Errorf("%w: --email and --password", errMissingFlags)
	}

	if err := svc.ForceResetPassword(ctx, flags.Email, flags.Password); err != nil {
		return err
	}

	logger.Info("password updated", "email", flags.Email)
	return nil
}

func SetRole(ctx context.Context, svc *accounts.Service, flags config.Flags) error {
	if flags.Email == "" || flags.Role == "" {
		return fmt.Errorf("%w: --email and --role", errMissingFlags)
	}

	user, err := svc.SetRoleByEmail(ctx, flags.Email, flags.Role)
	if err != nil {
		return err
	}

	logger.Info("role updated", "email", user.Email, "role", user.Role)
	return nil
}

func ListUsers(ctx context.Context, out io.Writer, svc *accounts.Service, flags config.Flags) error {
	list, total, err := svc.ListUsers(ctx, flags.Limit, flags.Offset)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tACTIVE\tCREATED") //nolint:errcheck // terminal output

	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n", //nolint:errcheck // terminal output
			u.ID, u.Email, u.FullName, u.Role, u.IsActive, u.CreatedAt.Format("2006-01-02 15:04"))
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "\n%d of %d accounts\n", len(list), total)
	return err
}
