package config

import (
	"flag"
	"os"
)

// parses CLI flags for the create-admin subcommand
func ParseCreateAdminFlags() Flags {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "admin email address")
	password := fs.String("password", "", "initial admin password")
	name := fs.String("name", "", "admin display name (default Администратор)")
	fs.Parse(subcommandArgs()) //nolint:errcheck,gosec // G104: ExitOnError flag set handles errors

	return Flags{Email: *email, Password: *password, Name: *name}
}

// parses CLI flags for the reset-password subcommand
func ParseResetPasswordFlags() Flags {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	email := fs.String("email", "", "email of the account to update")
	password := fs.String("password", "", "new password")
	fs.Parse(subcommandArgs()) //nolint:errcheck,gosec // G104: ExitOnError flag set handles errors

	return Flags{Email: *email, Password: *password}
}

// parses CLI flags for the set-role subcommand
func ParseSetRoleFlags() Flags {
	fs := flag.NewFlagSet("set-role", flag.ExitOnError)
	email := fs.String("email", "", "email of the account to update")
	role := fs.String("role", "", "customer, staff or admin")
	fs.Parse(subcommandArgs()) //nolint:errcheck,gosec // G104: ExitOnError flag set handles errors

	return Flags{Email: *email, Role: *role}
}

// parses CLI flags for the list-users subcommand
func ParseListUsersFlags() Flags {
	fs := flag.NewFlagSet("list-users", flag.ExitOnError)
	limit := fs.Int("limit", 100, "maximum number of accounts to print")
	offset := fs.Int("offset", 0, "number of accounts to skip")
	fs.Parse(subcommandArgs()) //nolint:errcheck,gosec // G104: ExitOnError flag set handles errors

	return Flags{Limit: *limit, Offset: *offset}
}

// parses CLI flags for the issue-token subcommand
func ParseIssueTokenFlags() Flags {
	fs := flag.NewFlagSet("issue-token", flag.ExitOnError)
	email := fs.String("email", "", "email of the account to sign a token for")
	fs.Parse(subcommandArgs()) //nolint:errcheck,gosec // G104: ExitOnError flag set handles errors

	return Flags{Email: *email}
}

func subcommandArgs() []string {
	if len(os.Args) < 3 {
		return nil
	}

	return os.Args[2:]
}
