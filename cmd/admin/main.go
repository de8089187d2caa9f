package main

import (
	"context"
	"fmt"
	"os"

	"codeberg.org/avksport/server/avk/sessions"
	"codeberg.org/avksport/server/avk/users"
	"codeberg.org/avksport/server/internal/accounts"
	"codeberg.org/avksport/server/internal/auth"
	"codeberg.org/avksport/server/internal/config"
	"codeberg.org/avksport/server/internal/logger"
	"codeberg.org/avksport/server/internal/storage"
)

func usage() {
	fmt.Println("Usage: admin <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  create-admin    - create an administrator account")
	fmt.Println("  reset-password  - set a new password for an account")
	fmt.Println("  set-role        - change the role of an account")
	fmt.Println("  list-users      - print accounts, newest first")
	fmt.Println("  purge-sessions  - delete expired cookie sessions")
	fmt.Println("  issue-token     - print a bearer token for an account (manual API testing)")
	fmt.Println("\nOptions:")
	fmt.Println("  --email <email>        - account email")
	fmt.Println("  --password <password>  - password to set")
	fmt.Println("  --name <name>          - display name (create-admin)")
	fmt.Println("  --role <role>          - customer, staff or admin (set-role)")
	fmt.Println("  --limit, --offset      - paging (list-users)")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// runs one subcommand and returns the process exit code
func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 1
	}

	command := args[0]

	// flags are parsed before connecting so a bad flag never leaves a client open
	flags, ok := parseFlags(command)
	if !ok {
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		return 1
	}

	// load environment variables
	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.ErrorErr(err, "failed to load configuration")
		return 1
	}

	// connect to database
	ctx := context.Background()

	db, err := storage.NewClient(ctx, cfg.MongoURL, cfg.DBName)
	if err != nil {
		logger.ErrorErr(err, "failed to connect to database")
		return 1
	}

	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.ErrorErr(err, "failed to disconnect from database")
		}
	}()

	userRepo := users.NewRepository(db.Database())
	sessionRepo := sessions.NewRepository(db.Database())

	if err := db.EnsureIndexes(ctx, userRepo, sessionRepo); err != nil {
		logger.ErrorErr(err, "failed to create indexes")
		return 1
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.ResetTokenTTL)
	if err != nil {
		logger.ErrorErr(err, "failed to create token issuer")
		return 1
	}

	svc := accounts.NewService(accounts.Deps{
		Users:       userRepo,
		Sessions:    sessionRepo,
		Issuer:      issuer,
		FrontendURL: cfg.FrontendURL,
	})

	// route to appropriate command
	switch command {
	case "create-admin":
		err = CreateAdmin(ctx, svc, flags)
	case "reset-password":
		err = ResetPassword(ctx, svc, flags)
	case "set-role":
		err = SetRole(ctx, svc, flags)
	case "list-users":
		err = ListUsers(ctx, os.Stdout, svc, flags)
	case "purge-sessions":
		err = PurgeSessions(ctx, sessionRepo)
	case "issue-token":
		err = IssueToken(ctx, os.Stdout, userRepo, issuer, flags)
	}

	if err != nil {
		logger.ErrorErr(err, "command failed", "command", command)
		return 1
	}

	return 0
}

// parses the flag set of command; ok is false for unknown commands
func parseFlags(command string) (config.Flags, bool) {
	switch command {
	case "create-admin":
		return config.ParseCreateAdminFlags(), true
	case "reset-password":
		return config.ParseResetPasswordFlags(), true
	case "set-role":
		return config.ParseSetRoleFlags(), true
	case "list-users":
		return config.ParseListUsersFlags(), true
	case "issue-token":
		return config.ParseIssueTokenFlags(), true
	case "purge-sessions":
		return config.Flags{}, true
	default:
		return config.Flags{}, false
	}
}
