// Command createuser adds an account directly to the user store.
//
//	createuser -u alice -p s3cret
//
// The database is taken from DATABASE_URL (or CONFIG_FILE) exactly as the
// server reads it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/config"
	"github.com/isdelr/codeshot-be/internal/database"
	"github.com/isdelr/codeshot-be/internal/logger"
	"github.com/isdelr/codeshot-be/internal/repository"
	"github.com/isdelr/codeshot-be/internal/services"
	"github.com/pkg/errors"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "createuser:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("createuser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var username, password string
	fs.StringVar(&username, "u", "", "username (shorthand)")
	fs.StringVar(&username, "username", "", "username")
	fs.StringVar(&password, "p", "", "password (shorthand)")
	fs.StringVar(&password, "password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if username == "" || password == "" {
		fs.Usage()
		return errors.New("both --username and --password are required")
	}

	cfg, err := config.Read()
	if err != nil {
		return err
	}
	logger.InitWithWriter(stderr, cfg.LogLevel, cfg.LogFormat)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	userService := services.NewUserService(repository.NewUserRepository(db), services.NewEventService(db))
	user, err := userService.CreateUser(ctx, username, password)
	if err != nil {
		if detail, ok := apperrors.Detail(err); ok {
			return errors.New(detail)
		}
		return err
	}

	fmt.Fprintf(stdout, "%s created\n", user.Username)
	return nil
}
