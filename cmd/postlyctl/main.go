// Command postlyctl performs operator tasks that must not go through the
// public API, such as creating the first administrator.
//
//	postlyctl hash-password
//	postlyctl create-admin -username <name>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/term"

	"github.com/postly/postly-api/internal/app"
	"github.com/postly/postly-api/internal/core/domain"
	"github.com/postly/postly-api/internal/infrastructure/config"
	"github.com/postly/postly-api/internal/infrastructure/password"
	"github.com/postly/postly-api/pkg/logger"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		usage(os.Stderr)
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "postlyctl:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage:
  postlyctl hash-password               print an encoded Argon2id secret for a prompted password
  postlyctl create-admin -username NAME create an administrator account (MONGO_URI, MONGO_DB)`)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "hash-password":
		pw, err := promptNewPassword(stderr)
		if err != nil {
			return err
		}
		h, err := password.New(password.DefaultParams)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(h.Hash(pw)))
		return nil

	case "create-admin":
		fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
		fs.SetOutput(stderr)
		username := fs.String("username", "", "administrator username")
		if err := fs.Parse(args[1:]); err != nil {
			return errUsage
		}
		name := strings.TrimSpace(*username)
		if name == "" {
			return fmt.Errorf("%w: -username is required", errUsage)
		}
		pw, err := promptNewPassword(stderr)
		if err != nil {
			return err
		}
		return createAdmin(ctx, name, pw, stdout)

	default:
		return errUsage
	}
}

func promptNewPassword(prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Password: ")
	first, err := readPassword()
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(prompt, "Repeat password: ")
	second, err := readPassword()
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func createAdmin(ctx context.Context, username, pw string, out io.Writer) error {
	log := logger.Init(logger.Options{Level: "warn", Pretty: true, Service: "postlyctl"})

	mongoCfg, err := config.LoadMongo(ctx, envconfig.OsLookuper())
	if err != nil {
		return err
	}
	store, err := app.OpenStorage(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Client.Disconnect(dctx)
	}()

	hasher, err := app.NewHasher(ctx, 1, log)
	if err != nil {
		return err
	}
	secret, err := hasher.Hash(ctx, pw)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p, err := store.Principals.Create(ctx, &domain.Principal{
		Username:       username,
		Role:           domain.RoleAdmin,
		PasswordSecret: secret,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUsernameConflict) {
			return fmt.Errorf("username %q is already taken", username)
		}
		return err
	}

	fmt.Fprintf(out, "created admin %q with id %d\n", p.Username, p.ID)
	return nil
}
