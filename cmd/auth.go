package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin authenticates with email and password and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")

	r.logger.Infof("logging in as %v", email)

	user, err := r.session.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return r.writePlain("✓ Logged in as %s\n", user.Email)
}

// AuthRegister creates an account and stores the session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")

	user, err := r.session.Register(ctx, email, password)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	r.logger.Info("account created", "email", user.Email)
	return r.writePlain("✓ Registered as %s\n", user.Email)
}

// AuthGuest provisions a fresh guest session, replacing the stored one.
func (r *Runner) AuthGuest(ctx context.Context, cmd *cli.Command) error {
	user, err := r.session.Provision(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Guest session ready (%s)\n", user.UserKey)
}

// AuthWhoami shows the active session, provisioning a guest if none exists.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	user, err := r.session.Current(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	kind := "registered"
	if user.IsGuest {
		kind = "guest"
	}
	r.writePlain("User key: %s\n", user.UserKey)
	r.writePlain("Type: %s\n", kind)
	if user.Email != "" {
		r.writePlain("Email: %s\n", user.Email)
	}
	return nil
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Logout(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}
