package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/snipx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin checks credentials with the API and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: user name is required", shared.ErrMissingArgument)
	}

	r.logger.Debug("logging in", "user", name)
	msg, err := r.session.Login(ctx, name, cmd.String("password"))
	r.writePlain("%s\n", msg)
	return err
}

// AuthRegister creates an account. It does not sign in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	msg, err := r.session.Register(ctx, cmd.StringArg("name"), cmd.String("password"))
	r.writePlain("%s\n", msg)
	return err
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	msg, err := r.session.SignOut()
	r.writePlain("%s\n", msg)
	if err != nil {
		r.logger.Warn("session storage not fully cleared", "error", err)
	}
	return nil
}

// AuthStatus prints the stored session and whether the API answers.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	sess := r.session.Session()
	if sess.Active() {
		r.writePlain("Signed in as: %s\n", sess.UserName)
	} else {
		r.writePlain("Not signed in\n")
	}

	resp, err := r.api.Get(ctx, "/api/snippets/languages")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	return r.writePlain("API: ✓ reachable at %s\n", r.config.Server.BaseURL)
}

// AuthUsers lists share candidates: every user except the signed-in one.
func (r *Runner) AuthUsers(ctx context.Context, cmd *cli.Command) error {
	sess := r.session.Session()
	if !sess.Active() {
		return fmt.Errorf("%w: run 'snipx auth login' first", shared.ErrNotAuthenticated)
	}

	names, err := r.snippets.Users(ctx)
	if err != nil {
		return err
	}
	users := []string{}
	for _, n := range names {
		if !strings.EqualFold(n, sess.UserName) {
			users = append(users, n)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, false)
	}
	if len(users) == 0 {
		return r.writePlain("No other users\n")
	}
	for _, u := range users {
		r.writePlain("%s\n", u)
	}
	return nil
}
