/*
Package handler provides the terminal views and commands of the client.

This file holds the account commands: sign in, sign up and sign out. They call the
backend through the API client and then update the session, which is the only
writer of the persisted identity.
*/
package handler

import (
	"context"
	"strings"

	"botclient/internal/app/api"
	"botclient/internal/pkg/errs"
	"botclient/internal/pkg/logx"
)

// HandleLogin runs "login <user> <password>".
func HandleLogin(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) != 2 {
			return errs.NewError(errs.ErrUsage, "login <user> <password>")
		}

		result, err := deps.API.Login(ctx, api.Credentials{Username: args[0], Password: args[1]})
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			// The command was abandoned while the request was in flight.
			logx.Debug("Dropping late login response", "username", args[0])
			return ctx.Err()
		}

		if err := deps.Session.Login(result.UserID.String(), args[0], result.Role); err != nil {
			return err
		}

		msg := result.Msg
		if msg == "" {
			msg = "Signed in."
		}
		say(deps.Out, okColor, "%s\n", msg)

		_, err = deps.Navigator.Navigate(ctx, PathDashboard)
		return err
	}
}

// HandleSignup runs "signup <user> <email> <password> [role]".
func HandleSignup(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) < 3 || len(args) > 4 {
			return errs.NewError(errs.ErrUsage, "signup <user> <email> <password> [role]")
		}

		reg := api.Registration{Username: args[0], Email: args[1], Password: args[2]}
		if len(args) == 4 {
			reg.Role = strings.ToLower(args[3])
		}

		result, err := deps.API.Signup(ctx, reg)
		if err != nil {
			return err
		}

		msg := result.Msg
		if msg == "" {
			msg = "Account created."
		}
		say(deps.Out, okColor, "%s Sign in with 'login %s <password>'.\n", msg, args[0])

		_, err = deps.Navigator.Navigate(ctx, PathLogin)
		return err
	}
}

// HandleLogout runs "logout". The server call is best effort; the local session
// always ends, which also tears down the real-time channel.
func HandleLogout(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) error {
		if err := deps.API.Logout(ctx); err != nil {
			say(deps.Out, warnColor, "Server sign-out failed: %v\n", err)
		}

		deps.Session.Logout()
		say(deps.Out, okColor, "Signed out.\n")

		// The current view may be protected; re-check it.
		_, err := deps.Navigator.Refresh(ctx)
		return err
	}
}
