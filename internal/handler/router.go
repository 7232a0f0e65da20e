/*
Package handler provides the terminal views and commands of the client.

This file defines the route table: every view the client can show, the loader that
renders it, and which views require a session. The navigation guard is registered
as the router's pre-navigation hook, so a protected loader never runs without a
session.
*/
package handler

import (
	"context"

	"botclient/internal/app/navigation"
	"botclient/internal/app/session"
)

const (
	PathLanding       = "/"
	PathLogin         = "/login"
	PathRegister      = "/register"
	PathDashboard     = "/dashboard"
	PathChatbot       = "/chatbot/:id"
	PathCreateChatbot = "/create-chatbot"
	PathCreatorChats  = "/creator/chats"

	// PathLegacyChat is the old chat location, kept as a redirect.
	PathLegacyChat = "/chat"
)

// Routes returns the route table bound to deps.
func Routes(deps *AppDeps) []navigation.Route {
	return []navigation.Route{
		{Path: PathLanding, Name: "landing", Load: load(deps, ViewLanding)},
		{Path: PathLogin, Name: "login", Load: load(deps, ViewLogin)},
		{Path: PathRegister, Name: "register", Load: load(deps, ViewRegister)},
		{Path: PathDashboard, Name: "dashboard", Load: load(deps, ViewDashboard), RequiresAuth: true},
		{Path: PathChatbot, Name: "chatbot", Load: load(deps, ViewChatbot), RequiresAuth: true},
		{Path: PathCreateChatbot, Name: "create-chatbot", Load: load(deps, ViewCreateChatbot), RequiresAuth: true},
		{Path: PathCreatorChats, Name: "creator-chats", Load: load(deps, ViewCreatorChats), RequiresAuth: true},
		{Path: PathLegacyChat, Redirect: PathDashboard},
	}
}

// load binds view to deps and hands it the session through the loader context.
func load(deps *AppDeps, view func(*AppDeps) navigation.Loader) navigation.Loader {
	next := view(deps)
	return func(ctx context.Context, m *navigation.Match) error {
		return next(session.WithState(ctx, deps.Session), m)
	}
}

// Router builds the guarded navigator for deps and stores it in deps.Navigator.
func Router(deps *AppDeps) (*navigation.Router, error) {
	r, err := navigation.NewRouter(Routes(deps),
		navigation.WithHook(navigation.Guard(deps.Session, PathLogin)),
	)
	if err != nil {
		return nil, err
	}

	deps.Navigator = r
	return r, nil
}
