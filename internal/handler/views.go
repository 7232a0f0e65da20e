package handler

import (
	"context"

	"botclient/internal/app/navigation"
	"botclient/internal/app/session"
	"botclient/internal/pkg/logx"
)

// maxTreePreview bounds how much of a chatbot tree is echoed.
const maxTreePreview = 200

// ViewLanding renders the public entry point.
func ViewLanding(deps *AppDeps) navigation.Loader {
	return func(ctx context.Context, m *navigation.Match) error {
		sess := session.FromContext(ctx)

		say(deps.Out, titleColor, "== Chatbots ==\n")
		if sess.IsAuthenticated() {
			say(deps.Out, dimColor, "Signed in as %s. Try 'go %s'.\n", sess.Identity().Username, PathDashboard)
			return nil
		}
		say(deps.Out, dimColor, "Type 'login <user> <password>' or 'signup <user> <email> <password>'.\n")
		return nil
	}
}

// ViewLogin renders the sign-in prompt.
func ViewLogin(deps *AppDeps) navigation.Loader {
	return func(ctx context.Context, m *navigation.Match) error {
		say(deps.Out, titleColor, "== Sign in ==\n")
		if id := session.FromContext(ctx).Identity(); !id.IsZero() {
			say(deps.Out, okColor, "Already signed in as %s.\n", id.Username)
			return nil
		}
		say(deps.Out, dimColor, "Usage: login <user> <password>\n")
		return nil
	}
}

// ViewRegister renders the sign-up prompt.
func ViewRegister(deps *AppDeps) navigation.Loader {
	return func(ctx context.Context, m *navigation.Match) error {
		say(deps.Out, titleColor, "== Sign up ==\n")
		if deps.API.Contract().Roles {
			say(deps.Out, dimColor, "Usage: signup <user> <email> <password> [user|creator]\n")
			return nil
		}
		say(deps.Out, dimColor, "Usage: signup <user> <email> <password>\n")
		return nil
	}
}

// ViewDashboard lists the chatbots, filtered by the "search" query parameter.
func ViewDashboard(deps *AppDeps) navigation.Loader {
	return func(ctx context.Context, m *navigation.Match) error {
		sess := session.FromContext(ctx)
		user := sess.Identity().UserID
		search := m.Query.Get("search")

		bots, err := deps.API.ListChatbots(ctx, search)

		// The session may have ended while the request was in flight.
		if sess.Identity().UserID != user {
			logx.Debug("Dropping stale chatbot list", "route", m.Name)
			return nil
		}
		if err != nil {
			printError(deps.Out, err)
			return nil
		}

		say(deps.Out, titleColor, "== Dashboard ==\n")
		if search != "" {
			say(deps.Out, dimColor, "Search: %q\n", search)
		}
		if len(bots) == 0 {
			say(deps.Out, dimColor, "No chatbots yet.\n")
		}
		for _, b := range bots {
			say(deps.Out, okColor, "  [%s] %s", b.ID, b.Title)
			if b.Description != "" {
				say(deps.Out, dimColor, " - %s", b.Description)
			}
			say(deps.Out, dimColor, "\n")
		}
		if sess.CanCreateChatbots() {
			say(deps.Out, dimColor, "You can create chatbots: 'go %s'.\n", PathCreateChatbot)
		}
		return nil
	}
}

// ViewChatbot shows one chatbot and opens the real-time channel.
func ViewChatbot(deps *AppDeps) navigation.Loader {
	return func(ctx context.Context, m *navigation.Match) error {
		sess := session.FromContext(ctx)
		user := sess.Identity().UserID
		id := m.Param("id")

		bot, err := deps.API.GetChatbot(ctx, id)

		if sess.Identity().UserID != user {
			logx.Debug("Dropping stale chatbot detail", "route", m.Name, "chatbot_id", id)
			return nil
		}
		if err != nil {
			printError(deps.Out, err)
			return nil
		}

		say(deps.Out, titleColor, "== %s ==\n", bot.Title)
		if bot.Description != "" {
			say(deps.Out, dimColor, "%s\n", bot.Description)
		}
		if bot.Visibility != "" {
			say(deps.Out, dimColor, "visibility: %s\n", bot.Visibility)
		}
		if tree := string(bot.Tree); tree != "" && tree != "null" {
			if len(tree) > maxTreePreview {
				tree = tree[:maxTreePreview] + "..."
			}
			say(deps.Out, dimColor, "tree: %s\n", tree)
		}

		conn := openChannel(deps)
		say(deps.Out, dimColor, "Channel %s. Use 'emit <event> [json]' to send.\n", conn.State())
		return nil
	}
}

// ViewCreateChatbot renders the creation prompt for privileged roles.
func ViewCreateChatbot(deps *AppDeps) navigation.Loader {
	return func(ctx context.Context, m *navigation.Match) error {
		say(deps.Out, titleColor, "== Create chatbot ==\n")
		if !session.FromContext(ctx).CanCreateChatbots() {
			// Display only; the server is the authority on who may create.
			say(deps.Out, warnColor, "Your account cannot create chatbots.\n")
			return nil
		}
		say(deps.Out, dimColor, "Describe the chatbot in the web console; this client only lists and chats.\n")
		return nil
	}
}

// ViewCreatorChats opens the channel to follow conversations with the creator's chatbots.
func ViewCreatorChats(deps *AppDeps) navigation.Loader {
	return func(ctx context.Context, m *navigation.Match) error {
		say(deps.Out, titleColor, "== Conversations ==\n")
		conn := openChannel(deps)
		say(deps.Out, dimColor, "Channel %s. Incoming events are printed as they arrive.\n", conn.State())
		return nil
	}
}
