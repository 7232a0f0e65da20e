package handler

import (
	"context"

	"botclient/internal/app/storage"
)

// HandleWhoAmI prints the current identity, channel state and store health.
func HandleWhoAmI(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) error {
		if d, ok := deps.Store.(storage.Degradable); ok && d.Degraded() {
			say(deps.Out, warnColor, "storage: degraded, the session will not survive a restart\n")
		}

		id := deps.Session.Identity()
		if id.IsZero() {
			say(deps.Out, dimColor, "Not signed in.\n")
			return nil
		}

		say(deps.Out, okColor, "%s (id %s)\n", id.Username, id.UserID)
		if deps.Session.RolesEnabled() {
			role := id.Role
			if role == "" {
				role = "none"
			}
			say(deps.Out, dimColor, "role: %s, can create chatbots: %t\n", role, deps.Session.CanCreateChatbots())
		}
		say(deps.Out, dimColor, "channel: %s\n", deps.Realtime.State())
		return nil
	}
}
