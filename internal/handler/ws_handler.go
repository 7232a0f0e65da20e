/*
Package handler provides the terminal views and commands of the client.

This file ties the chat views to the real-time channel: it opens the shared handle,
prints the events it delivers and lets the user emit events on it.
*/
package handler

import (
	"context"
	"encoding/json"
	"strings"

	"botclient/internal/app/realtime"
	"botclient/internal/pkg/errs"
)

// openChannel returns the shared handle and makes sure its events are printed.
func openChannel(deps *AppDeps) *realtime.Conn {
	conn := deps.Realtime.GetConnection()

	deps.watchMu.Lock()
	if deps.watching != conn.ID() {
		deps.watching = conn.ID()
		go watchEvents(deps, conn)
	}
	deps.watchMu.Unlock()

	return conn
}

// watchEvents prints every event of conn until the handle shuts down.
func watchEvents(deps *AppDeps, conn *realtime.Conn) {
	defer func() {
		deps.watchMu.Lock()
		if deps.watching == conn.ID() {
			deps.watching = ""
		}
		deps.watchMu.Unlock()
	}()

	for ev := range conn.Events() {
		switch ev.Kind {
		case realtime.EventConnect:
			say(deps.Out, okColor, "[channel] connected via %s\n", conn.Transport())
		case realtime.EventMessage:
			args := make([]string, len(ev.Args))
			for i, a := range ev.Args {
				args[i] = string(a)
			}
			say(deps.Out, eventColor, "[%s] %s\n", ev.Name, strings.Join(args, " "))
		case realtime.EventDisconnect:
			say(deps.Out, warnColor, "[channel] disconnected\n")
		case realtime.EventError:
			say(deps.Out, errColor, "[channel] %v\n", ev.Err)
		}
	}
}

// HandleEmit sends "emit <event> [json]" on the open channel. It never opens one:
// the channel belongs to the chat views.
func HandleEmit(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) < 1 {
			return errs.NewError(errs.ErrUsage, "emit <event> [json]")
		}
		conn := deps.Realtime.Current()
		if !deps.Session.IsAuthenticated() || conn == nil {
			return errs.NewError(errs.ErrConnectionClosed)
		}

		var payload []any
		if len(args) > 1 {
			raw := strings.Join(args[1:], " ")
			if json.Valid([]byte(raw)) {
				payload = append(payload, json.RawMessage(raw))
			} else {
				payload = append(payload, raw)
			}
		}

		if err := conn.Emit(ctx, args[0], payload...); err != nil {
			return err
		}
		say(deps.Out, dimColor, "sent %s\n", args[0])
		return nil
	}
}
