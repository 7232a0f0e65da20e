package handler

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"botclient/internal/pkg/errs"
	"botclient/internal/pkg/logx"
)

// CommandFunc runs one command with the words that followed its name.
type CommandFunc func(ctx context.Context, args []string) error

// Command is one entry of the command table.
type Command struct {
	Usage string
	Help  string
	Run   CommandFunc
}

// errQuit ends the REPL.
var errQuit = errors.New("quit")

// Commands returns the command table bound to deps.
func Commands(deps *AppDeps) map[string]Command {
	cmds := map[string]Command{
		"login":   {Usage: "login <user> <password>", Help: "sign in", Run: HandleLogin(deps)},
		"signup":  {Usage: "signup <user> <email> <password> [role]", Help: "create an account", Run: HandleSignup(deps)},
		"logout":  {Usage: "logout", Help: "sign out and close the channel", Run: HandleLogout(deps)},
		"whoami":  {Usage: "whoami", Help: "show the current session", Run: HandleWhoAmI(deps)},
		"go":      {Usage: "go <path>", Help: "open a view, e.g. go /chatbot/7", Run: handleGo(deps)},
		"back":    {Usage: "back", Help: "previous view", Run: handleStep(deps, -1)},
		"forward": {Usage: "forward", Help: "next view", Run: handleStep(deps, 1)},
		"emit":    {Usage: "emit <event> [json]", Help: "send an event on the open channel", Run: HandleEmit(deps)},
		"quit":    {Usage: "quit", Help: "exit", Run: func(context.Context, []string) error { return errQuit }},
	}
	cmds["help"] = Command{Usage: "help", Help: "list commands", Run: handleHelp(deps, cmds)}
	return cmds
}

func handleGo(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) != 1 {
			return errs.NewError(errs.ErrUsage, "go <path>")
		}
		_, err := deps.Navigator.Navigate(ctx, args[0])
		return err
	}
}

func handleStep(deps *AppDeps, delta int) CommandFunc {
	return func(ctx context.Context, args []string) error {
		var err error
		if delta < 0 {
			_, err = deps.Navigator.Back(ctx)
		} else {
			_, err = deps.Navigator.Forward(ctx)
		}
		return err
	}
}

func handleHelp(deps *AppDeps, cmds map[string]Command) CommandFunc {
	return func(context.Context, []string) error {
		names := make([]string, 0, len(cmds))
		for name := range cmds {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			say(deps.Out, titleColor, "  %-42s", cmds[name].Usage)
			say(deps.Out, dimColor, "%s\n", cmds[name].Help)
		}
		return nil
	}
}

// Dispatch runs one input line against cmds. It reports quit as done == true.
func Dispatch(ctx context.Context, cmds map[string]Command, line string) (done bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	cmd, ok := cmds[strings.ToLower(fields[0])]
	if !ok {
		return false, errs.NewError(errs.ErrUnknownCommand, fields[0])
	}

	err = cmd.Run(ctx, fields[1:])
	if err == errQuit {
		return true, nil
	}
	return false, err
}

// RunREPL reads commands from in until EOF, "quit" or ctx is cancelled.
func RunREPL(ctx context.Context, deps *AppDeps, in io.Reader) error {
	cmds := Commands(deps)
	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	for {
		say(deps.Out, titleColor, "> ")

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}

			done, err := Dispatch(ctx, cmds, line)
			if err != nil {
				// Arguments may hold a password; log the command name only.
				logx.Debug("Command failed", "command", strings.Fields(line)[0], "error", err.Error())
				printError(deps.Out, err)
			}
			if done {
				return nil
			}
		}
	}
}
