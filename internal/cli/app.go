package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/session"
)

const (
	defaultListLimit   = 10
	defaultWaitTimeout = 2 * time.Minute
)

// Controller is the part of session.Controller the terminal drives.
type Controller interface {
	UpdateConfig(update session.ConfigUpdate) error
	ResolveRating(ctx context.Context) error
	Retry() error
	Reconnect()
	DismissError()
	Snapshot() session.Snapshot
	Wait(ctx context.Context) error
}

type Config struct {
	// Sessions is optional; without it the sessions command is unavailable.
	Sessions    session.Repository
	WaitTimeout time.Duration
}

// Run drives the controller from line-based input until the quiz is handed
// off, the input ends, or the user exits.
func Run(ctx context.Context, in io.Reader, out io.Writer, controller Controller, cfg Config) error {
	waitTimeout := cfg.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = defaultWaitTimeout
	}

	reader := bufio.NewReader(in)
	fmt.Fprintln(out, "quiz-cli")

	if controller.Snapshot().Rating == nil {
		fmt.Fprintln(out, "Fetching your rating...")
		resolveRating(ctx, out, controller)
	}
	if done := settle(ctx, out, controller, waitTimeout); done {
		return nil
	}

	fmt.Fprintln(out)
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		switch command {
		case "help":
			printHelp(out)
		case "exit", "quit":
			return nil
		case "categories":
			printChoices(out, "Categories", quiz.Categories())
		case "types":
			printChoices(out, "Question types", quiz.QuestionTypes())
		case "status":
			printStatus(out, controller.Snapshot())
		case "category", "type", "count":
			if len(args) != 2 {
				fmt.Fprintf(out, "usage: %s <value>\n", command)
				continue
			}
			update, parseErr := parseUpdate(command, args[1])
			if parseErr != nil {
				fmt.Fprintf(out, "error: %v\n", parseErr)
				continue
			}
			if err := controller.UpdateConfig(update); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			if settle(ctx, out, controller, waitTimeout) {
				return nil
			}
		case "dismiss":
			controller.DismissError()
			printStatus(out, controller.Snapshot())
		case "retry":
			if err := controller.Retry(); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			if settle(ctx, out, controller, waitTimeout) {
				return nil
			}
		case "retry-rating":
			resolveRating(ctx, out, controller)
			if settle(ctx, out, controller, waitTimeout) {
				return nil
			}
		case "reconnect":
			controller.Reconnect()
			if settle(ctx, out, controller, waitTimeout) {
				return nil
			}
		case "sessions":
			if cfg.Sessions == nil {
				fmt.Fprintln(out, "session history is not available.")
				continue
			}
			limit, parseErr := parsePositiveLimit(args, 1, defaultListLimit)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid sessions limit: %v\n", parseErr)
				continue
			}
			if err := runList(ctx, out, cfg.Sessions, limit); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
	}
}

func resolveRating(ctx context.Context, out io.Writer, controller Controller) {
	err := controller.ResolveRating(ctx)
	switch {
	case errors.Is(err, session.ErrRatingAlreadySet):
		fmt.Fprintln(out, "Rating is already set.")
	case errors.Is(err, session.ErrRatingInProgress):
		fmt.Fprintln(out, "Rating is still being resolved.")
	}
	// Other failures surface through the snapshot error banner.
}

// settle waits for a fetch in flight and prints the resulting status. It
// reports whether the quiz has been handed off.
func settle(ctx context.Context, out io.Writer, controller Controller, timeout time.Duration) bool {
	if controller.Snapshot().InFlight {
		fmt.Fprintln(out, "Loading questions...")
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := controller.Wait(waitCtx); err != nil {
		fmt.Fprintf(out, "still loading: %v\n", err)
	}

	snapshot := controller.Snapshot()
	printStatus(out, snapshot)
	return snapshot.State == session.StateHandedOff
}

func parseUpdate(command, value string) (session.ConfigUpdate, error) {
	switch command {
	case "category":
		return session.ConfigUpdate{Category: &value}, nil
	case "type":
		return session.ConfigUpdate{QuestionType: &value}, nil
	default:
		count, err := quiz.ParseQuestionCount(value)
		if err != nil {
			return session.ConfigUpdate{}, err
		}
		return session.ConfigUpdate{QuestionCount: &count}, nil
	}
}

func runList(ctx context.Context, out io.Writer, sessions session.Repository, limit int) error {
	items, err := sessions.ListSessions(ctx, limit)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "No sessions yet.")
		return nil
	}

	fmt.Fprintln(out, "Recent sessions:")
	for idx, item := range items {
		fmt.Fprintf(out, "%d. %s (%d questions, started %s, deadline %s)\n",
			idx+1,
			item.SessionID,
			item.QuestionCount,
			item.StartedAt.Format(time.RFC3339),
			item.Deadline.Format(time.RFC3339),
		)
	}
	return nil
}
