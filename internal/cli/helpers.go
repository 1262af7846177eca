package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/session"
)

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  categories | types")
	fmt.Fprintln(out, "  category <id>")
	fmt.Fprintf(out, "  count <n>        (%d-%d, step %d)\n", quiz.MinQuestionCount, quiz.MaxQuestionCount, quiz.QuestionCountStep)
	fmt.Fprintln(out, "  type <id>")
	fmt.Fprintln(out, "  status")
	fmt.Fprintln(out, "  dismiss")
	fmt.Fprintln(out, "  retry")
	fmt.Fprintln(out, "  retry-rating")
	fmt.Fprintln(out, "  reconnect")
	fmt.Fprintln(out, "  sessions [limit]")
	fmt.Fprintln(out, "  exit")
}

func printChoices(out io.Writer, title string, choices []quiz.Choice) {
	fmt.Fprintf(out, "%s:\n", title)
	for _, choice := range choices {
		fmt.Fprintf(out, "  %-4s %s\n", choice.Value, choice.Text)
	}
}

func printStatus(out io.Writer, snapshot session.Snapshot) {
	if snapshot.Error != nil {
		fmt.Fprintf(out, "\n!! %s\n   (type 'dismiss' to clear)\n", snapshot.Error.Message)
	}

	switch snapshot.State {
	case session.StateOffline:
		fmt.Fprintln(out, "You appear to be offline. Type 'reconnect' once the connection is back.")
		return
	case session.StateHandedOff:
		if started := snapshot.Session; started != nil {
			fmt.Fprintf(out, "Quiz started: session %s, %d questions, %s to finish (deadline %s)\n",
				started.SessionID,
				started.QuestionCount,
				formatTimeLimit(snapshot.TimeLimit),
				started.Deadline.Format(time.RFC3339),
			)
		}
		return
	}

	cfg := snapshot.Config
	fmt.Fprintf(out, "Category:  %s\n", displayOrUnset(cfg.Category, quiz.CategoryName(cfg.Category)))
	count := countString(cfg.QuestionCount)
	fmt.Fprintf(out, "Questions: %s\n", displayOrUnset(count, count))
	fmt.Fprintf(out, "Type:      %s\n", displayOrUnset(cfg.QuestionType, quiz.QuestionTypeName(cfg.QuestionType)))
	if snapshot.Rating != nil {
		fmt.Fprintf(out, "Rating:    %d (%s, %s)\n", *snapshot.Rating, snapshot.Difficulty, formatTimeLimit(snapshot.TimeLimit))
	} else {
		fmt.Fprintln(out, "Rating:    not available")
	}
	if snapshot.InFlight {
		fmt.Fprintln(out, "Loading questions...")
	}
}

func formatTimeLimit(limit quiz.TimeLimit) string {
	return fmt.Sprintf("%02d:%02d:%02d", limit.Hours, limit.Minutes, limit.Seconds)
}

func countString(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func displayOrUnset(value, display string) string {
	if value == "" {
		return "(not set)"
	}
	return display
}

func parsePositiveLimit(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}
