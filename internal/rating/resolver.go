package rating

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"go.uber.org/zap"
)

// Rating is an integer proficiency score; it drives quiz difficulty.
type Rating int

// ErrNoRating means the scoring output carried no number on its last line.
var ErrNoRating = errors.New("rating: no number in scoring output")

// ServiceError is returned when the scoring service itself failed, so callers
// can tell "unreachable" apart from "answered with garbage".
type ServiceError struct {
	Reason  string
	Wrapped error
}

func (e *ServiceError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("rating service failed: %s: %v", e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("rating service failed: %s", e.Reason)
}

func (e *ServiceError) Unwrap() error {
	return e.Wrapped
}

var digitRun = regexp.MustCompile(`\d+`)

type Resolver struct {
	scorer Scorer
	logger *zap.Logger
}

func NewResolver(scorer Scorer, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{scorer: scorer, logger: logger}
}

// Resolve sends profile to the scoring service and parses the rating out of
// the first digit run on the last output line.
func (r *Resolver) Resolve(ctx context.Context, profile StudentProfile) (Rating, error) {
	lines, err := r.scorer.Score(ctx, profile)
	if err != nil {
		r.logger.Warn("scoring service call failed", zap.Error(err))
		return 0, &ServiceError{Reason: "score profile", Wrapped: err}
	}

	rating, err := ParseRating(lines)
	if err != nil {
		r.logger.Warn("scoring output has no rating", zap.Strings("lines", lines))
		return 0, err
	}

	r.logger.Info("rating resolved", zap.Int("rating", int(rating)))
	return rating, nil
}

// ParseRating extracts the rating from the last line of lines.
func ParseRating(lines []string) (Rating, error) {
	if len(lines) == 0 {
		return 0, ErrNoRating
	}

	match := digitRun.FindString(lines[len(lines)-1])
	if match == "" {
		return 0, ErrNoRating
	}

	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoRating, err)
	}
	return Rating(n), nil
}
