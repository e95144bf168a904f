package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cadence/src-server/recurring"

	"github.com/olebedev/when"
)

var ErrUnreadableDate = errors.New("unreadable date")

// ParseDateInput reads a calendar date typed by a user: ISO YYYY-MM-DD first,
// then natural language such as "next monday" relative to now.
func ParseDateInput(parser *when.Parser, input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnreadableDate)
	}
	if date, err := recurring.ParseDate(input); err == nil {
		return date, nil
	}
	if parser == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnreadableDate, input)
	}

	result, err := parser.Parse(input, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnreadableDate, input, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnreadableDate, input)
	}
	return recurring.Day(result.Time), nil
}
