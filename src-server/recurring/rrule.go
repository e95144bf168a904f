package recurring

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UntilLayout is the date format of the UNTIL clause.
const UntilLayout = "20060102"

// MaxInterval bounds INTERVAL so date stepping stays within time.Time range.
const MaxInterval = 1000

var (
	ErrMalformedRule        = errors.New("malformed recurrence rule")
	ErrUnsupportedFrequency = errors.New("unsupported recurrence frequency")
)

// Rule is the parsed form of the FREQ;INTERVAL;BYDAY;UNTIL grammar.
// A zero Until means the clause was absent.
type Rule struct {
	Freq     Frequency
	Interval int
	ByDay    []string
	Until    time.Time
}

// BuildRule renders pattern into the canonical rule string. Detected weekdays
// win over textCueDays; UNTIL is always emitted and never precedes startDate.
func BuildRule(pattern PeriodicityPattern, startDate, untilDate time.Time, textCueDays []string) string {
	rule := Rule{
		Freq:     pattern.Frequency,
		Interval: pattern.Interval,
		Until:    Day(untilDate),
	}
	switch {
	case len(pattern.ByDay) > 0:
		rule.ByDay = pattern.ByDay
	case len(textCueDays) > 0:
		rule.ByDay = textCueDays
	}
	if rule.Until.Before(Day(startDate)) {
		rule.Until = Day(startDate)
	}
	return rule.String()
}

func (r Rule) String() string {
	parts := []string{"FREQ=" + string(r.Freq)}
	if r.Interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(r.Interval))
	}
	if len(r.ByDay) > 0 {
		parts = append(parts, "BYDAY="+strings.Join(r.ByDay, ","))
	}
	if !r.Until.IsZero() {
		parts = append(parts, "UNTIL="+r.Until.Format(UntilLayout))
	}
	return strings.Join(parts, ";")
}

var ruleKeyOrder = map[string]int{"FREQ": 0, "INTERVAL": 1, "BYDAY": 2, "UNTIL": 3}

// ParseRule parses a rule string. Keys must appear at most once and in the
// order FREQ, INTERVAL, BYDAY, UNTIL; only FREQ is required.
func ParseRule(s string) (Rule, error) {
	rule := Rule{Interval: 1}
	if strings.TrimSpace(s) == "" {
		return rule, fmt.Errorf("%w: empty rule", ErrMalformedRule)
	}

	last := -1
	for _, part := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok || value == "" {
			return rule, fmt.Errorf("%w: bad clause %q", ErrMalformedRule, part)
		}
		pos, known := ruleKeyOrder[key]
		switch {
		case !known:
			return rule, fmt.Errorf("%w: unknown key %q", ErrMalformedRule, key)
		case pos <= last:
			return rule, fmt.Errorf("%w: key %q out of order or repeated", ErrMalformedRule, key)
		case last == -1 && key != "FREQ":
			return rule, fmt.Errorf("%w: rule must start with FREQ", ErrMalformedRule)
		}
		last = pos

		switch key {
		case "FREQ":
			switch freq := Frequency(value); freq {
			case FreqDaily, FreqWeekly, FreqBiweekly, FreqMonthly:
				rule.Freq = freq
			default:
				return rule, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, value)
			}
		case "INTERVAL":
			interval, err := strconv.Atoi(value)
			if err != nil || interval < 1 || interval > MaxInterval {
				return rule, fmt.Errorf("%w: bad interval %q", ErrMalformedRule, value)
			}
			rule.Interval = interval
		case "BYDAY":
			days := strings.Split(value, ",")
			for _, day := range days {
				if weekdayIndex(day) < 0 {
					return rule, fmt.Errorf("%w: bad weekday %q", ErrMalformedRule, day)
				}
			}
			rule.ByDay = days
		case "UNTIL":
			until, err := time.ParseInLocation(UntilLayout, value, time.UTC)
			if err != nil || len(value) != len(UntilLayout) {
				return rule, fmt.Errorf("%w: bad until %q", ErrMalformedRule, value)
			}
			rule.Until = until
		}
	}
	return rule, nil
}

// weekdayIndex maps a two-letter code to time.Weekday, or -1.
func weekdayIndex(code string) time.Weekday {
	for i, c := range weekdayCodes {
		if c == code {
			return time.Weekday(i)
		}
	}
	return -1
}
