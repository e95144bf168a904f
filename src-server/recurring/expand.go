package recurring

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xyedo/rrule"
)

// MaxOccurrencesPerSeries caps a single expansion.
const MaxOccurrencesPerSeries = 5000

var ErrTooManyOccurrences = errors.New("recurrence expands to too many occurrences")

// Expand turns a series and its per-date overrides into concrete occurrences,
// ascending by date. UNTIL inside the rule takes precedence over the series'
// stored until date. Exception dates produce nothing; an override only changes
// the content or flags of a date the rule already generates.
//
// A rule that does not parse is returned as an error wrapping
// ErrMalformedRule rather than as an empty expansion.
func Expand(series Series, overrides []Override) ([]Occurrence, error) {
	rule, err := ParseRule(series.RRule)
	if err != nil {
		return nil, fmt.Errorf("Expand: series %s: %w", series.ID, err)
	}

	dates, err := GenerateDates(series, rule)
	if err != nil {
		return nil, fmt.Errorf("Expand: series %s: %w", series.ID, err)
	}

	overrideByDate := make(map[string]*Override, len(overrides))
	for i := range overrides {
		overrideByDate[overrides[i].OccurrenceDate.Format(DateLayout)] = &overrides[i]
	}

	occurrences := make([]Occurrence, 0, len(dates))
	for _, date := range dates {
		occurrence := Occurrence{
			Date:        date,
			StartTime:   series.StartTime,
			EndTime:     series.EndTime,
			Title:       series.Title,
			Location:    series.Location,
			Description: series.Description,
		}
		if override, ok := overrideByDate[date.Format(DateLayout)]; ok {
			occurrence.StartTime = orDefault(override.StartTime, series.StartTime)
			occurrence.EndTime = orDefault(override.EndTime, series.EndTime)
			occurrence.Title = orDefault(override.Title, series.Title)
			occurrence.Location = orDefault(override.Location, series.Location)
			occurrence.Description = orDefault(override.Description, series.Description)
			occurrence.IsCancelled = override.IsCancelled
			occurrence.IsCompleted = override.IsCompleted
			occurrence.Override = override
		}
		occurrences = append(occurrences, occurrence)
	}
	return occurrences, nil
}

// GenerateDates lists the dates rule produces for series, ascending, with
// exception dates removed. Overrides play no part here.
func GenerateDates(series Series, rule Rule) ([]time.Time, error) {
	start := Day(series.StartDate)
	until := Day(series.UntilDate)
	if !rule.Until.IsZero() {
		until = Day(rule.Until)
	}
	if series.UntilDate.IsZero() && rule.Until.IsZero() {
		until = start
	}

	excluded := make(map[string]struct{}, len(series.Exdates))
	for _, exdate := range series.Exdates {
		excluded[exdate.Format(DateLayout)] = struct{}{}
	}

	var candidates []time.Time
	var err error
	switch rule.Freq {
	case FreqWeekly, FreqBiweekly:
		candidates, err = weeklyDates(rule, start, until)
	case FreqDaily:
		candidates, err = dailyDates(rule, start, until)
	case FreqMonthly:
		candidates, err = monthlyDates(rule, start, until)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, rule.Freq)
	}
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, date := range candidates {
		key := date.Format(DateLayout)
		if _, ok := excluded[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// weeklyDates walks 7*interval-day windows anchored at start. BIWEEKLY always
// steps two weeks regardless of INTERVAL.
func weeklyDates(rule Rule, start, until time.Time) ([]time.Time, error) {
	interval := rule.Interval
	if rule.Freq == FreqBiweekly {
		interval = 2
	}
	targets := []time.Weekday{start.Weekday()}
	if len(rule.ByDay) > 0 {
		targets = targets[:0]
		for _, code := range rule.ByDay {
			targets = append(targets, weekdayIndex(code))
		}
	}

	dates := make([]time.Time, 0)
	for window := start; !window.After(until); window = window.AddDate(0, 0, 7*interval) {
		for _, target := range targets {
			offset := (int(target) - int(window.Weekday()) + 7) % 7
			date := window.AddDate(0, 0, offset)
			if date.Before(start) || date.After(until) {
				continue
			}
			dates = append(dates, date)
			if len(dates) > MaxOccurrencesPerSeries {
				return nil, ErrTooManyOccurrences
			}
		}
	}
	return dates, nil
}

func dailyDates(rule Rule, start, until time.Time) ([]time.Time, error) {
	dates := make([]time.Time, 0)
	for date := start; !date.After(until); date = date.AddDate(0, 0, rule.Interval) {
		dates = append(dates, date)
		if len(dates) > MaxOccurrencesPerSeries {
			return nil, ErrTooManyOccurrences
		}
	}
	return dates, nil
}

// monthlyDates repeats the start date's day of month. Months lacking that day
// are skipped, as RFC 5545 does for a plain FREQ=MONTHLY.
func monthlyDates(rule Rule, start, until time.Time) ([]time.Time, error) {
	if until.Before(start) {
		return nil, nil
	}
	var sb strings.Builder
	sb.WriteString("DTSTART:" + start.Format("20060102T150405Z"))
	sb.WriteString(fmt.Sprintf("\nRRULE:FREQ=MONTHLY;INTERVAL=%d;UNTIL=%s", rule.Interval, until.Format("20060102T150405Z")))

	rruleSet, err := rrule.StrToRRuleSet(sb.String())
	if err != nil {
		return nil, fmt.Errorf("monthlyDates: %w", err)
	}
	all := rruleSet.All()
	if len(all) > MaxOccurrencesPerSeries {
		return nil, ErrTooManyOccurrences
	}
	dates := make([]time.Time, 0, len(all))
	for _, t := range all {
		dates = append(dates, Day(t))
	}
	return dates, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
