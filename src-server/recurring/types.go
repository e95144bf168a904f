// Package recurring detects repeating activities in a flat list of calendar
// events and expands accepted recurrence rules back into occurrences.
//
// Everything in here is pure: no I/O, no logging, no clock. Callers own the
// persistence and pass plain values in.
package recurring

import "time"

// DateLayout is the ISO calendar date format used for persisted dates.
const DateLayout = "2006-01-02"

type Frequency string

const (
	FreqDaily    Frequency = "DAILY"
	FreqWeekly   Frequency = "WEEKLY"
	FreqBiweekly Frequency = "BIWEEKLY"
	FreqMonthly  Frequency = "MONTHLY"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

type Source string

const (
	SourceManual    Source = "manual"
	SourceExtracted Source = "extracted"
	SourceDetected  Source = "detected"
)

// Event is a discrete calendar event as seen by the detector. Empty strings
// mean "absent" for StartTime, EndTime and Location.
type Event struct {
	ID          string
	Title       string
	Description string
	Date        time.Time
	StartTime   string
	EndTime     string
	Location    string
	Category    string
	Priority    string
}

// EventCluster groups events hypothesized to be instances of one activity.
// Dates is parallel to Events.
type EventCluster struct {
	NormalizedTitle string
	StartTime       string
	Location        string
	Events          []Event
	Dates           []time.Time
}

type PeriodicityPattern struct {
	Frequency  Frequency
	Interval   int
	ByDay      []string
	Confidence float64
}

// Candidate is a suggested recurrence awaiting a user's decision.
type Candidate struct {
	ID              string
	OwnerID         string
	ClusterKey      string
	EventIDs        []string
	DetectedPattern Frequency
	ConfidenceScore float64
	Title           string
	NormalizedTitle string
	StartTime       string
	Location        string
	OccurrenceDates []time.Time
	SuggestedRRule  string
	Status          Status
}

// Series is the recurrence definition the expander works from.
type Series struct {
	ID          string
	Title       string
	Description string
	StartDate   time.Time
	UntilDate   time.Time
	StartTime   string
	EndTime     string
	Location    string
	RRule       string
	Exdates     []time.Time
}

// Override replaces the content of, or cancels, one generated occurrence.
// Empty string fields fall back to the series defaults.
type Override struct {
	ID             string
	SeriesID       string
	OccurrenceDate time.Time
	Title          string
	StartTime      string
	EndTime        string
	Location       string
	Description    string
	IsCancelled    bool
	IsCompleted    bool
}

type Occurrence struct {
	Date        time.Time
	StartTime   string
	EndTime     string
	Title       string
	Location    string
	Description string
	IsCancelled bool
	IsCompleted bool
	Override    *Override
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
