package model

import (
	"context"
	"fmt"
	"time"

	"cadence/src-server/recurring"

	"github.com/uptrace/bun"
)

// EventSeries is an accepted recurrence definition. RRule must always parse
// under recurring.ParseRule; Exdates stay a subset of the dates it generates.
type EventSeries struct {
	bun.BaseModel `bun:"table:event_series"`

	ID              string   `bun:"id,pk" json:"id"`                  // required
	OwnerID         string   `bun:"owner_id,notnull" json:"owner_id"` // required
	Title           string   `bun:"title,notnull" json:"title"`       // required
	NormalizedTitle string   `bun:"normalized_title" json:"normalized_title"`
	Description     string   `bun:"description" json:"description,omitempty"`
	StartDate       string   `bun:"start_date,notnull" json:"start_date"` // required
	UntilDate       string   `bun:"until_date,notnull" json:"until_date"` // required
	StartTime       string   `bun:"start_time" json:"start_time,omitempty"`
	EndTime         string   `bun:"end_time" json:"end_time,omitempty"`
	Location        string   `bun:"location" json:"location,omitempty"`
	Category        string   `bun:"category" json:"category,omitempty"`
	Priority        string   `bun:"priority" json:"priority,omitempty"`
	RRule           string   `bun:"rrule,notnull" json:"rrule"` // required
	Exdates         []string `bun:"exdates,type:json" json:"exdates"`
	Source          string   `bun:"source,notnull" json:"source"`
	IsActive        bool     `bun:"is_active,notnull" json:"is_active"`

	CreatedAt int64 `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt int64 `bun:"updated_at" json:"updated_at,omitempty"`

	Overrides []*EventOverride `bun:"rel:has-many,join:id=series_id" json:"-"`
}

func (s *EventSeries) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case s.ID == "":
		return fmt.Errorf("(*EventSeries).Upsert: id is blank")
	case s.OwnerID == "":
		return fmt.Errorf("(*EventSeries).Upsert: owner id is blank")
	case s.Title == "":
		return fmt.Errorf("(*EventSeries).Upsert: title is blank")
	case !validDate(s.StartDate):
		return fmt.Errorf("(*EventSeries).Upsert: start date %q is not YYYY-MM-DD", s.StartDate)
	case !validDate(s.UntilDate):
		return fmt.Errorf("(*EventSeries).Upsert: until date %q is not YYYY-MM-DD", s.UntilDate)
	case s.UntilDate < s.StartDate:
		return fmt.Errorf("(*EventSeries).Upsert: until date is before start date")
	case s.StartTime != "" && !validTimeOfDay(s.StartTime):
		return fmt.Errorf("(*EventSeries).Upsert: start time %q is invalid", s.StartTime)
	case s.EndTime != "" && !validTimeOfDay(s.EndTime):
		return fmt.Errorf("(*EventSeries).Upsert: end time %q is invalid", s.EndTime)
	}
	s.StartTime = canonicalTimeOfDay(s.StartTime)
	s.EndTime = canonicalTimeOfDay(s.EndTime)
	switch recurring.Source(s.Source) {
	case recurring.SourceManual, recurring.SourceExtracted, recurring.SourceDetected:
	default:
		return fmt.Errorf("(*EventSeries).Upsert: unknown source %q", s.Source)
	}
	if _, err := recurring.ParseRule(s.RRule); err != nil {
		return fmt.Errorf("(*EventSeries).Upsert: %w", err)
	}
	if _, err := parseDates(s.Exdates); err != nil {
		return fmt.Errorf("(*EventSeries).Upsert: exdates: %w", err)
	}
	if s.Exdates == nil {
		s.Exdates = []string{}
	}

	now := time.Now().UTC().Unix()
	if s.CreatedAt == 0 {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	if _, err := db.NewInsert().
		Model(s).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("normalized_title = EXCLUDED.normalized_title").
		Set("description = EXCLUDED.description").
		Set("start_date = EXCLUDED.start_date").
		Set("until_date = EXCLUDED.until_date").
		Set("start_time = EXCLUDED.start_time").
		Set("end_time = EXCLUDED.end_time").
		Set("location = EXCLUDED.location").
		Set("category = EXCLUDED.category").
		Set("priority = EXCLUDED.priority").
		Set("rrule = EXCLUDED.rrule").
		Set("exdates = EXCLUDED.exdates").
		Set("is_active = EXCLUDED.is_active").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*EventSeries).Upsert: %w", err)
	}

	return nil
}

// ToRecurring converts the row into the expander's input shape.
func (s *EventSeries) ToRecurring() (recurring.Series, error) {
	start, err := recurring.ParseDate(s.StartDate)
	if err != nil {
		return recurring.Series{}, fmt.Errorf("(*EventSeries).ToRecurring: start date: %w", err)
	}
	until, err := recurring.ParseDate(s.UntilDate)
	if err != nil {
		return recurring.Series{}, fmt.Errorf("(*EventSeries).ToRecurring: until date: %w", err)
	}
	exdates, err := parseDates(s.Exdates)
	if err != nil {
		return recurring.Series{}, fmt.Errorf("(*EventSeries).ToRecurring: exdates: %w", err)
	}
	return recurring.Series{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		StartDate:   start,
		UntilDate:   until,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Location:    s.Location,
		RRule:       s.RRule,
		Exdates:     exdates,
	}, nil
}
