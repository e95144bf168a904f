package model

import (
	"context"
	"fmt"
	"time"

	"cadence/src-server/recurring"

	"github.com/uptrace/bun"
)

type CalendarEvent struct {
	bun.BaseModel `bun:"table:calendar_events"`

	ID          string `bun:"id,pk" json:"id"`                      // required
	OwnerID     string `bun:"owner_id,notnull" json:"owner_id"`     // required
	Title       string `bun:"title,notnull" json:"title"`           // required
	EventDate   string `bun:"event_date,notnull" json:"event_date"` // required, YYYY-MM-DD
	Description string `bun:"description" json:"description,omitempty"`
	StartTime   string `bun:"start_time" json:"start_time,omitempty"`
	EndTime     string `bun:"end_time" json:"end_time,omitempty"`
	Location    string `bun:"location" json:"location,omitempty"`
	Category    string `bun:"category" json:"category,omitempty"`
	Priority    string `bun:"priority" json:"priority,omitempty"`

	// blank for standalone events
	SeriesID string `bun:"series_id" json:"series_id,omitempty"`

	CreatedAt int64 `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt int64 `bun:"updated_at" json:"updated_at,omitempty"`
}

func (e *CalendarEvent) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case e.ID == "":
		return fmt.Errorf("(*CalendarEvent).Upsert: id is blank")
	case e.OwnerID == "":
		return fmt.Errorf("(*CalendarEvent).Upsert: owner id is blank")
	case e.Title == "":
		return fmt.Errorf("(*CalendarEvent).Upsert: title is blank")
	case !validDate(e.EventDate):
		return fmt.Errorf("(*CalendarEvent).Upsert: event date %q is not YYYY-MM-DD", e.EventDate)
	case e.StartTime != "" && !validTimeOfDay(e.StartTime):
		return fmt.Errorf("(*CalendarEvent).Upsert: start time %q is invalid", e.StartTime)
	case e.EndTime != "" && !validTimeOfDay(e.EndTime):
		return fmt.Errorf("(*CalendarEvent).Upsert: end time %q is invalid", e.EndTime)
	}
	e.StartTime = canonicalTimeOfDay(e.StartTime)
	e.EndTime = canonicalTimeOfDay(e.EndTime)
	if e.StartTime != "" && e.EndTime != "" {
		start, _ := parseTimeOfDay(e.StartTime)
		end, _ := parseTimeOfDay(e.EndTime)
		if end.Before(start) {
			return fmt.Errorf("(*CalendarEvent).Upsert: start time must be before end time")
		}
	}

	now := time.Now().UTC().Unix()
	if e.CreatedAt == 0 {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	if _, err := db.NewInsert().
		Model(e).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("event_date = EXCLUDED.event_date").
		Set("description = EXCLUDED.description").
		Set("start_time = EXCLUDED.start_time").
		Set("end_time = EXCLUDED.end_time").
		Set("location = EXCLUDED.location").
		Set("category = EXCLUDED.category").
		Set("priority = EXCLUDED.priority").
		Set("series_id = EXCLUDED.series_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*CalendarEvent).Upsert: %w", err)
	}

	return nil
}

// ToRecurring converts the row into the detector's input shape.
func (e *CalendarEvent) ToRecurring() (recurring.Event, error) {
	date, err := recurring.ParseDate(e.EventDate)
	if err != nil {
		return recurring.Event{}, fmt.Errorf("(*CalendarEvent).ToRecurring: %w", err)
	}
	return recurring.Event{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Date:        date,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		Category:    e.Category,
		Priority:    e.Priority,
	}, nil
}

func validDate(s string) bool {
	_, err := recurring.ParseDate(s)
	return err == nil
}

func validTimeOfDay(s string) bool {
	_, ok := parseTimeOfDay(s)
	return ok
}

// canonicalTimeOfDay zero-pads a valid time to HH:MM, or HH:MM:SS when it has
// seconds. Blank and invalid input come back unchanged.
func canonicalTimeOfDay(s string) string {
	t, ok := parseTimeOfDay(s)
	if !ok {
		return s
	}
	if t.Second() != 0 {
		return t.Format("15:04:05")
	}
	return t.Format("15:04")
}

// parseTimeOfDay accepts HH:MM and HH:MM:SS.
func parseTimeOfDay(s string) (time.Time, bool) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
