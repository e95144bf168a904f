package model

import (
	"context"
	"fmt"

	"cadence/src-server/recurring"

	"github.com/uptrace/bun"
)

// EventOverride changes the content or visibility of one occurrence.
// (series_id, occurrence_date) is unique; rows are never deleted.
type EventOverride struct {
	bun.BaseModel `bun:"table:event_overrides"`

	ID             string `bun:"id,pk" json:"id"`                                                         // required
	SeriesID       string `bun:"series_id,notnull,unique:series_occurrence" json:"series_id"`             // required
	OccurrenceDate string `bun:"occurrence_date,notnull,unique:series_occurrence" json:"occurrence_date"` // required
	Title          string `bun:"title" json:"title,omitempty"`
	StartTime      string `bun:"start_time" json:"start_time,omitempty"`
	EndTime        string `bun:"end_time" json:"end_time,omitempty"`
	Location       string `bun:"location" json:"location,omitempty"`
	Description    string `bun:"description" json:"description,omitempty"`
	IsCancelled    bool   `bun:"is_cancelled,notnull" json:"is_cancelled"`
	IsCompleted    bool   `bun:"is_completed,notnull" json:"is_completed"`

	Series *EventSeries `bun:"rel:belongs-to,join:series_id=id" json:"-"`
}

func (o *EventOverride) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case o.ID == "":
		return fmt.Errorf("(*EventOverride).Upsert: id is blank")
	case o.SeriesID == "":
		return fmt.Errorf("(*EventOverride).Upsert: series id is blank")
	case !validDate(o.OccurrenceDate):
		return fmt.Errorf("(*EventOverride).Upsert: occurrence date %q is not YYYY-MM-DD", o.OccurrenceDate)
	case o.StartTime != "" && !validTimeOfDay(o.StartTime):
		return fmt.Errorf("(*EventOverride).Upsert: start time %q is invalid", o.StartTime)
	case o.EndTime != "" && !validTimeOfDay(o.EndTime):
		return fmt.Errorf("(*EventOverride).Upsert: end time %q is invalid", o.EndTime)
	}
	o.StartTime = canonicalTimeOfDay(o.StartTime)
	o.EndTime = canonicalTimeOfDay(o.EndTime)

	// the id of an existing row is kept
	if _, err := db.NewInsert().
		Model(o).
		On("CONFLICT (series_id, occurrence_date) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("start_time = EXCLUDED.start_time").
		Set("end_time = EXCLUDED.end_time").
		Set("location = EXCLUDED.location").
		Set("description = EXCLUDED.description").
		Set("is_cancelled = EXCLUDED.is_cancelled").
		Set("is_completed = EXCLUDED.is_completed").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*EventOverride).Upsert: %w", err)
	}

	return nil
}

func (o *EventOverride) ToRecurring() (recurring.Override, error) {
	date, err := recurring.ParseDate(o.OccurrenceDate)
	if err != nil {
		return recurring.Override{}, fmt.Errorf("(*EventOverride).ToRecurring: %w", err)
	}
	return recurring.Override{
		ID:             o.ID,
		SeriesID:       o.SeriesID,
		OccurrenceDate: date,
		Title:          o.Title,
		StartTime:      o.StartTime,
		EndTime:        o.EndTime,
		Location:       o.Location,
		Description:    o.Description,
		IsCancelled:    o.IsCancelled,
		IsCompleted:    o.IsCompleted,
	}, nil
}
