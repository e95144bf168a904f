package model

import (
	"context"
	"fmt"
	"time"

	"cadence/src-server/recurring"

	"github.com/uptrace/bun"
)

// RecurringCandidate is a persisted suggestion. (owner_id, cluster_key) is
// unique so repeated detection runs update rather than duplicate.
type RecurringCandidate struct {
	bun.BaseModel `bun:"table:recurring_candidates"`

	ID              string   `bun:"id,pk" json:"id"`                                             // required
	OwnerID         string   `bun:"owner_id,notnull,unique:owner_cluster" json:"owner_id"`       // required
	ClusterKey      string   `bun:"cluster_key,notnull,unique:owner_cluster" json:"cluster_key"` // required
	EventIDs        []string `bun:"event_ids,type:json" json:"event_ids"`
	DetectedPattern string   `bun:"detected_pattern,notnull" json:"detected_pattern"`
	ConfidenceScore float64  `bun:"confidence_score,notnull" json:"confidence_score"`
	Title           string   `bun:"title,notnull" json:"title"`
	NormalizedTitle string   `bun:"normalized_title" json:"normalized_title"`
	StartTime       string   `bun:"start_time" json:"start_time,omitempty"`
	Location        string   `bun:"location" json:"location,omitempty"`
	OccurrenceDates []string `bun:"occurrence_dates,type:json" json:"occurrence_dates"`
	SuggestedRRule  string   `bun:"suggested_rrule,notnull" json:"suggested_rrule"`
	Status          string   `bun:"status,notnull" json:"status"`

	CreatedAt int64 `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt int64 `bun:"updated_at" json:"updated_at,omitempty"`
}

func (c *RecurringCandidate) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case c.ID == "":
		return fmt.Errorf("(*RecurringCandidate).Upsert: id is blank")
	case c.OwnerID == "":
		return fmt.Errorf("(*RecurringCandidate).Upsert: owner id is blank")
	case c.ClusterKey == "":
		return fmt.Errorf("(*RecurringCandidate).Upsert: cluster key is blank")
	case c.ConfidenceScore < 0 || c.ConfidenceScore > 1:
		return fmt.Errorf("(*RecurringCandidate).Upsert: confidence %v out of [0,1]", c.ConfidenceScore)
	case !validStatus(c.Status):
		return fmt.Errorf("(*RecurringCandidate).Upsert: unknown status %q", c.Status)
	}
	if _, err := recurring.ParseRule(c.SuggestedRRule); err != nil {
		return fmt.Errorf("(*RecurringCandidate).Upsert: %w", err)
	}
	for _, date := range c.OccurrenceDates {
		if !validDate(date) {
			return fmt.Errorf("(*RecurringCandidate).Upsert: occurrence date %q is not YYYY-MM-DD", date)
		}
	}

	now := time.Now().UTC().Unix()
	if c.CreatedAt == 0 {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	// id, status and created_at of an existing row are kept
	if _, err := db.NewInsert().
		Model(c).
		On("CONFLICT (owner_id, cluster_key) DO UPDATE").
		Set("event_ids = EXCLUDED.event_ids").
		Set("detected_pattern = EXCLUDED.detected_pattern").
		Set("confidence_score = EXCLUDED.confidence_score").
		Set("title = EXCLUDED.title").
		Set("normalized_title = EXCLUDED.normalized_title").
		Set("start_time = EXCLUDED.start_time").
		Set("location = EXCLUDED.location").
		Set("occurrence_dates = EXCLUDED.occurrence_dates").
		Set("suggested_rrule = EXCLUDED.suggested_rrule").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*RecurringCandidate).Upsert: %w", err)
	}

	return nil
}

func (c *RecurringCandidate) FromRecurring(candidate recurring.Candidate) {
	c.ID = candidate.ID
	c.OwnerID = candidate.OwnerID
	c.ClusterKey = candidate.ClusterKey
	c.EventIDs = candidate.EventIDs
	c.DetectedPattern = string(candidate.DetectedPattern)
	c.ConfidenceScore = candidate.ConfidenceScore
	c.Title = candidate.Title
	c.NormalizedTitle = candidate.NormalizedTitle
	c.StartTime = candidate.StartTime
	c.Location = candidate.Location
	c.OccurrenceDates = formatDates(candidate.OccurrenceDates)
	c.SuggestedRRule = candidate.SuggestedRRule
	c.Status = string(candidate.Status)
}

func validStatus(status string) bool {
	switch recurring.Status(status) {
	case recurring.StatusPending, recurring.StatusAccepted, recurring.StatusRejected:
		return true
	}
	return false
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, date := range dates {
		out[i] = date.Format(recurring.DateLayout)
	}
	return out
}

func parseDates(dates []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(dates))
	for _, s := range dates {
		date, err := recurring.ParseDate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, date)
	}
	return out, nil
}
