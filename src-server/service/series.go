package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cadence/src-server/model"
	"cadence/src-server/recurring"
)

// OverrideFields is the replacement content of one occurrence. Blank strings
// keep the series default.
type OverrideFields struct {
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location"`
	Description string `json:"description"`
	IsCancelled bool   `json:"is_cancelled"`
	IsCompleted bool   `json:"is_completed"`
}

func (r *Recurring) series(ctx context.Context, ownerID, id string) (*model.EventSeries, error) {
	series, err := r.repo.GetSeries(ctx, id)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrSeriesNotFound, id)
	case err != nil:
		return nil, err
	case series.OwnerID != ownerID:
		return nil, fmt.Errorf("%w: %s", ErrSeriesNotFound, id)
	}
	return series, nil
}

// ListSeries returns an owner's active series ordered by start date.
func (r *Recurring) ListSeries(ctx context.Context, ownerID string) ([]model.EventSeries, error) {
	series, err := r.repo.ListSeries(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("(*Recurring).ListSeries: %w", err)
	}
	return series, nil
}

// GetOccurrences expands a series with its overrides applied. A stored rule
// that no longer parses comes back as an error wrapping
// recurring.ErrMalformedRule.
func (r *Recurring) GetOccurrences(ctx context.Context, ownerID, seriesID string) ([]recurring.Occurrence, error) {
	series, err := r.series(ctx, ownerID, seriesID)
	if err != nil {
		return nil, fmt.Errorf("(*Recurring).GetOccurrences: %w", err)
	}
	definition, err := series.ToRecurring()
	if err != nil {
		return nil, fmt.Errorf("(*Recurring).GetOccurrences: %w", err)
	}

	overrides := make([]recurring.Override, 0, len(series.Overrides))
	for _, row := range series.Overrides {
		override, err := row.ToRecurring()
		if err != nil {
			return nil, fmt.Errorf("(*Recurring).GetOccurrences: %w", err)
		}
		overrides = append(overrides, override)
	}

	occurrences, err := recurring.Expand(definition, overrides)
	if err != nil {
		return nil, fmt.Errorf("(*Recurring).GetOccurrences: %w", err)
	}
	return occurrences, nil
}

// generates reports whether the series' rule produces date.
func generates(series *model.EventSeries, date time.Time) (bool, error) {
	definition, err := series.ToRecurring()
	if err != nil {
		return false, err
	}
	rule, err := recurring.ParseRule(definition.RRule)
	if err != nil {
		return false, err
	}
	dates, err := recurring.GenerateDates(definition, rule)
	if err != nil {
		return false, err
	}
	day := recurring.Day(date)
	i := sort.Search(len(dates), func(i int) bool { return !dates[i].Before(day) })
	return i < len(dates) && dates[i].Equal(day), nil
}

// UpsertOverride replaces the content of the occurrence on date. The date must
// be one the series generates; overrides never add dates.
func (r *Recurring) UpsertOverride(ctx context.Context, ownerID, seriesID string, date time.Time, fields OverrideFields) (*model.EventOverride, error) {
	var override *model.EventOverride
	if err := r.repo.InTx(ctx, func(ctx context.Context) error {
		var err error
		override, err = r.upsertOverride(ctx, ownerID, seriesID, date, func(*model.EventOverride) OverrideFields {
			return fields
		})
		return err
	}); err != nil {
		return nil, fmt.Errorf("(*Recurring).UpsertOverride: %w", err)
	}
	return override, nil
}

// CancelOccurrence flags the occurrence on date cancelled and keeps any
// content already overridden for it.
func (r *Recurring) CancelOccurrence(ctx context.Context, ownerID, seriesID string, date time.Time) (*model.EventOverride, error) {
	var override *model.EventOverride
	if err := r.repo.InTx(ctx, func(ctx context.Context) error {
		var err error
		override, err = r.upsertOverride(ctx, ownerID, seriesID, date, func(existing *model.EventOverride) OverrideFields {
			fields := OverrideFields{IsCancelled: true}
			if existing != nil {
				fields.Title = existing.Title
				fields.StartTime = existing.StartTime
				fields.EndTime = existing.EndTime
				fields.Location = existing.Location
				fields.Description = existing.Description
				fields.IsCompleted = existing.IsCompleted
			}
			return fields
		})
		return err
	}); err != nil {
		return nil, fmt.Errorf("(*Recurring).CancelOccurrence: %w", err)
	}
	return override, nil
}

func (r *Recurring) upsertOverride(
	ctx context.Context,
	ownerID, seriesID string,
	date time.Time,
	build func(existing *model.EventOverride) OverrideFields,
) (*model.EventOverride, error) {
	series, err := r.series(ctx, ownerID, seriesID)
	if err != nil {
		return nil, err
	}
	ok, err := generates(series, date)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDateNotInSeries, date.Format(recurring.DateLayout))
	}

	rows, err := r.repo.ListOverrides(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	key := recurring.Day(date).Format(recurring.DateLayout)
	var existing *model.EventOverride
	for i := range rows {
		if rows[i].OccurrenceDate == key {
			existing = &rows[i]
			break
		}
	}

	fields := build(existing)
	override := &model.EventOverride{
		ID:             r.newID(),
		SeriesID:       seriesID,
		OccurrenceDate: key,
		Title:          fields.Title,
		StartTime:      fields.StartTime,
		EndTime:        fields.EndTime,
		Location:       fields.Location,
		Description:    fields.Description,
		IsCancelled:    fields.IsCancelled,
		IsCompleted:    fields.IsCompleted,
	}
	if existing != nil {
		override.ID = existing.ID
	}
	if err := r.repo.UpsertOverride(ctx, override); err != nil {
		return nil, err
	}
	return override, nil
}

// AddExdate removes date from the series entirely. Only dates the rule
// generates can be excluded; adding the same date twice is a no-op.
func (r *Recurring) AddExdate(ctx context.Context, ownerID, seriesID string, date time.Time) (*model.EventSeries, error) {
	var series *model.EventSeries
	if err := r.repo.InTx(ctx, func(ctx context.Context) error {
		var err error
		series, err = r.series(ctx, ownerID, seriesID)
		if err != nil {
			return err
		}
		key := recurring.Day(date).Format(recurring.DateLayout)
		for _, exdate := range series.Exdates {
			if exdate == key {
				return nil
			}
		}
		ok, err := generates(series, date)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrDateNotInSeries, key)
		}
		series.Exdates = append(series.Exdates, key)
		sort.Strings(series.Exdates)
		return r.repo.UpdateSeries(ctx, series)
	}); err != nil {
		return nil, fmt.Errorf("(*Recurring).AddExdate: %w", err)
	}
	return series, nil
}

// DeactivateSeries hides a series from listings. Its rows are kept.
func (r *Recurring) DeactivateSeries(ctx context.Context, ownerID, seriesID string) error {
	if err := r.repo.InTx(ctx, func(ctx context.Context) error {
		series, err := r.series(ctx, ownerID, seriesID)
		if err != nil {
			return err
		}
		series.IsActive = false
		return r.repo.UpdateSeries(ctx, series)
	}); err != nil {
		return fmt.Errorf("(*Recurring).DeactivateSeries: %w", err)
	}
	return nil
}
