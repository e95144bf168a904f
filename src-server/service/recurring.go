// Package service runs recurrence detection, acceptance and expansion against
// a Repository.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cadence/src-server/model"
	"cadence/src-server/recurring"
)

var (
	ErrCandidateNotFound   = errors.New("candidate not found")
	ErrSeriesNotFound      = errors.New("series not found")
	ErrCandidateNotPending = errors.New("candidate is not pending")
	ErrNoEvents            = errors.New("candidate has no source events")
	ErrDateNotInSeries     = errors.New("date is not an occurrence of the series")
)

type Recurring struct {
	repo Repository

	threshold float64
	lookback  time.Duration
	lookahead time.Duration
	location  *time.Location
	now       func() time.Time
	observer  Observer
	newID     func() string
}

func NewRecurring(repo Repository, opts ...Option) *Recurring {
	r := defaults()
	r.repo = repo
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Window returns the inclusive YYYY-MM-DD bounds of the detection window.
func (r *Recurring) Window() (string, string) {
	today := recurring.Day(r.now().In(r.location))
	from := today.Add(-r.lookback).Format(recurring.DateLayout)
	to := today.Add(r.lookahead).Format(recurring.DateLayout)
	return from, to
}

// DetectAndSaveCandidates clusters the owner's standalone events inside the
// detection window and upserts one candidate per periodic cluster. Clusters
// whose candidate was already accepted or rejected are left alone. The saved
// pending candidates are returned, most confident first.
func (r *Recurring) DetectAndSaveCandidates(ctx context.Context, ownerID string) ([]model.RecurringCandidate, error) {
	start := r.now()
	saved, err := r.detectAndSave(ctx, ownerID)
	r.observer.DetectionFinished(ctx, ownerID, len(saved), r.now().Sub(start), err)
	if err != nil {
		return nil, fmt.Errorf("(*Recurring).DetectAndSaveCandidates: %w", err)
	}
	return saved, nil
}

func (r *Recurring) detectAndSave(ctx context.Context, ownerID string) ([]model.RecurringCandidate, error) {
	from, to := r.Window()
	rows, err := r.repo.ListEvents(ctx, ownerID, from, to, true)
	if err != nil {
		return nil, err
	}

	events := make([]recurring.Event, 0, len(rows))
	for i := range rows {
		event, err := rows[i].ToRecurring()
		if err != nil {
			slog.Warn("skipping event with unreadable date", "id", rows[i].ID, "error", err)
			continue
		}
		events = append(events, event)
	}

	detected := recurring.GenerateCandidates(events, ownerID, r.threshold)
	saved := make([]model.RecurringCandidate, 0, len(detected))
	if err := r.repo.InTx(ctx, func(ctx context.Context) error {
		for _, candidate := range detected {
			existing, err := r.repo.FindCandidate(ctx, ownerID, candidate.ClusterKey)
			switch {
			case errors.Is(err, model.ErrNotFound):
				candidate.ID = r.newID()
			case err != nil:
				return err
			case existing.Status != string(recurring.StatusPending):
				continue
			default:
				candidate.ID = existing.ID
			}

			row := new(model.RecurringCandidate)
			row.FromRecurring(candidate)
			if existing != nil {
				row.CreatedAt = existing.CreatedAt
			}
			if err := r.repo.UpsertCandidate(ctx, row); err != nil {
				return err
			}
			saved = append(saved, *row)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return saved, nil
}

// ListCandidates returns an owner's candidates, optionally filtered by status.
func (r *Recurring) ListCandidates(ctx context.Context, ownerID string, status recurring.Status) ([]model.RecurringCandidate, error) {
	candidates, err := r.repo.ListCandidates(ctx, ownerID, string(status))
	if err != nil {
		return nil, fmt.Errorf("(*Recurring).ListCandidates: %w", err)
	}
	return candidates, nil
}

func (r *Recurring) candidate(ctx context.Context, ownerID, id string) (*model.RecurringCandidate, error) {
	candidate, err := r.repo.GetCandidate(ctx, id)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
	case err != nil:
		return nil, err
	case candidate.OwnerID != ownerID:
		return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
	}
	return candidate, nil
}

// AcceptCandidate turns a pending candidate into an active series, deletes the
// discrete events it was detected from and marks it accepted, all in one
// transaction. It returns the new series id.
func (r *Recurring) AcceptCandidate(ctx context.Context, ownerID, candidateID string) (string, error) {
	var seriesID string
	if err := r.repo.InTx(ctx, func(ctx context.Context) error {
		candidate, err := r.candidate(ctx, ownerID, candidateID)
		if err != nil {
			return err
		}
		if candidate.Status != string(recurring.StatusPending) {
			return fmt.Errorf("%w: %s is %s", ErrCandidateNotPending, candidateID, candidate.Status)
		}
		if len(candidate.EventIDs) == 0 || len(candidate.OccurrenceDates) == 0 {
			return fmt.Errorf("%w: %s", ErrNoEvents, candidateID)
		}

		// the first source event supplies what the candidate does not carry
		first, err := r.repo.GetEvent(ctx, candidate.EventIDs[0])
		switch {
		case errors.Is(err, model.ErrNotFound):
			first = &model.CalendarEvent{}
		case err != nil:
			return err
		}

		dates := append([]string(nil), candidate.OccurrenceDates...)
		sort.Strings(dates)
		series := &model.EventSeries{
			ID:              r.newID(),
			OwnerID:         candidate.OwnerID,
			Title:           candidate.Title,
			NormalizedTitle: candidate.NormalizedTitle,
			Description:     first.Description,
			StartDate:       dates[0],
			UntilDate:       dates[len(dates)-1],
			StartTime:       candidate.StartTime,
			EndTime:         first.EndTime,
			Location:        candidate.Location,
			Category:        first.Category,
			Priority:        first.Priority,
			RRule:           candidate.SuggestedRRule,
			Exdates:         []string{},
			Source:          string(recurring.SourceDetected),
			IsActive:        true,
		}
		if seriesID, err = r.repo.CreateSeries(ctx, series); err != nil {
			return err
		}
		if err := r.repo.DeleteEvents(ctx, candidate.EventIDs); err != nil {
			return err
		}
		return r.repo.UpdateCandidateStatus(ctx, candidate.ID, string(recurring.StatusAccepted))
	}); err != nil {
		return "", fmt.Errorf("(*Recurring).AcceptCandidate: %w", err)
	}

	r.observer.SeriesAccepted(ctx, seriesID)
	return seriesID, nil
}

// RejectCandidate marks a pending candidate rejected. Rejection is terminal.
func (r *Recurring) RejectCandidate(ctx context.Context, ownerID, candidateID string) error {
	if err := r.repo.InTx(ctx, func(ctx context.Context) error {
		candidate, err := r.candidate(ctx, ownerID, candidateID)
		if err != nil {
			return err
		}
		if candidate.Status != string(recurring.StatusPending) {
			return fmt.Errorf("%w: %s is %s", ErrCandidateNotPending, candidateID, candidate.Status)
		}
		return r.repo.UpdateCandidateStatus(ctx, candidate.ID, string(recurring.StatusRejected))
	}); err != nil {
		return fmt.Errorf("(*Recurring).RejectCandidate: %w", err)
	}
	return nil
}

// DeleteCandidate removes a candidate regardless of its status. The next
// detection run may suggest the same cluster again.
func (r *Recurring) DeleteCandidate(ctx context.Context, ownerID, candidateID string) error {
	if err := r.repo.InTx(ctx, func(ctx context.Context) error {
		candidate, err := r.candidate(ctx, ownerID, candidateID)
		if err != nil {
			return err
		}
		return r.repo.DeleteCandidate(ctx, candidate.ID)
	}); err != nil {
		return fmt.Errorf("(*Recurring).DeleteCandidate: %w", err)
	}
	return nil
}
