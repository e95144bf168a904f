package service

import (
	"context"
	"fmt"

	"cadence/src-server/model"
)

// CreateEvent stores a new standalone calendar event for the owner.
func (r *Recurring) CreateEvent(ctx context.Context, ownerID string, event *model.CalendarEvent) error {
	event.ID = r.newID()
	event.OwnerID = ownerID
	event.SeriesID = ""
	if err := r.repo.UpsertEvent(ctx, event); err != nil {
		return fmt.Errorf("(*Recurring).CreateEvent: %w", err)
	}
	return nil
}

// ListEvents returns the owner's events dated within [from, to]. Blank bounds
// default to the detection window.
func (r *Recurring) ListEvents(ctx context.Context, ownerID, from, to string) ([]model.CalendarEvent, error) {
	windowFrom, windowTo := r.Window()
	if from == "" {
		from = windowFrom
	}
	if to == "" {
		to = windowTo
	}
	events, err := r.repo.ListEvents(ctx, ownerID, from, to, false)
	if err != nil {
		return nil, fmt.Errorf("(*Recurring).ListEvents: %w", err)
	}
	return events, nil
}

// Owners lists every owner with standalone events, for background sweeps.
func (r *Recurring) Owners(ctx context.Context) ([]string, error) {
	owners, err := r.repo.ListOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("(*Recurring).Owners: %w", err)
	}
	return owners, nil
}
