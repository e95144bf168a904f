package service

import (
	"context"

	"cadence/src-server/model"
)

// Repository is the record store the service works against. Lookups of a
// missing record return an error wrapping model.ErrNotFound. Calls made with a
// context handed out by InTx belong to that transaction.
type Repository interface {
	ListEvents(ctx context.Context, ownerID, from, to string, standaloneOnly bool) ([]model.CalendarEvent, error)
	GetEvent(ctx context.Context, id string) (*model.CalendarEvent, error)
	UpsertEvent(ctx context.Context, event *model.CalendarEvent) error
	DeleteEvents(ctx context.Context, ids []string) error
	ListOwners(ctx context.Context) ([]string, error)

	FindCandidate(ctx context.Context, ownerID, clusterKey string) (*model.RecurringCandidate, error)
	GetCandidate(ctx context.Context, id string) (*model.RecurringCandidate, error)
	UpsertCandidate(ctx context.Context, candidate *model.RecurringCandidate) error
	ListCandidates(ctx context.Context, ownerID, status string) ([]model.RecurringCandidate, error)
	UpdateCandidateStatus(ctx context.Context, id, status string) error
	DeleteCandidate(ctx context.Context, id string) error

	CreateSeries(ctx context.Context, series *model.EventSeries) (string, error)
	GetSeries(ctx context.Context, id string) (*model.EventSeries, error)
	ListSeries(ctx context.Context, ownerID string) ([]model.EventSeries, error)
	UpdateSeries(ctx context.Context, series *model.EventSeries) error
	ListOverrides(ctx context.Context, seriesID string) ([]model.EventOverride, error)
	UpsertOverride(ctx context.Context, override *model.EventOverride) error

	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ Repository = (*model.BunRepository)(nil)
