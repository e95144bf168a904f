package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("record not found")

type txCtxKeyType string

const txCtxKey txCtxKeyType = "bun-tx"

// BunRepository persists events, candidates, series and overrides. Calls made
// with a context handed out by InTx run inside that transaction.
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

func (r *BunRepository) idb(ctx context.Context) bun.IDB {
	if tx, ok := ctx.Value(txCtxKey).(bun.Tx); ok {
		return tx
	}
	return r.db
}

// InTx runs fn in a transaction. Nested calls join the outer one.
func (r *BunRepository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txCtxKey).(bun.Tx); ok {
		return fn(ctx)
	}
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txCtxKey, tx))
	})
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// #region | calendar events

// ListEvents returns an owner's events dated within [from, to], both
// YYYY-MM-DD. With standaloneOnly, events that belong to a series are left out.
func (r *BunRepository) ListEvents(ctx context.Context, ownerID, from, to string, standaloneOnly bool) ([]CalendarEvent, error) {
	events := make([]CalendarEvent, 0)
	query := r.idb(ctx).NewSelect().
		Model(&events).
		Where("owner_id = ?", ownerID).
		Where("event_date >= ?", from).
		Where("event_date <= ?", to)
	if standaloneOnly {
		query = query.Where("series_id = ''")
	}
	if err := query.
		Order("event_date ASC", "created_at ASC", "id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*BunRepository).ListEvents: %w", err)
	}
	return events, nil
}

func (r *BunRepository) GetEvent(ctx context.Context, id string) (*CalendarEvent, error) {
	event := new(CalendarEvent)
	if err := r.idb(ctx).NewSelect().
		Model(event).
		Where("id = ?", id).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*BunRepository).GetEvent: %w", notFound(err))
	}
	return event, nil
}

func (r *BunRepository) UpsertEvent(ctx context.Context, event *CalendarEvent) error {
	if err := event.Upsert(ctx, r.idb(ctx)); err != nil {
		return fmt.Errorf("(*BunRepository).UpsertEvent: %w", err)
	}
	return nil
}

func (r *BunRepository) DeleteEvents(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.idb(ctx).NewDelete().
		Model((*CalendarEvent)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*BunRepository).DeleteEvents: %w", err)
	}
	return nil
}

// ListOwners returns every owner that has at least one standalone event.
func (r *BunRepository) ListOwners(ctx context.Context) ([]string, error) {
	owners := make([]string, 0)
	if err := r.idb(ctx).NewSelect().
		Model((*CalendarEvent)(nil)).
		ColumnExpr("DISTINCT owner_id").
		Where("series_id = ''").
		Order("owner_id ASC").
		Scan(ctx, &owners); err != nil {
		return nil, fmt.Errorf("(*BunRepository).ListOwners: %w", err)
	}
	return owners, nil
}

// #endregion

// #region | candidates

func (r *BunRepository) FindCandidate(ctx context.Context, ownerID, clusterKey string) (*RecurringCandidate, error) {
	candidate := new(RecurringCandidate)
	if err := r.idb(ctx).NewSelect().
		Model(candidate).
		Where("owner_id = ?", ownerID).
		Where("cluster_key = ?", clusterKey).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*BunRepository).FindCandidate: %w", notFound(err))
	}
	return candidate, nil
}

func (r *BunRepository) GetCandidate(ctx context.Context, id string) (*RecurringCandidate, error) {
	candidate := new(RecurringCandidate)
	if err := r.idb(ctx).NewSelect().
		Model(candidate).
		Where("id = ?", id).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*BunRepository).GetCandidate: %w", notFound(err))
	}
	return candidate, nil
}

func (r *BunRepository) UpsertCandidate(ctx context.Context, candidate *RecurringCandidate) error {
	if err := candidate.Upsert(ctx, r.idb(ctx)); err != nil {
		return fmt.Errorf("(*BunRepository).UpsertCandidate: %w", err)
	}
	return nil
}

// ListCandidates returns an owner's candidates, most confident first. A blank
// status matches every status.
func (r *BunRepository) ListCandidates(ctx context.Context, ownerID, status string) ([]RecurringCandidate, error) {
	candidates := make([]RecurringCandidate, 0)
	query := r.idb(ctx).NewSelect().
		Model(&candidates).
		Where("owner_id = ?", ownerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.
		Order("confidence_score DESC", "created_at ASC", "id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*BunRepository).ListCandidates: %w", err)
	}
	return candidates, nil
}

func (r *BunRepository) UpdateCandidateStatus(ctx context.Context, id, status string) error {
	if !validStatus(status) {
		return fmt.Errorf("(*BunRepository).UpdateCandidateStatus: unknown status %q", status)
	}
	res, err := r.idb(ctx).NewUpdate().
		Model((*RecurringCandidate)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("(*BunRepository).UpdateCandidateStatus: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("(*BunRepository).UpdateCandidateStatus: %w", ErrNotFound)
	}
	return nil
}

func (r *BunRepository) DeleteCandidate(ctx context.Context, id string) error {
	res, err := r.idb(ctx).NewDelete().
		Model((*RecurringCandidate)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("(*BunRepository).DeleteCandidate: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("(*BunRepository).DeleteCandidate: %w", ErrNotFound)
	}
	return nil
}

// #endregion

// #region | series and overrides

func (r *BunRepository) CreateSeries(ctx context.Context, series *EventSeries) (string, error) {
	exists, err := r.idb(ctx).NewSelect().
		Model((*EventSeries)(nil)).
		Where("id = ?", series.ID).
		Exists(ctx)
	if err != nil {
		return "", fmt.Errorf("(*BunRepository).CreateSeries: %w", err)
	}
	if exists {
		return "", fmt.Errorf("(*BunRepository).CreateSeries: series %s already exists", series.ID)
	}
	if err := series.Upsert(ctx, r.idb(ctx)); err != nil {
		return "", fmt.Errorf("(*BunRepository).CreateSeries: %w", err)
	}
	return series.ID, nil
}

// GetSeries loads a series together with its overrides.
func (r *BunRepository) GetSeries(ctx context.Context, id string) (*EventSeries, error) {
	series := new(EventSeries)
	if err := r.idb(ctx).NewSelect().
		Model(series).
		Relation("Overrides", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("occurrence_date ASC")
		}).
		Where("?TableAlias.id = ?", id).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*BunRepository).GetSeries: %w", notFound(err))
	}
	return series, nil
}

// ListSeries returns an owner's active series ordered by start date.
func (r *BunRepository) ListSeries(ctx context.Context, ownerID string) ([]EventSeries, error) {
	series := make([]EventSeries, 0)
	if err := r.idb(ctx).NewSelect().
		Model(&series).
		Where("owner_id = ?", ownerID).
		Where("is_active = ?", true).
		Order("start_date ASC", "id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*BunRepository).ListSeries: %w", err)
	}
	return series, nil
}

func (r *BunRepository) UpdateSeries(ctx context.Context, series *EventSeries) error {
	if err := series.Upsert(ctx, r.idb(ctx)); err != nil {
		return fmt.Errorf("(*BunRepository).UpdateSeries: %w", err)
	}
	return nil
}

func (r *BunRepository) ListOverrides(ctx context.Context, seriesID string) ([]EventOverride, error) {
	overrides := make([]EventOverride, 0)
	if err := r.idb(ctx).NewSelect().
		Model(&overrides).
		Where("series_id = ?", seriesID).
		Order("occurrence_date ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*BunRepository).ListOverrides: %w", err)
	}
	return overrides, nil
}

func (r *BunRepository) UpsertOverride(ctx context.Context, override *EventOverride) error {
	if err := override.Upsert(ctx, r.idb(ctx)); err != nil {
		return fmt.Errorf("(*BunRepository).UpsertOverride: %w", err)
	}
	return nil
}

// #endregion

// Ping runs the cheapest possible read.
func (r *BunRepository) Ping(ctx context.Context) error {
	if _, err := r.idb(ctx).NewSelect().
		Model((*CalendarEvent)(nil)).
		Where("owner_id = ?", "").
		Exists(ctx); err != nil {
		return fmt.Errorf("(*BunRepository).Ping: %w", err)
	}
	return nil
}
