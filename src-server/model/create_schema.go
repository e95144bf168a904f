package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
)

func CreateSchema(ctx context.Context, db *bun.DB) error {
	if err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []interface{}{
			(*CalendarEvent)(nil),
			(*RecurringCandidate)(nil),
			(*EventSeries)(nil),
			(*EventOverride)(nil),
		} {
			if _, err := tx.
				NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
		}

		// standalone events of an owner are scanned on every detection run
		if _, err := tx.NewCreateIndex().
			Model((*CalendarEvent)(nil)).
			Index("calendar_events_owner_date_idx").
			Column("owner_id", "event_date").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
		return nil
	}); err != nil {
		return fmt.Errorf("CreateSchema: %w", err)
	}

	return nil
}
