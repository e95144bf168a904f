package model_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"cadence/src-server/model"
	"cadence/src-server/recurring"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestRepository(t *testing.T) (*model.BunRepository, *bun.DB) {
	t.Helper()
	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	bundb := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() { bundb.Close() })

	if err := model.CreateSchema(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}
	return model.NewBunRepository(bundb), bundb
}

func newEvent(owner, title, date string) *model.CalendarEvent {
	return &model.CalendarEvent{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Title:     title,
		EventDate: date,
		StartTime: "10:00",
		Location:  "Room 4",
	}
}

func TestCalendarEventValidation(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	for name, event := range map[string]*model.CalendarEvent{
		"blank id":    {OwnerID: "o", Title: "t", EventDate: "2025-01-06"},
		"blank owner": {ID: "1", Title: "t", EventDate: "2025-01-06"},
		"blank title": {ID: "1", OwnerID: "o", EventDate: "2025-01-06"},
		"bad date":    {ID: "1", OwnerID: "o", Title: "t", EventDate: "06/01/2025"},
		"bad time":    {ID: "1", OwnerID: "o", Title: "t", EventDate: "2025-01-06", StartTime: "noon"},
		"end before":  {ID: "1", OwnerID: "o", Title: "t", EventDate: "2025-01-06", StartTime: "11:00", EndTime: "10:00"},
	} {
		if err := repo.UpsertEvent(ctx, event); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	ok := newEvent("o", "CS101 Lecture", "2025-01-06")
	ok.StartTime, ok.EndTime = "10:00:00", "11:15:00"
	if err := repo.UpsertEvent(ctx, ok); err != nil {
		t.Fatal(err)
	}
	if ok.CreatedAt == 0 {
		t.Error("created at not set")
	}
}

func TestCalendarEventTimesAreCanonical(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	for _, tc := range []struct{ start, end, wantStart, wantEnd string }{
		{"9:00", "9:45", "09:00", "09:45"},
		{"09:00:00", "10:30:00", "09:00", "10:30"},
		{"9:00:30", "", "09:00:30", ""},
	} {
		event := newEvent("o", "Standup", "2025-01-06")
		event.StartTime, event.EndTime = tc.start, tc.end
		if err := repo.UpsertEvent(ctx, event); err != nil {
			t.Fatal(err)
		}
		stored, err := repo.GetEvent(ctx, event.ID)
		if err != nil {
			t.Fatal(err)
		}
		if stored.StartTime != tc.wantStart || stored.EndTime != tc.wantEnd {
			t.Errorf("%s-%s stored as %q-%q, want %q-%q", tc.start, tc.end, stored.StartTime, stored.EndTime, tc.wantStart, tc.wantEnd)
		}
	}
}

func TestListEvents(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	inSeries := newEvent("o", "member", "2025-01-10")
	inSeries.SeriesID = "s1"
	for _, event := range []*model.CalendarEvent{
		newEvent("o", "b", "2025-01-13"),
		newEvent("o", "a", "2025-01-06"),
		newEvent("o", "too late", "2025-03-01"),
		newEvent("other", "not mine", "2025-01-07"),
		inSeries,
	} {
		if err := repo.UpsertEvent(ctx, event); err != nil {
			t.Fatal(err)
		}
	}

	standalone, err := repo.ListEvents(ctx, "o", "2025-01-01", "2025-01-31", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(standalone) != 2 || standalone[0].Title != "a" || standalone[1].Title != "b" {
		t.Errorf("standalone events = %+v", standalone)
	}

	all, err := repo.ListEvents(ctx, "o", "2025-01-01", "2025-01-31", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("got %d events, want 3", len(all))
	}

	owners, err := repo.ListOwners(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(owners) != 2 || owners[0] != "o" || owners[1] != "other" {
		t.Errorf("owners = %v", owners)
	}
}

func TestDeleteEvents(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	keep := newEvent("o", "keep", "2025-01-06")
	drop := newEvent("o", "drop", "2025-01-07")
	for _, event := range []*model.CalendarEvent{keep, drop} {
		if err := repo.UpsertEvent(ctx, event); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.DeleteEvents(ctx, []string{drop.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetEvent(ctx, drop.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("deleted event lookup error = %v", err)
	}
	if _, err := repo.GetEvent(ctx, keep.ID); err != nil {
		t.Errorf("kept event gone: %v", err)
	}
	if err := repo.DeleteEvents(ctx, nil); err != nil {
		t.Errorf("empty delete: %v", err)
	}
}

func newCandidate(owner, key string, confidence float64) *model.RecurringCandidate {
	return &model.RecurringCandidate{
		ID:              uuid.NewString(),
		OwnerID:         owner,
		ClusterKey:      key,
		EventIDs:        []string{"e1", "e2"},
		DetectedPattern: string(recurring.FreqWeekly),
		ConfidenceScore: confidence,
		Title:           "CS101 Lecture",
		NormalizedTitle: "cs101 lecture",
		OccurrenceDates: []string{"2025-01-06", "2025-01-13"},
		SuggestedRRule:  "FREQ=WEEKLY;BYDAY=MO;UNTIL=20250113",
		Status:          string(recurring.StatusPending),
	}
}

func TestCandidateUpsertKeepsIdentity(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	first := newCandidate("o", "cs101 lecture_10:00_Room 4", 0.8)
	if err := repo.UpsertCandidate(ctx, first); err != nil {
		t.Fatal(err)
	}

	again := newCandidate("o", first.ClusterKey, 0.95)
	again.EventIDs = []string{"e1", "e2", "e3"}
	again.OccurrenceDates = []string{"2025-01-06", "2025-01-13", "2025-01-20"}
	if err := repo.UpsertCandidate(ctx, again); err != nil {
		t.Fatal(err)
	}

	candidates, err := repo.ListCandidates(ctx, "o", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	got := candidates[0]
	if got.ID != first.ID {
		t.Errorf("id changed from %s to %s", first.ID, got.ID)
	}
	if got.ConfidenceScore != 0.95 || len(got.EventIDs) != 3 || len(got.OccurrenceDates) != 3 {
		t.Errorf("fields not refreshed: %+v", got)
	}

	found, err := repo.FindCandidate(ctx, "o", first.ClusterKey)
	if err != nil {
		t.Fatal(err)
	}
	if found.ID != first.ID {
		t.Errorf("FindCandidate id = %s", found.ID)
	}
	if _, err := repo.FindCandidate(ctx, "someone else", first.ClusterKey); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestCandidateValidation(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	badRule := newCandidate("o", "k", 0.9)
	badRule.SuggestedRRule = "FREQ=HOURLY"
	if err := repo.UpsertCandidate(ctx, badRule); !errors.Is(err, recurring.ErrUnsupportedFrequency) {
		t.Errorf("error = %v, want ErrUnsupportedFrequency", err)
	}

	badConfidence := newCandidate("o", "k", 1.2)
	if err := repo.UpsertCandidate(ctx, badConfidence); err == nil {
		t.Error("expected confidence error")
	}

	badStatus := newCandidate("o", "k", 0.9)
	badStatus.Status = "maybe"
	if err := repo.UpsertCandidate(ctx, badStatus); err == nil {
		t.Error("expected status error")
	}
}

func TestCandidateStatusAndDelete(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	low := newCandidate("o", "low", 0.7)
	high := newCandidate("o", "high", 0.9)
	for _, c := range []*model.RecurringCandidate{low, high} {
		if err := repo.UpsertCandidate(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	all, err := repo.ListCandidates(ctx, "o", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID != high.ID {
		t.Errorf("candidates not ordered by confidence: %+v", all)
	}

	if err := repo.UpdateCandidateStatus(ctx, low.ID, string(recurring.StatusRejected)); err != nil {
		t.Fatal(err)
	}
	pending, err := repo.ListCandidates(ctx, "o", string(recurring.StatusPending))
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != high.ID {
		t.Errorf("pending = %+v", pending)
	}

	if err := repo.UpdateCandidateStatus(ctx, "missing", string(recurring.StatusRejected)); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteCandidate(ctx, high.ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteCandidate(ctx, high.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func newSeries(owner string) *model.EventSeries {
	return &model.EventSeries{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Title:     "CS101 Lecture",
		StartDate: "2025-01-06",
		UntilDate: "2025-01-20",
		StartTime: "10:00",
		RRule:     "FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20250120",
		Source:    string(recurring.SourceDetected),
		IsActive:  true,
	}
}

func TestSeriesRoundTrip(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	series := newSeries("o")
	series.Exdates = []string{"2025-01-13"}
	id, err := repo.CreateSeries(ctx, series)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateSeries(ctx, series); err == nil {
		t.Error("creating the same series twice should fail")
	}

	stored, err := repo.GetSeries(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	converted, err := stored.ToRecurring()
	if err != nil {
		t.Fatal(err)
	}
	occurrences, err := recurring.Expand(converted, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(occurrences) != 4 {
		t.Errorf("got %d occurrences, want 4", len(occurrences))
	}

	stored.IsActive = false
	if err := repo.UpdateSeries(ctx, stored); err != nil {
		t.Fatal(err)
	}
	active, err := repo.ListSeries(ctx, "o")
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("inactive series listed: %+v", active)
	}
	if _, err := repo.GetSeries(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSeriesRejectsMalformedRule(t *testing.T) {
	repo, _ := newTestRepository(t)
	series := newSeries("o")
	series.RRule = "BYDAY=MO;FREQ=WEEKLY"
	if _, err := repo.CreateSeries(context.Background(), series); !errors.Is(err, recurring.ErrMalformedRule) {
		t.Errorf("error = %v, want ErrMalformedRule", err)
	}
}

func TestOverrideUpsertIsKeyedByDate(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	series := newSeries("o")
	if _, err := repo.CreateSeries(ctx, series); err != nil {
		t.Fatal(err)
	}

	cancel := &model.EventOverride{ID: uuid.NewString(), SeriesID: series.ID, OccurrenceDate: "2025-01-08", IsCancelled: true}
	if err := repo.UpsertOverride(ctx, cancel); err != nil {
		t.Fatal(err)
	}
	restore := &model.EventOverride{ID: uuid.NewString(), SeriesID: series.ID, OccurrenceDate: "2025-01-08", Title: "Moved"}
	if err := repo.UpsertOverride(ctx, restore); err != nil {
		t.Fatal(err)
	}

	overrides, err := repo.ListOverrides(ctx, series.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(overrides) != 1 {
		t.Fatalf("got %d overrides, want 1", len(overrides))
	}
	if overrides[0].ID != cancel.ID || overrides[0].IsCancelled || overrides[0].Title != "Moved" {
		t.Errorf("override = %+v", overrides[0])
	}
}

func TestGetSeriesLoadsOverrides(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	series := newSeries("o")
	if _, err := repo.CreateSeries(ctx, series); err != nil {
		t.Fatal(err)
	}
	stored, err := repo.GetSeries(ctx, series.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Overrides) != 0 {
		t.Errorf("fresh series has %d overrides", len(stored.Overrides))
	}

	for _, date := range []string{"2025-01-13", "2025-01-08"} {
		if err := repo.UpsertOverride(ctx, &model.EventOverride{ID: uuid.NewString(), SeriesID: series.ID, OccurrenceDate: date, IsCancelled: true}); err != nil {
			t.Fatal(err)
		}
	}
	stored, err = repo.GetSeries(ctx, series.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Overrides) != 2 || stored.Overrides[0].OccurrenceDate != "2025-01-08" || stored.Overrides[1].OccurrenceDate != "2025-01-13" {
		t.Errorf("overrides = %+v", stored.Overrides)
	}
}

func TestInTxRollsBack(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	event := newEvent("o", "a", "2025-01-06")
	if err := repo.UpsertEvent(ctx, event); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(ctx context.Context) error {
		if err := repo.DeleteEvents(ctx, []string{event.ID}); err != nil {
			return err
		}
		return repo.InTx(ctx, func(ctx context.Context) error { return boom })
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	if _, err := repo.GetEvent(ctx, event.ID); err != nil {
		t.Errorf("delete was not rolled back: %v", err)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}
