package route_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cadence/src-server/model"
	"cadence/src-server/route"
	"cadence/src-server/service"
	"cadence/src-server/utils"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const owner = "channel-1"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newServerWith(t, nil)
}

func newServerWith(t *testing.T, wrap func(*model.BunRepository) service.Repository) *httptest.Server {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	if err := model.CreateSchema(context.Background(), db); err != nil {
		t.Fatal(err)
	}

	var repo service.Repository = model.NewBunRepository(db)
	if wrap != nil {
		repo = wrap(model.NewBunRepository(db))
	}
	as := &utils.AppState{
		BunDB: db,
		When:  utils.NewWhenParser(),
		Recurring: service.NewRecurring(repo,
			service.WithClock(func() time.Time { return time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC) }),
			service.WithLocation(time.UTC),
		),
	}
	muxer := http.NewServeMux()
	route.Calendar(muxer, as)
	route.Recurring(muxer, as)
	route.Series(muxer, as)
	route.Health(muxer, as)

	server := httptest.NewServer(muxer)
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, server *httptest.Server, method, path, ownerID string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if ownerID != "" {
		req.Header.Set(route.OwnerHeaderKey, ownerID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status = %d, want %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want)
	}
}

func seedLecture(t *testing.T, server *httptest.Server) {
	t.Helper()
	for _, date := range []string{"2025-01-06", "2025-01-13", "2025-01-20", "2025-01-27"} {
		resp := do(t, server, http.MethodPost, "/calendar/events", owner, map[string]string{
			"title":      "CS101 Lecture",
			"event_date": date,
			"start_time": "10:00",
			"end_time":   "11:00",
			"location":   "Room 4",
		})
		expectStatus(t, resp, http.StatusCreated)
	}
}

func acceptLecture(t *testing.T, server *httptest.Server) string {
	t.Helper()
	seedLecture(t, server)
	resp := do(t, server, http.MethodPost, "/recurring/detect", owner, nil)
	expectStatus(t, resp, http.StatusOK)
	candidates := decode[[]model.RecurringCandidate](t, resp)
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}

	resp = do(t, server, http.MethodPost, "/recurring/candidates/"+candidates[0].ID+"/accept", owner, nil)
	expectStatus(t, resp, http.StatusCreated)
	body := decode[struct {
		SeriesID string `json:"series_id"`
	}](t, resp)
	if body.SeriesID == "" {
		t.Fatal("accept returned no series id")
	}
	return body.SeriesID
}

func TestOwnerHeaderRequired(t *testing.T) {
	server := newServer(t)
	for _, path := range []string{"/calendar/events", "/recurring/candidates", "/series"} {
		resp := do(t, server, http.MethodGet, path, "", nil)
		expectStatus(t, resp, http.StatusUnauthorized)
	}
}

func TestCreateEventValidation(t *testing.T) {
	server := newServer(t)
	tests := map[string]map[string]string{
		"missing title": {"event_date": "2025-01-06"},
		"bad date":      {"title": "x", "event_date": "06/01/2025"},
		"end first":     {"title": "x", "event_date": "2025-01-06", "start_time": "11:00", "end_time": "10:00"},
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			resp := do(t, server, http.MethodPost, "/calendar/events", owner, body)
			expectStatus(t, resp, http.StatusBadRequest)
		})
	}
}

func TestListEvents(t *testing.T) {
	server := newServer(t)
	seedLecture(t, server)

	resp := do(t, server, http.MethodGet, "/calendar/events?from=2025-01-10&to=2025-01-21", owner, nil)
	expectStatus(t, resp, http.StatusOK)
	if events := decode[[]model.CalendarEvent](t, resp); len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}

	resp = do(t, server, http.MethodGet, "/calendar/events", "someone-else", nil)
	expectStatus(t, resp, http.StatusOK)
	if events := decode[[]model.CalendarEvent](t, resp); len(events) != 0 {
		t.Errorf("another owner sees %d events", len(events))
	}

	resp = do(t, server, http.MethodGet, "/calendar/events?from=yesterday", owner, nil)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestCandidateLifecycle(t *testing.T) {
	server := newServer(t)
	seedLecture(t, server)

	resp := do(t, server, http.MethodPost, "/recurring/detect", owner, nil)
	expectStatus(t, resp, http.StatusOK)
	candidates := decode[[]model.RecurringCandidate](t, resp)
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	id := candidates[0].ID
	if candidates[0].SuggestedRRule != "FREQ=WEEKLY;BYDAY=MO;UNTIL=20250127" {
		t.Errorf("rrule = %s", candidates[0].SuggestedRRule)
	}

	resp = do(t, server, http.MethodGet, "/recurring/candidates?status=bogus", owner, nil)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, server, http.MethodPost, "/recurring/candidates/"+id+"/reject", "someone-else", nil)
	expectStatus(t, resp, http.StatusNotFound)

	resp = do(t, server, http.MethodPost, "/recurring/candidates/"+id+"/reject", owner, nil)
	expectStatus(t, resp, http.StatusNoContent)

	resp = do(t, server, http.MethodGet, "/recurring/candidates?status=rejected", owner, nil)
	expectStatus(t, resp, http.StatusOK)
	if rejected := decode[[]model.RecurringCandidate](t, resp); len(rejected) != 1 || rejected[0].ID != id {
		t.Errorf("rejected = %+v", rejected)
	}

	resp = do(t, server, http.MethodPost, "/recurring/candidates/"+id+"/accept", owner, nil)
	expectStatus(t, resp, http.StatusConflict)

	resp = do(t, server, http.MethodDelete, "/recurring/candidates/"+id, owner, nil)
	expectStatus(t, resp, http.StatusNoContent)

	resp = do(t, server, http.MethodDelete, "/recurring/candidates/"+id, owner, nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestAcceptMovesEventsIntoSeries(t *testing.T) {
	server := newServer(t)
	seriesID := acceptLecture(t, server)

	resp := do(t, server, http.MethodGet, "/calendar/events?from=2025-01-01&to=2025-02-01", owner, nil)
	expectStatus(t, resp, http.StatusOK)
	if events := decode[[]model.CalendarEvent](t, resp); len(events) != 0 {
		t.Errorf("%d standalone events survived accept", len(events))
	}

	resp = do(t, server, http.MethodGet, "/series", owner, nil)
	expectStatus(t, resp, http.StatusOK)
	series := decode[[]model.EventSeries](t, resp)
	if len(series) != 1 || series[0].ID != seriesID || series[0].Source != "detected" {
		t.Errorf("series = %+v", series)
	}
}

func TestOccurrencesWithOverridesAndExdates(t *testing.T) {
	server := newServer(t)
	seriesID := acceptLecture(t, server)

	resp := do(t, server, http.MethodPut, "/series/"+seriesID+"/overrides/2025-01-13", owner, map[string]any{
		"location":     "Hall B",
		"is_cancelled": false,
	})
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, server, http.MethodPost, "/series/"+seriesID+"/exdates", owner, map[string]string{"date": "2025-01-20"})
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, server, http.MethodGet, "/series/"+seriesID+"/occurrences", owner, nil)
	expectStatus(t, resp, http.StatusOK)
	occurrences := decode[[]route.OccurrenceRespBody](t, resp)
	dates := make([]string, 0, len(occurrences))
	for _, o := range occurrences {
		dates = append(dates, o.Date)
	}
	want := []string{"2025-01-06", "2025-01-13", "2025-01-27"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("dates = %v, want %v", dates, want)
		}
	}
	if occurrences[1].Location != "Hall B" || occurrences[1].OverrideID == "" {
		t.Errorf("override not applied: %+v", occurrences[1])
	}
	if occurrences[0].Location != "Room 4" || occurrences[0].Title != "CS101 Lecture" {
		t.Errorf("series defaults lost: %+v", occurrences[0])
	}
}

func TestSeriesErrors(t *testing.T) {
	server := newServer(t)
	seriesID := acceptLecture(t, server)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"override off pattern", http.MethodPut, "/series/" + seriesID + "/overrides/2025-01-14", map[string]string{}, http.StatusBadRequest},
		{"override unreadable date", http.MethodPut, "/series/" + seriesID + "/overrides/someday", map[string]string{}, http.StatusBadRequest},
		{"exdate off pattern", http.MethodPost, "/series/" + seriesID + "/exdates", map[string]string{"date": "2025-02-03"}, http.StatusBadRequest},
		{"unknown series", http.MethodGet, "/series/nope/occurrences", nil, http.StatusNotFound},
		{"deactivate unknown", http.MethodDelete, "/series/nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, server, tt.method, tt.path, owner, tt.body)
			expectStatus(t, resp, tt.want)
		})
	}

	resp := do(t, server, http.MethodDelete, "/series/"+seriesID, owner, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp = do(t, server, http.MethodGet, "/series", owner, nil)
	if series := decode[[]model.EventSeries](t, resp); len(series) != 0 {
		t.Errorf("deactivated series still listed: %+v", series)
	}
}

func TestHealth(t *testing.T) {
	server := newServer(t)
	resp := do(t, server, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, resp, http.StatusOK)
}

type brokenEventsRepository struct {
	*model.BunRepository
}

func (brokenEventsRepository) ListEvents(context.Context, string, string, string, bool) ([]model.CalendarEvent, error) {
	return nil, errors.New("disk I/O error reading /var/lib/cadence/sqlite.db")
}

func TestDetectionFailureLooksLikeNoSuggestions(t *testing.T) {
	server := newServerWith(t, func(repo *model.BunRepository) service.Repository {
		return brokenEventsRepository{repo}
	})

	resp := do(t, server, http.MethodPost, "/recurring/detect", owner, nil)
	expectStatus(t, resp, http.StatusOK)
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if body := strings.TrimSpace(string(raw)); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}

	resp = do(t, server, http.MethodGet, "/calendar/events", owner, nil)
	expectStatus(t, resp, http.StatusInternalServerError)
	raw, err = io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "sqlite.db") {
		t.Errorf("internal detail leaked: %s", raw)
	}
}
