package route

import (
	"encoding/json"
	"net/http"

	"cadence/src-server/model"
	"cadence/src-server/utils"
)

func Calendar(muxer *http.ServeMux, as *utils.AppState) {
	type CreateEventReqBody struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		EventDate   string `json:"event_date"`
		StartTime   string `json:"start_time"`
		EndTime     string `json:"end_time"`
		Location    string `json:"location"`
		Category    string `json:"category"`
		Priority    string `json:"priority"`
	}

	muxer.HandleFunc("POST /calendar/events", OwnerMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			var reqBody CreateEventReqBody
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if reqBody.Title == "" || reqBody.EventDate == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title and event_date are required"})
				return
			}

			event := &model.CalendarEvent{
				Title:       reqBody.Title,
				Description: reqBody.Description,
				EventDate:   reqBody.EventDate,
				StartTime:   reqBody.StartTime,
				EndTime:     reqBody.EndTime,
				Location:    reqBody.Location,
				Category:    reqBody.Category,
				Priority:    reqBody.Priority,
			}
			if err := as.Recurring.CreateEvent(r.Context(), ownerFrom(r), event); err != nil {
				// validation failures from the model are the caller's fault
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusCreated, event)
		}))

	muxer.HandleFunc("GET /calendar/events", OwnerMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			from, to := query.Get("from"), query.Get("to")
			for _, bound := range []string{from, to} {
				if bound == "" {
					continue
				}
				if _, err := utils.ParseDateInput(nil, bound, as.Now()); err != nil {
					writeError(w, r, err)
					return
				}
			}

			events, err := as.Recurring.ListEvents(r.Context(), ownerFrom(r), from, to)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, events)
		}))
}
