package route

import (
	"encoding/json"
	"net/http"

	"cadence/src-server/recurring"
	"cadence/src-server/service"
	"cadence/src-server/utils"
)

type OccurrenceRespBody struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	IsCancelled bool   `json:"is_cancelled"`
	IsCompleted bool   `json:"is_completed"`
	OverrideID  string `json:"override_id,omitempty"`
}

func toOccurrenceResp(occurrences []recurring.Occurrence) []OccurrenceRespBody {
	resp := make([]OccurrenceRespBody, 0, len(occurrences))
	for _, o := range occurrences {
		body := OccurrenceRespBody{
			Date:        o.Date.Format(recurring.DateLayout),
			Title:       o.Title,
			StartTime:   o.StartTime,
			EndTime:     o.EndTime,
			Location:    o.Location,
			Description: o.Description,
			IsCancelled: o.IsCancelled,
			IsCompleted: o.IsCompleted,
		}
		if o.Override != nil {
			body.OverrideID = o.Override.ID
		}
		resp = append(resp, body)
	}
	return resp
}

func Series(muxer *http.ServeMux, as *utils.AppState) {
	muxer.HandleFunc("GET /series", OwnerMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			series, err := as.Recurring.ListSeries(r.Context(), ownerFrom(r))
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, series)
		}))

	muxer.HandleFunc("DELETE /series/{id}", OwnerMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			if err := as.Recurring.DeactivateSeries(r.Context(), ownerFrom(r), r.PathValue("id")); err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))

	muxer.HandleFunc("GET /series/{id}/occurrences", OwnerMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			occurrences, err := as.Recurring.GetOccurrences(r.Context(), ownerFrom(r), r.PathValue("id"))
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, toOccurrenceResp(occurrences))
		}))

	// #region overrides
	muxer.HandleFunc("PUT /series/{id}/overrides/{date}", OwnerMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			date, err := utils.ParseDateInput(as.When, r.PathValue("date"), as.Now())
			if err != nil {
				writeError(w, r, err)
				return
			}
			var fields service.OverrideFields
			if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}

			override, err := as.Recurring.UpsertOverride(r.Context(), ownerFrom(r), r.PathValue("id"), date, fields)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, override)
		}))

	type ExdateReqBody struct {
		Date string `json:"date"`
	}

	muxer.HandleFunc("POST /series/{id}/exdates", OwnerMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			var reqBody ExdateReqBody
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			date, err := utils.ParseDateInput(as.When, reqBody.Date, as.Now())
			if err != nil {
				writeError(w, r, err)
				return
			}
			series, err := as.Recurring.AddExdate(r.Context(), ownerFrom(r), r.PathValue("id"), date)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, series)
		}))
	// #endregion
}
