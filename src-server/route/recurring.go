package route

import (
	"log/slog"
	"net/http"

	"cadence/src-server/model"
	"cadence/src-server/recurring"
	"cadence/src-server/service"
	"cadence/src-server/utils"
)

func Recurring(muxer *http.ServeMux, as *utils.AppState) {
	// #region detect
	muxer.HandleFunc("POST /recurring/detect", OwnerMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			ctx := service.WithTrigger(r.Context(), "http")
			candidates, err := as.Recurring.DetectAndSaveCandidates(ctx, ownerFrom(r))
			if err != nil {
				// a failed run reads as "nothing found"
				slog.Error("detection failed", "owner", ownerFrom(r), "error", err)
				candidates = []model.RecurringCandidate{}
			}
			writeJSON(w, http.StatusOK, candidates)
		}))
	// #endregion

	// #region candidates
	muxer.HandleFunc("GET /recurring/candidates", OwnerMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			status := recurring.Status(r.URL.Query().Get("status"))
			switch status {
			case "", recurring.StatusPending, recurring.StatusAccepted, recurring.StatusRejected:
			default:
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status " + string(status)})
				return
			}

			candidates, err := as.Recurring.ListCandidates(r.Context(), ownerFrom(r), status)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, candidates)
		}))

	type AcceptRespBody struct {
		SeriesID string `json:"series_id"`
	}

	muxer.HandleFunc("POST /recurring/candidates/{id}/accept", OwnerMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			seriesID, err := as.Recurring.AcceptCandidate(r.Context(), ownerFrom(r), r.PathValue("id"))
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, AcceptRespBody{SeriesID: seriesID})
		}))

	muxer.HandleFunc("POST /recurring/candidates/{id}/reject", OwnerMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			if err := as.Recurring.RejectCandidate(r.Context(), ownerFrom(r), r.PathValue("id")); err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))

	muxer.HandleFunc("DELETE /recurring/candidates/{id}", OwnerMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			if err := as.Recurring.DeleteCandidate(r.Context(), ownerFrom(r), r.PathValue("id")); err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))
	// #endregion
}
