package route

import (
	"context"
	"net/http"
	"time"

	"cadence/src-server/utils"
)

func Health(muxer *http.ServeMux, as *utils.AppState) {
	muxer.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := as.BunDB.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database unreachable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("uptime " + as.GetUptime().Round(time.Second).String()))
	})
}
