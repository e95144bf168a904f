package metric

import (
	"context"
	"time"

	"cadence/src-server/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder counts detection runs and accepted series.
type Recorder struct {
	detectionRuns      *prometheus.CounterVec
	candidatesDetected prometheus.Counter
	detectionDuration  prometheus.Histogram
	seriesAccepted     prometheus.Counter
}

var _ service.Observer = (*Recorder)(nil)

func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		detectionRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cadence_detection_runs_total",
			Help: "Detection runs by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		candidatesDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "cadence_candidates_detected_total",
			Help: "Pending candidates saved by detection runs",
		}),
		detectionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cadence_detection_duration_seconds",
			Help:    "Wall time of one detection run for one owner",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		seriesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "cadence_series_accepted_total",
			Help: "Candidates accepted into a series",
		}),
	}
}

func (r *Recorder) DetectionFinished(ctx context.Context, _ string, candidates int, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.detectionRuns.WithLabelValues(service.TriggerFromContext(ctx), outcome).Inc()
	r.candidatesDetected.Add(float64(candidates))
	r.detectionDuration.Observe(elapsed.Seconds())
}

func (r *Recorder) SeriesAccepted(context.Context, string) {
	r.seriesAccepted.Inc()
}
