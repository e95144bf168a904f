package metric_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cadence/src-server/metric"
	"cadence/src-server/service"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		byName[family.GetName()] = family
	}
	return byName
}

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := metric.NewRecorder(reg)

	ctx := service.WithTrigger(context.Background(), "cron")
	recorder.DetectionFinished(ctx, "o", 3, 20*time.Millisecond, nil)
	recorder.DetectionFinished(ctx, "o", 0, time.Millisecond, errors.New("db down"))
	recorder.SeriesAccepted(ctx, "s1")

	families := gather(t, reg)

	runs := families["cadence_detection_runs_total"]
	if runs == nil || len(runs.GetMetric()) != 2 {
		t.Fatalf("runs = %v, want an ok and an error series", runs)
	}
	for _, m := range runs.GetMetric() {
		labels := map[string]string{}
		for _, pair := range m.GetLabel() {
			labels[pair.GetName()] = pair.GetValue()
		}
		if labels["trigger"] != "cron" || m.GetCounter().GetValue() != 1 {
			t.Errorf("run series %v = %v", labels, m.GetCounter().GetValue())
		}
	}

	if got := families["cadence_candidates_detected_total"].GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Errorf("candidates detected = %v, want 3", got)
	}
	if got := families["cadence_series_accepted_total"].GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("series accepted = %v, want 1", got)
	}
	if got := families["cadence_detection_duration_seconds"].GetMetric()[0].GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("duration samples = %v, want 2", got)
	}
}
