package utils

// Metric carries latencies, in microseconds, from the code that measures them
// to the gauges in the metric package.
type Metric struct {
	DiscordSendMessage chan float64
}

func NewMetric() *Metric {
	return &Metric{
		DiscordSendMessage: make(chan float64, 16),
	}
}

// Send drops the sample when nobody is collecting.
func Send(ch chan float64, value float64) {
	if ch == nil {
		return
	}
	select {
	case ch <- value:
	default:
	}
}
