package metrics

import "github.com/alexwlchan/create-thumbnail/internal/thumbnail"

// thumbnailObserver implements thumbnail.Observer using the Prometheus
// metrics declared in this package.
type thumbnailObserver struct{}

// NewThumbnailObserver creates an observer that records thumbnail metrics
// into the Prometheus counters and histograms declared in metrics.go.
func NewThumbnailObserver() thumbnail.Observer {
	return &thumbnailObserver{}
}

func (o *thumbnailObserver) ObserveRequest(renderPath, status string, durationSeconds float64) {
	RequestsTotal.WithLabelValues(renderPath, status).Inc()
	RequestDuration.WithLabelValues(renderPath).Observe(durationSeconds)
}

func (o *thumbnailObserver) ObserveClassification(format, result string) {
	ClassificationsTotal.WithLabelValues(format, result).Inc()
}

func (o *thumbnailObserver) ObserveEncoderFailure() {
	EncoderFailuresTotal.Inc()
}
