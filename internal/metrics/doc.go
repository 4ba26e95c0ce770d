// Package metrics provides Prometheus instrumentation for create-thumbnail.
//
// All metrics are prefixed with "create_thumbnail_" and registered with the
// default registry using promauto.
//
// # Metric Categories
//
// ## Request Metrics
//
// Track every thumbnail request:
//   - RequestsTotal: Counter by render path (static/animated/none) and status
//     (success or the failing error kind)
//   - RequestDuration: Histogram of request duration by render path
//   - RequestsInFlight: Gauge of requests currently being processed
//
// ## Classification Metrics
//
// Track the animation classifier:
//   - ClassificationsTotal: Counter by container format and result
//     (static/animated/degraded)
//
// ## Encoder Metrics
//
//   - EncoderFailuresTotal: Counter of failed video encodes
//
// ## Batch Metrics
//
// Track a run over several sources:
//   - BatchItems: Gauge of items by state (total/completed/failed/in_flight)
//   - BatchLastRunDuration: Gauge of the last batch duration
//   - BatchLastRunTimestamp: Gauge of the last batch completion time
//
// # Usage
//
// The command line tool is short-lived, so metrics are not served over HTTP.
// Instead WriteTextfile writes the default registry in the text exposition
// format, for pickup by the node_exporter textfile collector:
//
//	if err := metrics.WriteTextfile("/var/lib/node_exporter/thumbnails.prom"); err != nil {
//		logging.Warn("failed to write metrics: %v", err)
//	}
package metrics
