package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported even when a run never touches it.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Requests (per render path × status) ---
	statuses := []string{
		"success",
		"invalid_spec",
		"source_not_found",
		"io_error",
		"unrecognized_format",
		"same_input_output_path",
		"encoder_failed",
		"resample_failed",
		"destination_conflict",
	}
	for _, path := range []string{"static", "animated", "none"} {
		for _, status := range statuses {
			RequestsTotal.WithLabelValues(path, status)
		}
		RequestDuration.WithLabelValues(path)
	}

	// --- Classifications (per format × result) ---
	for _, format := range []string{"gif", "webp", "png", "other"} {
		for _, result := range []string{"static", "animated", "degraded"} {
			ClassificationsTotal.WithLabelValues(format, result)
		}
	}

	// --- Batch state ---
	for _, state := range []string{"total", "completed", "failed", "in_flight"} {
		BatchItems.WithLabelValues(state)
	}
}
