// Package startup loads configuration and logs the lifecycle of a
// create-thumbnail run.
//
// # Configuration
//
// Settings are layered with spf13/viper. From lowest to highest precedence:
// built-in defaults, an optional config file, environment variables and
// command-line flags (the CLI Sets those on the viper instance before
// calling [LoadConfig]).
//
//   - encoder.path (THUMBNAIL_ENCODER_PATH): ffmpeg binary (default: ffmpeg)
//   - encoder.timeout (THUMBNAIL_ENCODER_TIMEOUT): per-encode limit as Go duration, 0 disables (default: 0s)
//   - resampler.engine (THUMBNAIL_RESAMPLER_ENGINE): imaging or vips (default: imaging)
//   - resampler.jpeg_quality (THUMBNAIL_RESAMPLER_JPEG_QUALITY): 1-100 (default: 90)
//   - workers (THUMBNAIL_WORKERS): concurrent requests, 0 picks from GOMAXPROCS (default: 0)
//   - metrics.file (THUMBNAIL_METRICS_FILE): Prometheus textfile written after the batch (default: disabled)
//   - metrics.progress_interval (THUMBNAIL_METRICS_PROGRESS_INTERVAL): batch progress log interval (default: 10s)
//   - log_level (THUMBNAIL_LOG_LEVEL): debug, info, warn or error (default: DEBUG/LOG_LEVEL, then info)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Example Usage
//
//	v := startup.NewViper()
//	v.Set(startup.KeyWorkers, 4)
//	config, err := startup.LoadConfig(v, "thumbnail.yaml")
//	if err != nil {
//	    return err
//	}
package startup
