package startup

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/alexwlchan/create-thumbnail/internal/logging"

	"github.com/spf13/viper"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// String formats the build information for --version output.
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s %s/%s)",
		b.Version, b.Commit, b.BuildTime, b.GoVersion, b.OS, b.Arch)
}

// Configuration keys. Environment variables use the THUMBNAIL_ prefix with
// dots replaced by underscores, e.g. THUMBNAIL_ENCODER_PATH.
const (
	KeyEncoderPath      = "encoder.path"
	KeyEncoderTimeout   = "encoder.timeout"
	KeyEngine           = "resampler.engine"
	KeyJPEGQuality      = "resampler.jpeg_quality"
	KeyWorkers          = "workers"
	KeyMetricsFile      = "metrics.file"
	KeyProgressInterval = "metrics.progress_interval"
	KeyLogLevel         = "log_level"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "THUMBNAIL"

// Resampler engines
const (
	EngineImaging = "imaging"
	EngineVips    = "vips"
)

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration
type Config struct {
	EncoderPath      string
	EncoderTimeout   time.Duration
	Engine           string
	JPEGQuality      int
	Workers          int
	MetricsFile      string
	ProgressInterval time.Duration

	// LogLevel is empty when neither the config file, the environment nor a
	// flag set it; the logger then keeps its DEBUG/LOG_LEVEL default.
	LogLevel string
}

// NewViper returns a viper instance with defaults and environment binding
// in place. Callers may Set flag values on it before calling LoadConfig.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyEncoderPath, "ffmpeg")
	v.SetDefault(KeyEncoderTimeout, "0s")
	v.SetDefault(KeyEngine, EngineImaging)
	v.SetDefault(KeyJPEGQuality, 90)
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeyMetricsFile, "")
	v.SetDefault(KeyProgressInterval, "10s")
	v.SetDefault(KeyLogLevel, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadConfig reads the optional config file into v, validates the merged
// settings and logs them at debug level. The file format follows its
// extension (yaml, toml, json, ...).
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	config := &Config{
		EncoderPath:      v.GetString(KeyEncoderPath),
		EncoderTimeout:   v.GetDuration(KeyEncoderTimeout),
		Engine:           strings.ToLower(v.GetString(KeyEngine)),
		JPEGQuality:      v.GetInt(KeyJPEGQuality),
		Workers:          v.GetInt(KeyWorkers),
		MetricsFile:      v.GetString(KeyMetricsFile),
		ProgressInterval: v.GetDuration(KeyProgressInterval),
		LogLevel:         v.GetString(KeyLogLevel),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.LogLevel != "" {
		level, _ := logging.ParseLevel(config.LogLevel)
		logging.SetLevel(level)
	}

	logConfig(config, v.ConfigFileUsed())
	return config, nil
}

// Validate checks that every setting is within range.
func (c *Config) Validate() error {
	var errs []error

	if c.EncoderPath == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", KeyEncoderPath))
	}
	if c.EncoderTimeout < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %v", KeyEncoderTimeout, c.EncoderTimeout))
	}
	if c.Engine != EngineImaging && c.Engine != EngineVips {
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", KeyEngine, EngineImaging, EngineVips, c.Engine))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("%s must be between 1 and 100, got %d", KeyJPEGQuality, c.JPEGQuality))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", KeyWorkers, c.Workers))
	}
	if c.ProgressInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", KeyProgressInterval, c.ProgressInterval))
	}
	if c.LogLevel != "" {
		if _, ok := logging.ParseLevel(c.LogLevel); !ok {
			errs = append(errs, fmt.Errorf("%s must be debug, info, warn or error, got %q", KeyLogLevel, c.LogLevel))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func logConfig(c *Config, file string) {
	if !logging.IsDebugEnabled() {
		return
	}

	logging.Debug("------------------------------------------------------------")
	logging.Debug("CONFIGURATION")
	logging.Debug("------------------------------------------------------------")
	if file != "" {
		logging.Debug("  Config file:         %s", file)
	}
	logging.Debug("  ENCODER_PATH:        %s", c.EncoderPath)
	logging.Debug("  ENCODER_TIMEOUT:     %v", c.EncoderTimeout)
	logging.Debug("  RESAMPLER_ENGINE:    %s", c.Engine)
	logging.Debug("  JPEG_QUALITY:        %d", c.JPEGQuality)
	logging.Debug("  WORKERS:             %s", workersString(c.Workers))
	logging.Debug("  METRICS_FILE:        %s", valueOrDisabled(c.MetricsFile))
	logging.Debug("  PROGRESS_INTERVAL:   %v", c.ProgressInterval)
	logging.Debug("  LOG_LEVEL:           %s", logging.GetLevel())
	logSystemInfo()
}

func workersString(n int) string {
	if n == 0 {
		return "auto"
	}
	return fmt.Sprintf("%d", n)
}

func valueOrDisabled(s string) string {
	if s == "" {
		return "DISABLED"
	}
	return s
}

func logSystemInfo() {
	logging.Debug("  Go version:          %s", runtime.Version())
	logging.Debug("  OS/Arch:             %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Debug("  CPUs available:      %d", runtime.NumCPU())
	logging.Debug("  GOMAXPROCS:          %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Debug("  (Container CPU limit detected)")
	}
}

// CheckEncoder looks up the encoder binary and logs its version line. A
// missing binary only matters for animated sources, so callers log the
// returned error as a warning.
func CheckEncoder(ctx context.Context, path string) error {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", path)
	}
	logging.Debug("  FFmpeg path: %s", resolved)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, resolved, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(lines[0]))
	}

	return nil
}

// LogBatchStarted logs the size of a batch and its worker count
func LogBatchStarted(sources, workers int) {
	logging.Debug("Starting batch: %d source(s), %d worker(s)", sources, workers)
}

// LogBatchComplete logs the outcome of a batch
func LogBatchComplete(succeeded, failed int, duration time.Duration) {
	if failed > 0 {
		logging.Warn("Batch finished in %v: %d succeeded, %d failed", duration.Round(time.Millisecond), succeeded, failed)
		return
	}
	logging.Debug("Batch finished in %v: %d succeeded", duration.Round(time.Millisecond), succeeded)
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Warn("Shutdown initiated (received %s), stopping encoders", signal)
}
