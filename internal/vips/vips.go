package vips

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alexwlchan/create-thumbnail/internal/dimensions"
	"github.com/alexwlchan/create-thumbnail/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips initializes the libvips library
// This should be called once at startup
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure vips logging BEFORE Startup() so it follows our log level
	vipsLogLevel, logHandler := logSettings(logging.GetLevel())
	vips.LoggingSettings(logHandler, vipsLogLevel)

	// Start vips with conservative memory settings
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,                // Process one image at a time to control memory
		MaxCacheMem:      50 * 1024 * 1024, // 50MB cache
		MaxCacheSize:     100,              // Max 100 operations cached
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// logSettings maps our log level to the vips log level and a handler that
// forwards vips messages to our logger.
func logSettings(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	switch level {
	case logging.LevelDebug:
		// Debug: Show all vips messages including INFO
		return vips.LogLevelInfo, func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			case vips.LogLevelMessage, vips.LogLevelInfo, vips.LogLevelDebug:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	case logging.LevelWarn:
		// Warn: Only show errors
		return vips.LogLevelError, func(domain string, level vips.LogLevel, msg string) {
			if level == vips.LogLevelError || level == vips.LogLevelCritical {
				logging.Error("[%s] %s", domain, msg)
			}
		}
	case logging.LevelError:
		// Error: Only show critical errors
		return vips.LogLevelCritical, func(domain string, level vips.LogLevel, msg string) {
			if level == vips.LogLevelCritical {
				logging.Error("[%s] %s", domain, msg)
			}
		}
	default:
		// Info: Only show warnings and errors
		return vips.LogLevelWarning, func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			}
		}
	}
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// exporters maps output extensions to the vips encoder for them.
var exporters = map[string]func(*vips.ImageRef, int) ([]byte, error){
	".jpg":  exportJpeg,
	".jpeg": exportJpeg,
	".png": func(ref *vips.ImageRef, _ int) ([]byte, error) {
		buf, _, err := ref.ExportPng(vips.NewPngExportParams())
		return buf, err
	},
	".webp": func(ref *vips.ImageRef, quality int) ([]byte, error) {
		params := vips.NewWebpExportParams()
		params.Quality = quality
		buf, _, err := ref.ExportWebp(params)
		return buf, err
	},
	".gif": func(ref *vips.ImageRef, _ int) ([]byte, error) {
		buf, _, err := ref.ExportGIF(vips.NewGifExportParams())
		return buf, err
	},
	".tif":  exportTiff,
	".tiff": exportTiff,
}

func exportJpeg(ref *vips.ImageRef, quality int) ([]byte, error) {
	buf, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        quality,
		StripMetadata:  true,
		OptimizeCoding: true,
	})
	return buf, err
}

func exportTiff(ref *vips.ImageRef, _ int) ([]byte, error) {
	buf, _, err := ref.ExportTiff(vips.NewTiffExportParams())
	return buf, err
}

// Resampler writes static thumbnails with libvips.
type Resampler struct {
	quality int
}

// NewResampler initializes libvips if needed and returns a Resampler that
// encodes lossy output at the given quality (1-100).
func NewResampler(quality int) (*Resampler, error) {
	if err := InitVips(); err != nil {
		return nil, err
	}
	if quality < 1 || quality > 100 {
		quality = 90
	}
	return &Resampler{quality: quality}, nil
}

// Name identifies the backend in logs and metrics.
func (r *Resampler) Name() string {
	return "vips"
}

// OutputName keeps name when libvips can encode its extension and
// otherwise replaces the extension with .png.
func (r *Resampler) OutputName(name string) string {
	if _, ok := exporters[strings.ToLower(filepath.Ext(name))]; ok {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
}

// Resample loads src, rotates it upright, scales it to exactly size with a
// Lanczos3 kernel and writes it to dst.
func (r *Resampler) Resample(ctx context.Context, src, dst string, size dimensions.Dimensions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !size.Valid() {
		return fmt.Errorf("%w: %s", dimensions.ErrInvalidSpec, size)
	}
	if !IsVipsAvailable() {
		return fmt.Errorf("libvips not available")
	}

	export, ok := exporters[strings.ToLower(filepath.Ext(dst))]
	if !ok {
		return fmt.Errorf("vips cannot encode %s", filepath.Base(dst))
	}

	ref, err := vips.LoadImageFromFile(src, vips.NewImportParams())
	if err != nil {
		return fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		return fmt.Errorf("vips rotate failed: %w", err)
	}

	logging.Debug("Vips loaded %s: %dx%d, resizing to %s",
		filepath.Base(src), ref.Width(), ref.Height(), size)

	hscale := float64(size.Width) / float64(ref.Width())
	vscale := float64(size.Height) / float64(ref.Height())
	if err := ref.ResizeWithVScale(hscale, vscale, vips.KernelLanczos3); err != nil {
		return fmt.Errorf("vips resize failed: %w", err)
	}

	buf, err := export(ref, r.quality)
	if err != nil {
		return fmt.Errorf("vips export failed: %w", err)
	}
	if err := os.WriteFile(dst, buf, 0644); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}
