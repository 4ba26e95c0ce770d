package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexwlchan/create-thumbnail/internal/dimensions"
	"github.com/alexwlchan/create-thumbnail/internal/logging"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when the configured quality is out of range.
const DefaultJPEGQuality = 90

// fallbackExtension is used for sources that cannot be encoded, such as HEIC.
const fallbackExtension = ".png"

// webpExtension is written with nativewebp, which imaging lacks an encoder for.
const webpExtension = ".webp"

// Resampler writes static thumbnails with imaging.
type Resampler struct {
	jpegQuality int
}

// NewResampler returns a Resampler that encodes JPEG output at the given
// quality (1-100).
func NewResampler(jpegQuality int) *Resampler {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &Resampler{jpegQuality: jpegQuality}
}

// Name identifies the backend in logs and metrics.
func (r *Resampler) Name() string {
	return "imaging"
}

// OutputName returns the file name to write a thumbnail of name under. The
// name is kept when imaging or nativewebp can encode its extension;
// otherwise the extension is replaced with .png.
func (r *Resampler) OutputName(name string) string {
	if isWebP(name) {
		return name
	}
	if _, err := imaging.FormatFromFilename(name); err == nil {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + fallbackExtension
}

// Resample decodes src, applies its EXIF orientation, resizes it to exactly
// size with a Lanczos filter and saves it to dst.
func (r *Resampler) Resample(ctx context.Context, src, dst string, size dimensions.Dimensions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !size.Valid() {
		return fmt.Errorf("%w: %s", dimensions.ErrInvalidSpec, size)
	}

	orientation := readFileOrientation(src)

	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	img = orientation.Apply(img)

	if err := ctx.Err(); err != nil {
		return err
	}

	logging.Debug("Resizing %s from %dx%d to %s",
		filepath.Base(src), img.Bounds().Dx(), img.Bounds().Dy(), size)
	thumb := imaging.Resize(img, size.Width, size.Height, imaging.Lanczos)

	if isWebP(dst) {
		return saveWebP(thumb, dst)
	}
	if err := imaging.Save(thumb, dst, imaging.JPEGQuality(r.jpegQuality)); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}

func isWebP(name string) bool {
	return strings.EqualFold(filepath.Ext(name), webpExtension)
}

// saveWebP writes img as lossless WebP. The encoder ignores write errors,
// so it writes to memory first.
func saveWebP(img image.Image, dst string) error {
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		return fmt.Errorf("failed to encode WebP thumbnail: %w", err)
	}
	if err := os.WriteFile(dst, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}

func readFileOrientation(path string) Orientation {
	file, err := os.Open(path)
	if err != nil {
		return OrientationNormal
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	orientation, err := ReadOrientation(file)
	if err != nil {
		logging.Debug("Ignoring unreadable EXIF data in %s: %v", path, err)
		return OrientationNormal
	}
	return orientation
}
