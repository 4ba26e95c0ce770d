package media

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"

	"github.com/alexwlchan/create-thumbnail/internal/dimensions"
	"github.com/alexwlchan/create-thumbnail/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // WebP format support
)

// ErrUnrecognizedFormat is returned when no registered decoder accepts the
// file.
var ErrUnrecognizedFormat = errors.New("unrecognized image format")

// Info describes an image as stored on disk.
type Info struct {
	// Format is the decoder name reported by image.DecodeConfig.
	Format string
	// Stored is the pixel size before orientation is applied.
	Stored      dimensions.Dimensions
	Orientation Orientation
}

// Oriented returns the size at which the image is meant to be displayed.
func (i Info) Oriented() dimensions.Dimensions {
	if i.Orientation.SwapsAxes() {
		return dimensions.Dimensions{Width: i.Stored.Height, Height: i.Stored.Width}
	}
	return i.Stored
}

// Probe reads the header and orientation of the image at path.
//
// Errors from opening or reading the file are returned wrapped, so
// errors.Is(err, fs.ErrNotExist) works. Content that no decoder accepts
// yields ErrUnrecognizedFormat.
func Probe(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, format, err := image.DecodeConfig(file)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return Info{}, err
		}
		return Info{}, fmt.Errorf("%w: %s: %w", ErrUnrecognizedFormat, path, err)
	}

	info := Info{
		Format:      format,
		Stored:      dimensions.Dimensions{Width: config.Width, Height: config.Height},
		Orientation: OrientationNormal,
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return Info{}, err
	}
	orientation, err := ReadOrientation(file)
	if err != nil {
		logging.Debug("Ignoring unreadable EXIF data in %s: %v", path, err)
	} else {
		info.Orientation = orientation
	}

	logging.Debug("Image %s: %s %s, orientation %d", path, format, info.Stored, info.Orientation)
	return info, nil
}

// GetImageDimensions returns the display dimensions of the image at path.
func GetImageDimensions(path string) (dimensions.Dimensions, error) {
	info, err := Probe(path)
	if err != nil {
		return dimensions.Dimensions{}, err
	}
	return info.Oriented(), nil
}
