package media

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/dsoprea/go-exif/v3"
)

// Orientation is the value of the EXIF Orientation tag (1-8).
type Orientation uint16

// EXIF orientations, named after the transform that displays them upright.
const (
	OrientationNormal     Orientation = 1
	OrientationFlipH      Orientation = 2
	OrientationRotate180  Orientation = 3
	OrientationFlipV      Orientation = 4
	OrientationTranspose  Orientation = 5
	OrientationRotate270  Orientation = 6
	OrientationTransverse Orientation = 7
	OrientationRotate90   Orientation = 8
)

var orientationNames = map[Orientation]string{
	OrientationNormal:     "normal",
	OrientationFlipH:      "flip-h",
	OrientationRotate180:  "rotate-180",
	OrientationFlipV:      "flip-v",
	OrientationTranspose:  "transpose",
	OrientationRotate270:  "rotate-270",
	OrientationTransverse: "transverse",
	OrientationRotate90:   "rotate-90",
}

func (o Orientation) String() string {
	if name, ok := orientationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("orientation(%d)", uint16(o))
}

// SwapsAxes reports whether width and height trade places when the
// orientation is applied.
func (o Orientation) SwapsAxes() bool {
	return o >= OrientationTranspose && o <= OrientationRotate90
}

// Apply returns img transformed so that it displays upright.
func (o Orientation) Apply(img image.Image) image.Image {
	switch o {
	case OrientationFlipH:
		return imaging.FlipH(img)
	case OrientationRotate180:
		return imaging.Rotate180(img)
	case OrientationFlipV:
		return imaging.FlipV(img)
	case OrientationTranspose:
		return imaging.Transpose(img)
	case OrientationRotate270:
		return imaging.Rotate270(img)
	case OrientationTransverse:
		return imaging.Transverse(img)
	case OrientationRotate90:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// ReadOrientation finds the EXIF Orientation tag in r. Images without EXIF
// data, or without the tag, are OrientationNormal.
func ReadOrientation(r io.Reader) (Orientation, error) {
	rawExif, err := exif.SearchAndExtractExifWithReader(r)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return OrientationNormal, nil
		}
		return OrientationNormal, fmt.Errorf("reading exif data: %w", err)
	}

	tags, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return OrientationNormal, fmt.Errorf("parsing exif data: %w", err)
	}

	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}

		var value uint16
		switch v := tag.Value.(type) {
		case []uint16:
			if len(v) == 0 {
				return OrientationNormal, nil
			}
			value = v[0]
		case uint16:
			value = v
		default:
			return OrientationNormal, fmt.Errorf("orientation has type %T", tag.Value)
		}

		// Some cameras write 0 to mean "not set".
		if value == 0 {
			return OrientationNormal, nil
		}
		if value > uint16(OrientationRotate90) {
			return OrientationNormal, fmt.Errorf("orientation out of range: %d", value)
		}
		return Orientation(value), nil
	}

	return OrientationNormal, nil
}
