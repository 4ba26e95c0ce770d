package dimensions

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSpec is returned when a target or an original size cannot be
// used for resolution.
var ErrInvalidSpec = errors.New("invalid target dimensions")

// Dimensions is a width and height in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String formats the dimensions as WxH.
func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Valid reports whether both components are strictly positive.
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// Even returns the dimensions with any odd component rounded up by one.
// Video encoders such as libx264 with yuv420p reject odd sizes.
func (d Dimensions) Even() Dimensions {
	return Dimensions{Width: d.Width + d.Width%2, Height: d.Height + d.Height%2}
}

// Mode identifies which variant a TargetSpec holds.
type Mode int

const (
	// ModeNone is the zero value and is never valid.
	ModeNone Mode = iota
	// ModeMaxWidth constrains the width only.
	ModeMaxWidth
	// ModeMaxHeight constrains the height only.
	ModeMaxHeight
	// ModeBoundingBox constrains both.
	ModeBoundingBox
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeMaxWidth:
		return "max-width"
	case ModeMaxHeight:
		return "max-height"
	case ModeBoundingBox:
		return "bounding-box"
	default:
		return "none"
	}
}

// TargetSpec is what a thumbnail request asks for. Build one with MaxWidth,
// MaxHeight, BoundingBox or NewTargetSpec; the zero value is invalid.
type TargetSpec struct {
	mode   Mode
	width  int
	height int
}

// MaxWidth constrains the width to at most w.
func MaxWidth(w int) TargetSpec {
	return TargetSpec{mode: ModeMaxWidth, width: w}
}

// MaxHeight constrains the height to at most h.
func MaxHeight(h int) TargetSpec {
	return TargetSpec{mode: ModeMaxHeight, height: h}
}

// BoundingBox constrains the image to fit inside a w x h box.
func BoundingBox(w, h int) TargetSpec {
	return TargetSpec{mode: ModeBoundingBox, width: w, height: h}
}

// NewTargetSpec builds a spec from optional width and height, where zero
// means "not given". At least one must be given.
func NewTargetSpec(width, height int) (TargetSpec, error) {
	if width < 0 || height < 0 {
		return TargetSpec{}, fmt.Errorf("%w: negative size %dx%d", ErrInvalidSpec, width, height)
	}

	switch {
	case width > 0 && height > 0:
		return BoundingBox(width, height), nil
	case width > 0:
		return MaxWidth(width), nil
	case height > 0:
		return MaxHeight(height), nil
	}
	return TargetSpec{}, fmt.Errorf("%w: one of width or height is required", ErrInvalidSpec)
}

// Mode returns the variant of the spec.
func (t TargetSpec) Mode() Mode {
	return t.mode
}

// Width returns the width constraint, or 0 if the spec has none.
func (t TargetSpec) Width() int {
	return t.width
}

// Height returns the height constraint, or 0 if the spec has none.
func (t TargetSpec) Height() int {
	return t.height
}

// Validate checks that the spec carries the constraints its mode needs.
func (t TargetSpec) Validate() error {
	switch t.mode {
	case ModeMaxWidth:
		if t.width <= 0 {
			return fmt.Errorf("%w: max width must be positive, got %d", ErrInvalidSpec, t.width)
		}
	case ModeMaxHeight:
		if t.height <= 0 {
			return fmt.Errorf("%w: max height must be positive, got %d", ErrInvalidSpec, t.height)
		}
	case ModeBoundingBox:
		if t.width <= 0 || t.height <= 0 {
			return fmt.Errorf("%w: bounding box must be positive, got %dx%d", ErrInvalidSpec, t.width, t.height)
		}
	default:
		return fmt.Errorf("%w: one of width or height is required", ErrInvalidSpec)
	}
	return nil
}

// String describes the spec, e.g. "max-width 300".
func (t TargetSpec) String() string {
	switch t.mode {
	case ModeMaxWidth:
		return fmt.Sprintf("max-width %d", t.width)
	case ModeMaxHeight:
		return fmt.Sprintf("max-height %d", t.height)
	case ModeBoundingBox:
		return fmt.Sprintf("bounding-box %dx%d", t.width, t.height)
	default:
		return "none"
	}
}

// Resolve computes the thumbnail size for an image of the given original
// size.
func Resolve(original Dimensions, target TargetSpec) (Dimensions, error) {
	if err := target.Validate(); err != nil {
		return Dimensions{}, err
	}
	if !original.Valid() {
		return Dimensions{}, fmt.Errorf("%w: original size %s is not positive", ErrInvalidSpec, original)
	}

	switch target.mode {
	case ModeMaxWidth:
		return fitWidth(original, target.width), nil
	case ModeMaxHeight:
		return fitHeight(original, target.height), nil
	}

	// w/h >= ow/oh, compared without division
	boxWiderThanSource := int64(target.width)*int64(original.Height) >= int64(target.height)*int64(original.Width)
	if boxWiderThanSource {
		return fitHeight(original, target.height), nil
	}
	return fitWidth(original, target.width), nil
}

func fitWidth(original Dimensions, w int) Dimensions {
	if w >= original.Width {
		return original
	}
	return Dimensions{Width: w, Height: scale(w, original.Height, original.Width)}
}

func fitHeight(original Dimensions, h int) Dimensions {
	if h >= original.Height {
		return original
	}
	return Dimensions{Width: scale(h, original.Width, original.Height), Height: h}
}

// scale returns round(binding * other / reference), never less than 1.
func scale(binding, other, reference int) int {
	v := math.Round(float64(binding) * float64(other) / float64(reference))
	if v < 1 {
		return 1
	}
	return int(v)
}
