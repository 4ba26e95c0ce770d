package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexwlchan/create-thumbnail/internal/dimensions"
)

// createTestImage creates a gradient test image and saves it to the given path
func createTestImage(t *testing.T, path string, width, height int, format string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		t.Fatalf("Unsupported test image format: %s", format)
	}
	if err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}
}

// exifSegment builds a JPEG APP1 segment holding a big-endian TIFF
// structure with a single Orientation entry.
func exifSegment(orientation uint16) []byte {
	tiff := []byte{
		'M', 'M', 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08, // header, IFD0 at 8
		0x00, 0x01, // one entry
		0x01, 0x12, // Orientation
		0x00, 0x03, // SHORT
		0x00, 0x00, 0x00, 0x01, // count
		byte(orientation >> 8), byte(orientation), 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}
	payload := append([]byte("Exif\x00\x00"), tiff...)
	length := len(payload) + 2
	return append([]byte{0xff, 0xe1, byte(length >> 8), byte(length)}, payload...)
}

// createOrientedJPEG writes a JPEG whose stored pixels are width x height
// and whose EXIF data carries the given orientation.
func createOrientedJPEG(t *testing.T, path string, width, height int, orientation uint16) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Failed to encode JPEG: %v", err)
	}

	data := buf.Bytes()
	out := append([]byte{}, data[:2]...) // SOI
	out = append(out, exifSegment(orientation)...)
	out = append(out, data[2:]...)

	if err := os.WriteFile(path, out, 0644); err != nil {
		t.Fatalf("Failed to write JPEG: %v", err)
	}
}

func TestGetImageDimensions(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name   string
		width  int
		height int
		format string
	}{
		{name: "Small JPEG", width: 100, height: 100, format: "jpeg"},
		{name: "Large JPEG", width: 4000, height: 3000, format: "jpeg"},
		{name: "Small PNG", width: 200, height: 150, format: "png"},
		{name: "Tall PNG", width: 30, height: 900, format: "png"},
		{name: "GIF", width: 64, height: 48, format: "gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+"."+tt.format)
			createTestImage(t, path, tt.width, tt.height, tt.format)

			got, err := GetImageDimensions(path)
			if err != nil {
				t.Fatalf("GetImageDimensions() error = %v", err)
			}
			want := dimensions.Dimensions{Width: tt.width, Height: tt.height}
			if got != want {
				t.Errorf("GetImageDimensions() = %v, want %v", got, want)
			}
		})
	}
}

func TestProbeErrors(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Probe(filepath.Join(tmpDir, "missing.png"))
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Probe() error = %v, want fs.ErrNotExist", err)
		}
	})

	t.Run("not an image", func(t *testing.T) {
		path := filepath.Join(tmpDir, "notes.png")
		if err := os.WriteFile(path, []byte("plain text, not pixels"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := Probe(path)
		if !errors.Is(err, ErrUnrecognizedFormat) {
			t.Errorf("Probe() error = %v, want ErrUnrecognizedFormat", err)
		}
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Probe(tmpDir)
		if err == nil {
			t.Fatal("Probe() on a directory should fail")
		}
		if errors.Is(err, ErrUnrecognizedFormat) {
			t.Errorf("Probe() error = %v, want a read error", err)
		}
	})
}

func TestProbeOrientation(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		orientation uint16
		want        dimensions.Dimensions
	}{
		{1, dimensions.Dimensions{Width: 40, Height: 20}},
		{3, dimensions.Dimensions{Width: 40, Height: 20}},
		{6, dimensions.Dimensions{Width: 20, Height: 40}},
		{8, dimensions.Dimensions{Width: 20, Height: 40}},
	}

	for _, tt := range tests {
		t.Run(Orientation(tt.orientation).String(), func(t *testing.T) {
			path := filepath.Join(tmpDir, "oriented.jpg")
			createOrientedJPEG(t, path, 40, 20, tt.orientation)

			info, err := Probe(path)
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if info.Orientation != Orientation(tt.orientation) {
				t.Errorf("Orientation = %d, want %d", info.Orientation, tt.orientation)
			}
			if info.Stored != (dimensions.Dimensions{Width: 40, Height: 20}) {
				t.Errorf("Stored = %v, want 40x20", info.Stored)
			}
			if got := info.Oriented(); got != tt.want {
				t.Errorf("Oriented() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadOrientationWithoutExif(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}

	got, err := ReadOrientation(&buf)
	if err != nil {
		t.Fatalf("ReadOrientation() error = %v", err)
	}
	if got != OrientationNormal {
		t.Errorf("ReadOrientation() = %d, want normal", got)
	}
}

func TestOrientationApply(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}

	// 3x2 image with only the top-left pixel red.
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(0, 0, red)

	tests := []struct {
		orientation Orientation
		wantSize    image.Point
		wantRed     image.Point
	}{
		{OrientationNormal, image.Pt(3, 2), image.Pt(0, 0)},
		{OrientationFlipH, image.Pt(3, 2), image.Pt(2, 0)},
		{OrientationRotate180, image.Pt(3, 2), image.Pt(2, 1)},
		{OrientationFlipV, image.Pt(3, 2), image.Pt(0, 1)},
		{OrientationTranspose, image.Pt(2, 3), image.Pt(0, 0)},
		{OrientationRotate270, image.Pt(2, 3), image.Pt(1, 0)},
		{OrientationTransverse, image.Pt(2, 3), image.Pt(1, 2)},
		{OrientationRotate90, image.Pt(2, 3), image.Pt(0, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.orientation.String(), func(t *testing.T) {
			got := tt.orientation.Apply(src)
			if size := got.Bounds().Size(); size != tt.wantSize {
				t.Fatalf("size = %v, want %v", size, tt.wantSize)
			}
			r, _, _, _ := got.At(tt.wantRed.X, tt.wantRed.Y).RGBA()
			if r>>8 != 255 {
				t.Errorf("pixel %v is not red", tt.wantRed)
			}
			if tt.orientation.SwapsAxes() != (tt.wantSize.X == 2) {
				t.Errorf("SwapsAxes() = %v", tt.orientation.SwapsAxes())
			}
		})
	}
}
