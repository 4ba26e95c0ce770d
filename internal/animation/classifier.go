package animation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexwlchan/create-thumbnail/internal/logging"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrIO is returned when the image cannot be opened or read.
	ErrIO = errors.New("cannot read image")

	// ErrMalformed marks a structurally broken animation container. It is
	// never returned by Inspect; it only appears in Classification.Degraded.
	ErrMalformed = errors.New("malformed animation container")
)

// sniffLen matches the default read limit of mimetype.
const sniffLen = 3072

// Status is the result of classifying an image.
type Status int

const (
	// Static images have at most one frame.
	Static Status = iota
	// Animated images have more than one frame.
	Animated
)

// String returns "static" or "animated".
func (s Status) String() string {
	if s == Animated {
		return "animated"
	}
	return "static"
}

// Format is the container format as far as animation is concerned.
type Format string

const (
	// FormatGIF is a GIF87a or GIF89a stream.
	FormatGIF Format = "gif"
	// FormatWebP is a RIFF WebP container, simple or extended.
	FormatWebP Format = "webp"
	// FormatPNG covers both plain PNG and APNG.
	FormatPNG Format = "png"
	// FormatOther is anything without an animation concept.
	FormatOther Format = "other"
)

// Classification is the full outcome of Inspect.
type Classification struct {
	Status Status
	Format Format
	// Frames is the number of frames seen before stopping, at most 2.
	Frames int
	// Degraded holds the structural error that was absorbed into a Static
	// result, or nil.
	Degraded error
}

// frameWalker validates the container header and returns a lazy sequence of
// frame indexes. An error from the walker itself means the header is
// unusable.
type frameWalker func(r *bufio.Reader) (iter.Seq2[int, error], error)

var walkers = map[Format]frameWalker{
	FormatGIF:  gifFrames,
	FormatWebP: webpFrames,
	FormatPNG:  pngFrames,
}

// ClassifyFile reports whether the image at path is animated.
func ClassifyFile(path string) (Status, error) {
	c, err := InspectFile(path)
	return c.Status, err
}

// Classify reports whether the image read from r is animated. The name is
// only used for its extension when the content is not recognised.
func Classify(r io.Reader, name string) (Status, error) {
	c, err := Inspect(r, name)
	return c.Status, err
}

// InspectFile opens path and classifies it.
func InspectFile(path string) (Classification, error) {
	f, err := os.Open(path)
	if err != nil {
		return Classification{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	return Inspect(f, path)
}

// Inspect classifies the image read from r.
func Inspect(r io.Reader, name string) (Classification, error) {
	br := bufio.NewReaderSize(r, sniffLen+1024)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return Classification{}, fmt.Errorf("%w: %s: %w", ErrIO, name, err)
	}

	format := DetectFormat(head, name)
	result := Classification{Status: Static, Format: format}

	walk, ok := walkers[format]
	if !ok {
		return result, nil
	}

	frames, err := walk(br)
	if err != nil {
		return degrade(result, name, err), nil
	}

	n, err := countFrames(frames, 2)
	result.Frames = n
	if n > 1 {
		result.Status = Animated
		return result, nil
	}
	if err != nil {
		return degrade(result, name, err), nil
	}
	return result, nil
}

func degrade(c Classification, name string, err error) Classification {
	logging.Debug("Treating %s as static, %s container is unreadable: %v", name, c.Format, err)
	c.Status = Static
	c.Degraded = err
	return c
}

// countFrames consumes at most limit frames and stops at the first error.
func countFrames(frames iter.Seq2[int, error], limit int) (int, error) {
	n := 0
	for _, err := range frames {
		if err != nil {
			return n, err
		}
		n++
		if n >= limit {
			break
		}
	}
	return n, nil
}

// DetectFormat picks the container format from the leading bytes, falling
// back to the extension of name if the content is not a known image.
func DetectFormat(head []byte, name string) Format {
	mtype := mimetype.Detect(head)
	switch {
	case mtype.Is("image/gif"):
		return FormatGIF
	case mtype.Is("image/webp"):
		return FormatWebP
	case mtype.Is("image/vnd.mozilla.apng"), mtype.Is("image/png"):
		return FormatPNG
	case strings.HasPrefix(mtype.String(), "image/"):
		return FormatOther
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".gif":
		return FormatGIF
	case ".webp":
		return FormatWebP
	case ".png", ".apng":
		return FormatPNG
	}
	return FormatOther
}

func malformed(format Format, msg string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformed, format, fmt.Sprintf(msg, args...))
}
