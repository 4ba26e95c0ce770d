package thumbnail

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFileName is returned when the source path has no final
	// element to name the thumbnail after.
	ErrMissingFileName = errors.New("source path has no file name")

	// ErrSameInputOutputPath is returned when writing the thumbnail would
	// overwrite the source.
	ErrSameInputOutputPath = errors.New("output path is the same as the input path")

	// ErrDestinationConflict is returned when two requests in a batch would
	// write the same thumbnail, or one would overwrite the other's source.
	ErrDestinationConflict = errors.New("destination conflicts with another source")
)

// Kind classifies a failed request.
type Kind int

const (
	KindInvalidSpec Kind = iota + 1
	KindSourceNotFound
	KindIOError
	KindUnrecognizedFormat
	KindSameInputOutputPath
	KindEncoderFailed
	KindResampleFailed
	KindDestinationConflict
)

var kindNames = map[Kind]string{
	KindInvalidSpec:         "invalid_spec",
	KindSourceNotFound:      "source_not_found",
	KindIOError:             "io_error",
	KindUnrecognizedFormat:  "unrecognized_format",
	KindSameInputOutputPath: "same_input_output_path",
	KindEncoderFailed:       "encoder_failed",
	KindResampleFailed:      "resample_failed",
	KindDestinationConflict: "destination_conflict",
}

// String returns the snake_case name used in logs and metric labels.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by Generator.Create.
type Error struct {
	Kind Kind
	// Path is the file the failing step was working on.
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
