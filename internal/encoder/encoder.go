package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/alexwlchan/create-thumbnail/internal/dimensions"
	"github.com/alexwlchan/create-thumbnail/internal/logging"
)

// ErrFailed is matched by every error returned from Encode.
var ErrFailed = errors.New("encoder failed")

// DefaultPath is the FFmpeg binary looked up in PATH when none is configured.
const DefaultPath = "ffmpeg"

// waitDelay bounds how long Wait blocks on stderr after the process is killed.
const waitDelay = 2 * time.Second

// stderrTailLines is how much FFmpeg output is kept in error messages.
const stderrTailLines = 5

// FailedError describes an FFmpeg run that did not produce a thumbnail.
type FailedError struct {
	Command  string
	ExitCode int // -1 if the process never started or was killed
	Stderr   string
	Err      error
}

func (e *FailedError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if tail := lastLines(e.Stderr, stderrTailLines); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// Unwrap exposes both ErrFailed and the underlying cause.
func (e *FailedError) Unwrap() []error {
	return []error{ErrFailed, e.Err}
}

// process is a running encode.
type process struct {
	cmd *exec.Cmd
	dst string
}

// FFmpeg runs the ffmpeg binary to encode thumbnails.
type FFmpeg struct {
	path    string
	timeout time.Duration

	processes map[uint64]process
	nextID    uint64
	processMu sync.Mutex
}

// New creates an FFmpeg encoder. An empty path means DefaultPath; a zero
// timeout means runs are only bounded by the caller's context.
func New(path string, timeout time.Duration) *FFmpeg {
	if path == "" {
		path = DefaultPath
	}
	return &FFmpeg{
		path:      path,
		timeout:   timeout,
		processes: make(map[uint64]process),
	}
}

// Name identifies the backend in logs and metrics.
func (f *FFmpeg) Name() string {
	return "ffmpeg"
}

// Path returns the configured binary.
func (f *FFmpeg) Path() string {
	return f.path
}

// Available reports an error if the binary cannot be found.
func (f *FFmpeg) Available() error {
	if _, err := exec.LookPath(f.path); err != nil {
		return fmt.Errorf("%w: %w", ErrFailed, err)
	}
	return nil
}

// Args builds the FFmpeg argument list that scales src to size and writes
// an MP4 to dst.
func Args(src, dst string, size dimensions.Dimensions) []string {
	return []string{
		"-hide_banner",
		"-y",
		"-i", src,
		"-movflags", "faststart",
		"-pix_fmt", "yuv420p",
		"-vf", fmt.Sprintf("scale=%d:%d", size.Width, size.Height),
		dst,
	}
}

// Encode converts src into an MP4 at dst with the given size. Both
// dimensions must be even for yuv420p output.
func (f *FFmpeg) Encode(ctx context.Context, src, dst string, size dimensions.Dimensions) error {
	if !size.Valid() {
		return &FailedError{Command: f.path, ExitCode: -1, Err: fmt.Errorf("%w: %s", dimensions.ErrInvalidSpec, size)}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	args := Args(src, dst, size)
	cmd := exec.CommandContext(ctx, f.path, args...)
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logging.Debug("Running %s %s", f.path, strings.Join(args, " "))
	start := time.Now()

	err := cmd.Start()
	if err == nil {
		id := f.track(cmd, dst)
		err = cmd.Wait()
		f.untrack(id)
	}

	if err != nil {
		failed := &FailedError{
			Command:  f.path,
			ExitCode: -1,
			Stderr:   stderr.String(),
			Err:      err,
		}
		if ctx.Err() != nil {
			failed.Err = ctx.Err()
		} else {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				failed.ExitCode = exitErr.ExitCode()
			}
		}
		logging.Debug("FFmpeg stderr for %s: %s", src, failed.Stderr)
		return failed
	}

	logging.Debug("Encoded %s to %s (%s) in %v", src, dst, size, time.Since(start))
	return nil
}

// track registers a started encode under a new id. Two encodes may share a
// destination, so the id rather than dst identifies the process.
func (f *FFmpeg) track(cmd *exec.Cmd, dst string) uint64 {
	f.processMu.Lock()
	defer f.processMu.Unlock()
	f.nextID++
	f.processes[f.nextID] = process{cmd: cmd, dst: dst}
	return f.nextID
}

func (f *FFmpeg) untrack(id uint64) {
	f.processMu.Lock()
	defer f.processMu.Unlock()
	delete(f.processes, id)
}

// Cleanup stops all running encodes.
func (f *FFmpeg) Cleanup() {
	f.processMu.Lock()
	defer f.processMu.Unlock()

	for _, p := range f.processes {
		if p.cmd.Process != nil {
			logging.Info("Killing encoder process for: %s", p.dst)
			if err := p.cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill encoder process for %s: %v", p.dst, err)
			}
		}
	}
}

// Running returns the number of encodes in progress.
func (f *FFmpeg) Running() int {
	f.processMu.Lock()
	defer f.processMu.Unlock()
	return len(f.processes)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
