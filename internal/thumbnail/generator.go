package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexwlchan/create-thumbnail/internal/animation"
	"github.com/alexwlchan/create-thumbnail/internal/dimensions"
	"github.com/alexwlchan/create-thumbnail/internal/logging"
	"github.com/alexwlchan/create-thumbnail/internal/media"
)

// AnimatedExtension is the extension of every animated thumbnail.
const AnimatedExtension = ".mp4"

// Resampler renders static thumbnails.
type Resampler interface {
	// Resample writes src resized to exactly size at dst.
	Resample(ctx context.Context, src, dst string, size dimensions.Dimensions) error
	// OutputName maps a source file name to a name the backend can write.
	OutputName(name string) string
}

// Encoder renders animated thumbnails as video loops.
type Encoder interface {
	Encode(ctx context.Context, src, dst string, size dimensions.Dimensions) error
}

// Observer receives events for instrumentation. Implementations must be
// safe for concurrent use.
type Observer interface {
	// ObserveRequest is called once per Create call. renderPath is "static",
	// "animated" or "none" if the request failed before classification;
	// status is "success" or the failing Kind.
	ObserveRequest(renderPath, status string, durationSeconds float64)
	ObserveClassification(format, result string)
	ObserveEncoderFailure()
}

type noopObserver struct{}

func (noopObserver) ObserveRequest(string, string, float64) {}
func (noopObserver) ObserveClassification(string, string)   {}
func (noopObserver) ObserveEncoderFailure()                 {}

// RenderPath is the rendering route chosen for a source.
type RenderPath string

const (
	RenderNone     RenderPath = "none"
	RenderStatic   RenderPath = "static"
	RenderAnimated RenderPath = "animated"
)

// Request asks for one thumbnail.
type Request struct {
	Source string
	OutDir string
	Target dimensions.TargetSpec
}

// Result describes a written thumbnail.
type Result struct {
	Source      string
	Destination string
	Path        RenderPath
	// Original is the display size of the source, orientation applied.
	Original dimensions.Dimensions
	// Size is the size that was rendered.
	Size           dimensions.Dimensions
	Classification animation.Classification
	Duration       time.Duration
}

// Generator creates thumbnails.
type Generator struct {
	resampler Resampler
	encoder   Encoder
	observer  Observer
}

// Option configures a Generator.
type Option func(*Generator)

// WithObserver reports events to o.
func WithObserver(o Observer) Option {
	return func(g *Generator) {
		if o != nil {
			g.observer = o
		}
	}
}

// New creates a Generator using the given backends.
func New(resampler Resampler, encoder Encoder, opts ...Option) *Generator {
	g := &Generator{
		resampler: resampler,
		encoder:   encoder,
		observer:  noopObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Plan is a request whose source has been probed and classified and whose
// destination is known, but which has not been rendered yet.
type Plan struct {
	req    Request
	size   dimensions.Dimensions
	result *Result
	start  time.Time
}

// Destination returns the path the thumbnail will be written to.
func (p *Plan) Destination() string {
	return p.result.Destination
}

// Create renders the thumbnail described by req.
func (g *Generator) Create(ctx context.Context, req Request) (*Result, error) {
	p, err := g.Plan(req)
	if err != nil {
		return nil, err
	}
	return g.Render(ctx, p)
}

// Plan probes and classifies the source of req and resolves its
// destination without writing anything. A failed plan is reported to the
// observer as a finished request.
func (g *Generator) Plan(req Request) (*Plan, error) {
	p := &Plan{
		req:    req,
		result: &Result{Source: req.Source, Path: RenderNone},
		start:  time.Now(),
	}
	if err := g.plan(p); err != nil {
		return nil, g.finish(p, err)
	}
	return p, nil
}

// Render writes the thumbnail planned by p.
func (g *Generator) Render(ctx context.Context, p *Plan) (*Result, error) {
	if err := g.render(ctx, p); err != nil {
		return nil, g.finish(p, err)
	}
	g.finish(p, nil)
	logging.Debug("Created %s thumbnail %s (%s) in %v",
		p.result.Path, p.result.Destination, p.result.Size, p.result.Duration)
	return p.result, nil
}

// reject ends p without rendering it.
func (g *Generator) reject(p *Plan, err error) error {
	return g.finish(p, err)
}

// CheckDestinations finds plans that would write over each other or over
// one of the batch's sources. plans[i] is the plan for sources[i], or nil
// if that source could not be planned. Plans are checked in order, so the
// first claim on a destination wins. The returned slice has one entry per
// plan and conflicting plans are rejected; they must not be rendered.
func (g *Generator) CheckDestinations(sources []string, plans []*Plan) []error {
	errs := make([]error, len(plans))
	sourceIndex := make(map[string]int, len(sources))
	for i, src := range sources {
		if abs, err := filepath.Abs(src); err == nil {
			if _, seen := sourceIndex[abs]; !seen {
				sourceIndex[abs] = i
			}
		}
	}

	claimed := make(map[string]int, len(plans))
	for i, p := range plans {
		if p == nil {
			continue
		}
		dst, err := filepath.Abs(p.Destination())
		if err != nil {
			errs[i] = g.reject(p, newError(KindIOError, p.Destination(), err))
			continue
		}

		var conflict error
		if j, ok := sourceIndex[dst]; ok && j != i {
			conflict = fmt.Errorf("%w: would overwrite source %s", ErrDestinationConflict, sources[j])
		} else if j, ok := claimed[dst]; ok {
			conflict = fmt.Errorf("%w: already written for %s", ErrDestinationConflict, plans[j].req.Source)
		}
		if conflict != nil {
			errs[i] = g.reject(p, newError(KindDestinationConflict, p.Destination(), conflict))
			continue
		}
		claimed[dst] = i
	}
	return errs
}

// finish records the outcome of p with the observer and returns err.
func (g *Generator) finish(p *Plan, err error) error {
	p.result.Duration = time.Since(p.start)

	status := "success"
	if kind, ok := KindOf(err); ok {
		status = kind.String()
	}
	g.observer.ObserveRequest(string(p.result.Path), status, p.result.Duration.Seconds())
	return err
}

func (g *Generator) plan(p *Plan) error {
	req, result := p.req, p.result

	if err := req.Target.Validate(); err != nil {
		return newError(KindInvalidSpec, req.Source, err)
	}

	name, err := fileName(req.Source)
	if err != nil {
		return newError(KindIOError, req.Source, err)
	}

	info, err := media.Probe(req.Source)
	if err != nil {
		return newError(probeKind(err), req.Source, err)
	}
	result.Original = info.Oriented()

	size, err := dimensions.Resolve(result.Original, req.Target)
	if err != nil {
		return newError(KindInvalidSpec, req.Source, err)
	}

	c, err := animation.InspectFile(req.Source)
	if err != nil {
		return newError(KindIOError, req.Source, err)
	}
	result.Classification = c
	g.observeClassification(c)

	var dst string
	if c.Status == animation.Animated {
		result.Path = RenderAnimated
		dst = filepath.Join(req.OutDir, strings.TrimSuffix(name, filepath.Ext(name))+AnimatedExtension)
		size = size.Even()
	} else {
		result.Path = RenderStatic
		dst = filepath.Join(req.OutDir, g.resampler.OutputName(name))
	}
	result.Destination = dst
	result.Size = size
	p.size = size

	same, err := samePath(req.Source, dst)
	if err != nil {
		return newError(KindIOError, dst, err)
	}
	if same {
		return newError(KindSameInputOutputPath, dst, ErrSameInputOutputPath)
	}
	return nil
}

func (g *Generator) render(ctx context.Context, p *Plan) error {
	req, dst := p.req, p.result.Destination

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return newError(KindIOError, filepath.Dir(dst), err)
	}

	if p.result.Path == RenderAnimated {
		if err := g.encoder.Encode(ctx, req.Source, dst, p.size); err != nil {
			g.observer.ObserveEncoderFailure()
			return newError(KindEncoderFailed, req.Source, err)
		}
		return nil
	}

	if err := g.resampler.Resample(ctx, req.Source, dst, p.size); err != nil {
		return newError(KindResampleFailed, req.Source, err)
	}
	return nil
}

func (g *Generator) observeClassification(c animation.Classification) {
	result := c.Status.String()
	if c.Degraded != nil {
		result = "degraded"
	}
	g.observer.ObserveClassification(string(c.Format), result)
}

func probeKind(err error) Kind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindSourceNotFound
	case errors.Is(err, media.ErrUnrecognizedFormat):
		return KindUnrecognizedFormat
	default:
		return KindIOError
	}
}

// fileName returns the last element of path, or ErrMissingFileName if
// there is none.
func fileName(path string) (string, error) {
	if path == "" || strings.HasSuffix(path, string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrMissingFileName, path)
	}
	name := filepath.Base(path)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrMissingFileName, path)
	}
	return name, nil
}

// samePath reports whether src and dst refer to the same file, either by
// absolute path or, if dst already exists, by identity on disk.
func samePath(src, dst string) (bool, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return false, err
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return false, err
	}
	if absSrc == absDst {
		return true, nil
	}

	dstInfo, err := os.Stat(dst)
	if err != nil {
		return false, nil
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	return os.SameFile(srcInfo, dstInfo), nil
}
