package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexwlchan/create-thumbnail/internal/dimensions"
	"github.com/alexwlchan/create-thumbnail/internal/encoder"
	"github.com/alexwlchan/create-thumbnail/internal/logging"
	"github.com/alexwlchan/create-thumbnail/internal/media"
	"github.com/alexwlchan/create-thumbnail/internal/metrics"
	"github.com/alexwlchan/create-thumbnail/internal/startup"
	"github.com/alexwlchan/create-thumbnail/internal/thumbnail"
	"github.com/alexwlchan/create-thumbnail/internal/vips"
	"github.com/alexwlchan/create-thumbnail/internal/workers"

	"github.com/urfave/cli/v3"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, cancel := context.WithCancelCause(context.Background())
	go handleShutdown(cancel)

	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	logging.Sync()
	os.Exit(code)
}

func handleShutdown(cancel context.CancelCauseFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())
	cancel(fmt.Errorf("received %s", sig))
}

// run executes the command with args (args[0] is the program name) and
// returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := newCommand(stdout, stderr).Run(ctx, args)
	if err == nil {
		return 0
	}

	code := exitFailure
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintf(stderr, "create-thumbnail: %s\n", msg)
	}
	return code
}

func newCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "create-thumbnail",
		Usage:     "Create thumbnails of static and animated images",
		ArgsUsage: "SOURCE...",
		Version:   startup.GetBuildInfo().String(),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out-dir",
				Usage: "directory to write thumbnails into",
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "maximum width of the thumbnail",
			},
			&cli.IntFlag{
				Name:  "height",
				Usage: "maximum height of the thumbnail",
			},
			&cli.StringFlag{
				Name:      "config",
				Usage:     "path to a YAML, TOML or JSON config file",
				TakesFile: true,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "number of thumbnails to create concurrently (0 picks from available CPUs)",
			},
			&cli.StringFlag{
				Name:  "engine",
				Usage: "static resampler: imaging or vips",
			},
			&cli.IntFlag{
				Name:  "jpeg-quality",
				Usage: "quality of JPEG thumbnails (1-100)",
			},
			&cli.StringFlag{
				Name:  "encoder-path",
				Usage: "ffmpeg binary used for animated thumbnails",
			},
			&cli.DurationFlag{
				Name:  "encoder-timeout",
				Usage: "time limit for each ffmpeg run (0 disables)",
			},
			&cli.StringFlag{
				Name:      "metrics-file",
				Usage:     "write Prometheus metrics to this textfile after the batch",
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return cli.Exit(err, exitUsage)
		},
		// run reports errors and picks the exit status itself.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action:         action,
	}
}

// flagKeys maps flags onto the configuration keys they override.
var flagKeys = map[string]string{
	"workers":         startup.KeyWorkers,
	"engine":          startup.KeyEngine,
	"jpeg-quality":    startup.KeyJPEGQuality,
	"encoder-path":    startup.KeyEncoderPath,
	"encoder-timeout": startup.KeyEncoderTimeout,
	"metrics-file":    startup.KeyMetricsFile,
	"log-level":       startup.KeyLogLevel,
}

func loadConfig(c *cli.Command) (*startup.Config, error) {
	v := startup.NewViper()
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			v.Set(key, c.Value(flag))
		}
	}
	return startup.LoadConfig(v, c.String("config"))
}

// outcome is what the batch reports for one source. ran is false when the
// batch was cancelled before the source was rendered.
type outcome struct {
	plan   *thumbnail.Plan
	result *thumbnail.Result
	err    error
	ran    bool
}

func action(ctx context.Context, c *cli.Command) error {
	sources := c.Args().Slice()
	if len(sources) == 0 {
		return cli.Exit("at least one SOURCE is required", exitUsage)
	}
	outDir := c.String("out-dir")
	if outDir == "" {
		return cli.Exit("--out-dir is required", exitUsage)
	}
	target, err := dimensions.NewTargetSpec(c.Int("width"), c.Int("height"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("%v (use --width, --height or both)", err), exitUsage)
	}

	config, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err, exitUsage)
	}

	resampler, closeResampler, err := newResampler(config)
	if err != nil {
		return cli.Exit(err, exitFailure)
	}
	defer closeResampler()
	logging.Debug("Using %s resampler", resampler.Name())

	enc := encoder.New(config.EncoderPath, config.EncoderTimeout)
	if err := enc.Available(); err != nil {
		logging.Warn("Animated sources will fail: %v", err)
	} else if logging.IsDebugEnabled() {
		if err := startup.CheckEncoder(ctx, enc.Path()); err != nil {
			logging.Debug("  FFmpeg check failed: %v", err)
		}
	}

	metrics.InitializeMetrics()
	gen := thumbnail.New(resampler, enc, thumbnail.WithObserver(metrics.NewThumbnailObserver()))

	progress := newBatchProgress(len(sources))
	collector := metrics.NewCollector(progress, config.ProgressInterval)
	collector.Start()

	batchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if n := enc.Running(); n > 0 {
				logging.Info("Stopping %d encoder process(es)", n)
			}
			enc.Cleanup()
		case <-batchDone:
		}
	}()

	n := workers.Size(config.Workers, len(sources))
	startup.LogBatchStarted(len(sources), n)
	start := time.Now()

	results, runErr := runBatch(ctx, gen, progress, n, sources, outDir, target)
	close(batchDone)
	collector.Stop()

	failed := report(c, sources, results, runErr)
	startup.LogBatchComplete(len(sources)-failed, failed, time.Since(start))

	if config.MetricsFile != "" {
		if err := metrics.WriteTextfile(config.MetricsFile); err != nil {
			return cli.Exit(err, exitFailure)
		}
	}

	if failed > 0 {
		return cli.Exit("", exitFailure)
	}
	return nil
}

// runBatch plans every source, rejects sources whose destinations collide
// and renders the rest. Nothing is written until every source is planned.
func runBatch(ctx context.Context, gen *thumbnail.Generator, progress *batchProgress, n int,
	sources []string, outDir string, target dimensions.TargetSpec) ([]outcome, error) {
	results, runErr := workers.Run(ctx, n, sources, func(_ context.Context, src string) outcome {
		progress.start()
		p, err := gen.Plan(thumbnail.Request{Source: src, OutDir: outDir, Target: target})
		if err != nil {
			progress.finish(err)
			return outcome{err: err, ran: true}
		}
		return outcome{plan: p}
	})

	plans := make([]*thumbnail.Plan, len(results))
	for i, o := range results {
		plans[i] = o.plan
	}
	var pending []int
	for i, err := range gen.CheckDestinations(sources, plans) {
		switch {
		case err != nil:
			progress.finish(err)
			results[i] = outcome{err: err, ran: true}
		case plans[i] != nil:
			pending = append(pending, i)
		}
	}

	rendered, renderErr := workers.Run(ctx, n, pending, func(ctx context.Context, i int) outcome {
		res, err := gen.Render(ctx, plans[i])
		progress.finish(err)
		return outcome{result: res, err: err, ran: true}
	})
	for k, i := range pending {
		if !rendered[k].ran {
			progress.abandon()
		}
		results[i] = rendered[k]
	}

	if runErr == nil {
		runErr = renderErr
	}
	return results, runErr
}

// report prints thumbnail paths to the command's writer and failures to its
// error writer, in source order, and returns the number of failures.
func report(c *cli.Command, sources []string, results []outcome, runErr error) int {
	failed := 0
	for i, o := range results {
		switch {
		case !o.ran:
			failed++
			fmt.Fprintf(c.Root().ErrWriter, "create-thumbnail: %s: skipped: %v\n", sources[i], runErr)
		case o.err != nil:
			failed++
			fmt.Fprintf(c.Root().ErrWriter, "create-thumbnail: %v\n", o.err)
		default:
			fmt.Fprintln(c.Root().Writer, o.result.Destination)
		}
	}
	return failed
}

type staticResampler interface {
	thumbnail.Resampler
	Name() string
}

func newResampler(config *startup.Config) (staticResampler, func(), error) {
	if config.Engine == startup.EngineVips {
		r, err := vips.NewResampler(config.JPEGQuality)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize libvips: %w", err)
		}
		return r, vips.ShutdownVips, nil
	}
	return media.NewResampler(config.JPEGQuality), func() {}, nil
}

var (
	_ staticResampler       = (*media.Resampler)(nil)
	_ staticResampler       = (*vips.Resampler)(nil)
	_ thumbnail.Encoder     = (*encoder.FFmpeg)(nil)
	_ metrics.StatsProvider = (*batchProgress)(nil)
)
