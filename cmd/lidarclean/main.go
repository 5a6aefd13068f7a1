// Command lidarclean removes weather noise from LiDAR sequences stored in the
// KITTI layout and reports how many points each filter flags.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/banshee-data/lidarclean/internal/config"
	"github.com/banshee-data/lidarclean/internal/db"
	"github.com/banshee-data/lidarclean/internal/lidar/kitti"
	"github.com/banshee-data/lidarclean/internal/lidar/pipeline"
	"github.com/banshee-data/lidarclean/internal/lidar/storage/sqlite"
	"github.com/banshee-data/lidarclean/internal/lidar/visualiser"
	"github.com/banshee-data/lidarclean/internal/monitoring"
	"github.com/banshee-data/lidarclean/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	input     string
	sequences []string
	output    string
	config    string
	dbPath    string
	render    string
	maxFrames int
	workers   int
	verbose   bool
	version   bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("lidarclean", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: lidarclean [flags]
       lidarclean migrate [-db path] <action>

Flags:`)
		fs.PrintDefaults()
	}

	o := &options{}
	var sequences string
	fs.StringVar(&o.input, "input", "", "dataset root containing <sequence>/velodyne (required)")
	fs.StringVar(&sequences, "sequences", "00", "comma separated sequence names")
	fs.StringVar(&o.output, "output", "", "write filtered frames below this root")
	fs.StringVar(&o.config, "config", "", "tuning config JSON (defaults are built in)")
	fs.StringVar(&o.dbPath, "db", "", "record the run in this SQLite database")
	fs.StringVar(&o.render, "render", "", "write charts and range images to this directory")
	fs.IntVar(&o.maxFrames, "max-frames", 0, "process at most this many frames per sequence (0 = all)")
	fs.IntVar(&o.workers, "workers", 0, "frames processed concurrently (overrides config)")
	fs.BoolVar(&o.verbose, "verbose", false, "log per-frame progress")
	fs.BoolVar(&o.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	for _, s := range strings.Split(sequences, ",") {
		if s = strings.TrimSpace(s); s != "" {
			o.sequences = append(o.sequences, s)
		}
	}
	if o.version {
		return o, nil
	}
	if o.input == "" {
		return nil, errors.New("-input is required")
	}
	if len(o.sequences) == 0 {
		return nil, errors.New("-sequences is empty")
	}
	if o.workers < 0 {
		return nil, fmt.Errorf("-workers must be positive, got %d", o.workers)
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "migrate" {
		return runMigrate(args[1:], stdout, stderr)
	}

	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "lidarclean: %v\n", err)
		return 2
	}
	if o.version {
		fmt.Fprintf(stdout, "lidarclean %s\n", version.String())
		return 0
	}

	monitoring.SetVerbose(o.verbose)
	if err := process(ctx, o, stdout); err != nil {
		fmt.Fprintf(stderr, "lidarclean: %v\n", err)
		return 1
	}
	return 0
}

func runMigrate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "lidarclean.db", "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := db.RunMigrateCommand(fs.Args(), *dbPath, stdout); err != nil {
		fmt.Fprintf(stderr, "lidarclean: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.DefaultTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

func process(ctx context.Context, o *options, stdout io.Writer) error {
	cfg, err := loadConfig(o.config)
	if err != nil {
		return err
	}
	if o.workers > 0 {
		cfg.Workers = &o.workers
	}

	filter, err := pipeline.BuildFilter(cfg)
	if err != nil {
		return err
	}
	projector, err := pipeline.BuildProjector(cfg)
	if err != nil {
		return err
	}
	proc := pipeline.NewProcessor(filter, &projector)
	proc.NoiseClasses = cfg.GetNoiseLabels()

	runner := &pipeline.Runner{
		Processor: proc,
		Workers:   cfg.GetWorkers(),
		MaxFrames: o.maxFrames,
		Discard:   true,
	}

	if o.output != "" {
		runner.Writer = kitti.NewWriter(o.output)
	}
	if o.render != "" {
		runner.Session, err = visualiser.NewSession(o.render)
		if err != nil {
			return err
		}
	}
	if o.dbPath != "" {
		database, err := db.NewDB(o.dbPath)
		if err != nil {
			return err
		}
		defer database.Close()

		params, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		store := sqlite.NewRunStore(database.DB)
		run := &sqlite.Run{Algorithm: cfg.GetAlgorithm(), Source: o.input, Params: params}
		if err := store.CreateRun(run); err != nil {
			return err
		}
		runner.Store = store
		runner.RunID = run.RunID
		monitoring.Logf("[lidarclean] recording run %s in %s", run.RunID, o.dbPath)
	}

	reader := kitti.NewReader(o.input)
	for _, name := range o.sequences {
		res, err := runner.RunSequence(ctx, reader, name)
		if err != nil {
			return fmt.Errorf("sequence %s: %w", name, err)
		}
		printSummary(stdout, res)
	}
	return nil
}

func printSummary(w io.Writer, res *pipeline.SequenceResult) {
	points := 0
	for _, f := range res.Frames {
		points += f.Points
	}
	ratio := 0.0
	if points > 0 {
		ratio = 100 * float64(res.Outliers()) / float64(points)
	}
	fmt.Fprintf(w, "sequence %s: frames=%d points=%d outliers=%d (%.2f%%) time=%v\n",
		res.Sequence, len(res.Frames), points, res.Outliers(), ratio, res.Duration)
	if ev := res.Evaluation; ev.Frames > 0 {
		fmt.Fprintf(w, "  scored=%d precision=%.3f recall=%.3f f1=%.3f iou=%.3f mean_f1=%.3f±%.3f\n",
			ev.Frames, ev.Total.Precision, ev.Total.Recall, ev.Total.F1, ev.Total.IoU, ev.MeanF1, ev.StdF1)
	}
}
