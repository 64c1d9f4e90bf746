package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/retrigger-io/retrigger/cmd"
	"github.com/retrigger-io/retrigger/pkg/cache"
	"github.com/retrigger-io/retrigger/pkg/enrich"
	"github.com/retrigger-io/retrigger/pkg/filter"
	"github.com/retrigger-io/retrigger/pkg/hashing"
	"github.com/retrigger-io/retrigger/pkg/logging"
	"github.com/retrigger-io/retrigger/pkg/must"
	"github.com/retrigger-io/retrigger/pkg/pipeline"
	"github.com/retrigger-io/retrigger/pkg/random"
	"github.com/retrigger-io/retrigger/pkg/retrigger"
	"github.com/retrigger-io/retrigger/pkg/ring"
	"github.com/retrigger-io/retrigger/pkg/sourcing"
)

// rootConfiguration holds the flags bound to the root command. retrigger is
// deliberately a thin wiring shim: it owns no reconciliation or config-file
// logic of its own, only the process lifecycle around a single Pipeline.
var rootConfiguration struct {
	version bool

	ringPath     string
	capacity     uint32
	batchSize    int
	flushTimeout time.Duration

	strategy string

	includePatterns []string
	excludePatterns []string
	minSize         uint64
	maxSize         uint64
	debounceMillis  uint64

	sweepInterval time.Duration
}

var rootCommand = &cobra.Command{
	Use:   "retrigger <path>",
	Short: "retrigger watches a directory tree and publishes enriched change events over a shared-memory ring",
	Args:  cobra.MaximumNArgs(1),
	RunE:  rootMain,
}

func init() {
	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")

	flags.StringVar(&rootConfiguration.ringPath, "ring-path", "", "Path for the shared-memory ring file (default: a generated path under the OS temp directory)")
	flags.Uint32Var(&rootConfiguration.capacity, "capacity", ring.DefaultCapacity, "Number of slots in the ring")
	flags.IntVar(&rootConfiguration.batchSize, "batch-size", pipeline.DefaultBatchSize, "Maximum number of events accumulated before a flush")
	flags.DurationVar(&rootConfiguration.flushTimeout, "flush-timeout", pipeline.DefaultFlushTimeout, "Maximum time a partial batch waits before being flushed")

	flags.StringVar(&rootConfiguration.strategy, "hash-strategy", "hybrid", "Hashing strategy: fast, tree, hybrid, or auto")

	flags.StringSliceVar(&rootConfiguration.includePatterns, "include", nil, "Doublestar glob patterns to include (default: all)")
	flags.StringSliceVar(&rootConfiguration.excludePatterns, "exclude", nil, "Doublestar glob patterns to exclude")
	flags.Uint64Var(&rootConfiguration.minSize, "min-size", 0, "Minimum event size, in bytes, to accept")
	flags.Uint64Var(&rootConfiguration.maxSize, "max-size", 0, "Maximum event size, in bytes, to accept (0 means no upper bound)")
	flags.Uint64Var(&rootConfiguration.debounceMillis, "debounce", 0, "Debounce window, in milliseconds, for repeated events on the same path (0 disables debouncing)")

	flags.DurationVar(&rootConfiguration.sweepInterval, "sweep-interval", 10*time.Minute, "Interval between hash-cache staleness sweeps")

	cobra.EnableCommandSorting = false
}

func parseStrategy(name string) (hashing.Strategy, error) {
	switch name {
	case "fast":
		return hashing.FastOnly, nil
	case "tree":
		return hashing.TreeOnly, nil
	case "hybrid":
		return hashing.Hybrid, nil
	case "auto":
		return hashing.Auto, nil
	default:
		return 0, errors.Errorf("unknown hash strategy: %s", name)
	}
}

// defaultRingPath generates a ring backing file path under the OS temp
// directory with a random suffix, so that multiple retrigger instances
// watching different targets don't collide on a shared default path.
func defaultRingPath() (string, error) {
	suffix, err := random.New(8)
	if err != nil {
		return "", errors.Wrap(err, "unable to generate ring path suffix")
	}
	name := fmt.Sprintf("retrigger-%x.mmap", suffix)
	return filepath.Join(os.TempDir(), name), nil
}

func rootMain(command *cobra.Command, arguments []string) error {
	if rootConfiguration.version {
		fmt.Println(retrigger.Version)
		return nil
	}

	if len(arguments) == 0 {
		return command.Help()
	}
	target := arguments[0]

	logger := logging.RootLogger.Sublogger("retrigger")

	strategy, err := parseStrategy(rootConfiguration.strategy)
	if err != nil {
		return err
	}

	ringPath := rootConfiguration.ringPath
	if ringPath == "" {
		ringPath, err = defaultRingPath()
		if err != nil {
			return err
		}
	}

	var maxSize *uint64
	if rootConfiguration.maxSize > 0 {
		maxSize = &rootConfiguration.maxSize
	}

	eventFilter, err := filter.New(filter.Config{
		IncludePatterns:      rootConfiguration.includePatterns,
		ExcludePatterns:      rootConfiguration.excludePatterns,
		MinSize:              rootConfiguration.minSize,
		MaxSize:              maxSize,
		DebounceMilliseconds: rootConfiguration.debounceMillis,
	}, logging.RootLogger.Sublogger("filter"))
	if err != nil {
		return errors.Wrap(err, "unable to construct event filter")
	}

	hashCache := cache.New(cache.DefaultConfig(), logging.RootLogger.Sublogger("cache"))
	hasher := hashing.NewEngine(strategy, logging.RootLogger.Sublogger("hashing"))
	enricher := enrich.New(hashCache, hasher, logging.RootLogger.Sublogger("enrich"))

	producer, err := ring.CreateProducer(ring.Config{
		Path:     ringPath,
		Capacity: rootConfiguration.capacity,
	}, logging.RootLogger.Sublogger("ring"))
	if err != nil {
		return errors.Wrap(err, "unable to create ring")
	}

	source, err := sourcing.NewWatchSource(target, logging.RootLogger.Sublogger("sourcing"))
	if err != nil {
		must.Close(producer, logging.RootLogger)
		return errors.Wrap(err, "unable to start watching")
	}

	p := pipeline.New(pipeline.Config{
		BatchSize:    rootConfiguration.batchSize,
		FlushTimeout: rootConfiguration.flushTimeout,
	}, source, eventFilter, enricher, producer, logging.RootLogger.Sublogger("pipeline"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hashCache.SweepPeriodically(ctx, rootConfiguration.sweepInterval)

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	logger.Infof("watching %s, ring at %s", target, ringPath)

	signalTermination := make(chan os.Signal, 1)
	signal.Notify(signalTermination, cmd.TerminationSignals...)

	select {
	case <-signalTermination:
		logger.Info("received termination signal")
	case <-done:
		logger.Info("source closed, shutting down")
	}

	cancel()
	<-done

	if err := source.Close(); err != nil {
		logger.Warnf("error closing watcher: %v", err)
	}

	return nil
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		cmd.Fatal(err)
	}
}
