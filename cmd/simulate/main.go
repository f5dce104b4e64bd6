package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/boothwise/internal/simulate"
)

// Default configuration constants.
const (
	defaultVisitors    = 200
	defaultVisits      = 4
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultSettle      = time.Minute
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		visitors = flag.Int("visitors", defaultVisitors, "Number of simulated visitors")
		visits   = flag.Int("visits", defaultVisits, "Booth visits per visitor")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle   = flag.Duration("settle", defaultSettle, "Time allowed for the service to process submissions")
		seed     = flag.Uint64("seed", 1, "Seed for the visit generator")
		skipSeed = flag.Bool("skip-seed", false, "Use the catalog already loaded by the service")
		logFile  = flag.String("log", "", "Also write logs to this file")
		verbose  = flag.Bool("verbose", false, "Log every visitor's recommendations")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	closeLog, err := simulate.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:  *baseURL,
		Visitors: *visitors,
		Visits:   *visits,
		Workers:  *workers,
		Timeout:  *timeout,
		Settle:   *settle,
		Seed:     *seed,
		SkipSeed: *skipSeed,
		Verbose:  *verbose,
	}

	if _, err := simulate.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		cancel()
		_ = closeLog()
		os.Exit(1) //nolint:gocritic // deferred calls are run explicitly above
	}
}
