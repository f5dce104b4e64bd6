package simulate

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/boothwise/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the global logger on stdout and, when logFile is
// set, on that file too.
func SetupLogging(logFile string) (func() error, error) {
	if logFile == "" {
		return func() error { return nil }, logger.Init()
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file), "text"); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`boothwise simulation
====================

Seeds a booth catalog, walks simulated visitors through the fair and checks
the recommendations the service returns.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -visitors int      Number of simulated visitors (default 200)
  -visits int        Booth visits per visitor (default 4)
  -workers int       Number of concurrent workers (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 10s)
  -settle duration   Time allowed for the service to process submissions (default 1m)
  -seed uint         Seed for the visit generator (default 1)
  -skip-seed         Use the catalog already loaded by the service
  -log string        Also write logs to this file
  -verbose           Log every visitor's recommendations
  -help              Show this help message
`)
}
