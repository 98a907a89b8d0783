package ci

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// TestCounter reports how many tests the repository carries. Implementations
// must be non-fatal: any failure yields 0.
type TestCounter interface {
	Count(ctx context.Context) int
}

// testCountTimeout bounds the external probe.
const testCountTimeout = 30 * time.Second

// goTestCounter probes the test count by listing test functions through the
// go tool without running them.
type goTestCounter struct {
	dir    string
	logger logrus.FieldLogger
}

var _ TestCounter = (*goTestCounter)(nil)

// NewGoTestCounter creates a TestCounter that runs 'go test -list' in dir.
func NewGoTestCounter(dir string, logger logrus.FieldLogger) TestCounter {
	if logger == nil {
		logger = logrus.New()
	}
	return &goTestCounter{
		dir:    dir,
		logger: logger.WithField("source", "testcount"),
	}
}

// Count lists the test functions of every package under dir. Timeouts and
// failures are logged and yield 0.
func (c *goTestCounter) Count(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, testCountTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "test", "-list", ".", "./...")
	cmd.Dir = c.dir

	out, err := cmd.Output()
	if err != nil {
		c.logger.WithError(err).Warn("probe test count")
		return 0
	}

	return countTestNames(string(out))
}

// countTestNames counts the test function names in 'go test -list' output,
// skipping the per-package "ok" trailer lines.
func countTestNames(out string) int {
	var count int
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Test") ||
			strings.HasPrefix(line, "Benchmark") ||
			strings.HasPrefix(line, "Example") ||
			strings.HasPrefix(line, "Fuzz") {
			count++
		}
	}
	return count
}
