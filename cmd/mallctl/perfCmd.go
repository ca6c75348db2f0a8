package mallctl

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/mctl/cmd/util"
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/ValentinKolb/mctl/lib/ctl/arenas"
	"github.com/ValentinKolb/mctl/lib/ctl/stats"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Measures the cost of control calls on the configured engine",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfNumThreads = 4
	perfSkip       = make([]string, 0)
)

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. resolve,update)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 4, util.WrapString("Parallelism of the read-parallel benchmark"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	perfNumThreads = viper.GetInt("threads")
	if s := viper.GetString("skip"); s != "" {
		perfSkip = strings.Split(s, ",")
	}
	return nil
}

// perfCase is one benchmark; setup runs before the timer starts and returns
// the operation to measure.
type perfCase struct {
	name     string
	parallel bool
	setup    func(c *ctl.Controller) (func() error, error)
}

var perfCases = []perfCase{
	{name: "read-name", setup: func(c *ctl.Controller) (func() error, error) {
		return func() error { _, err := arenas.Page.Read(c); return err }, nil
	}},
	{name: "read-mib", setup: func(c *ctl.Controller) (func() error, error) {
		m, err := arenas.Page.Mib(c)
		return func() error { _, err := m.Read(c); return err }, err
	}},
	{name: "read-indexed", setup: func(c *ctl.Controller) (func() error, error) {
		m, err := arenas.BinSize.Mib(c)
		return func() error { _, err := m.Read(c, 3); return err }, err
	}},
	{name: "resolve", setup: func(c *ctl.Controller) (func() error, error) {
		k := stats.Allocated.Key()
		return func() error { _, err := k.Resolve(c); return err }, nil
	}},
	{name: "update", setup: func(c *ctl.Controller) (func() error, error) {
		m, err := arenas.DirtyDecayMs.Mib(c)
		if err != nil {
			return nil, err
		}
		v, err := m.Read(c)
		return func() error { _, err := m.Update(c, v); return err }, err
	}},
	{name: "snapshot", setup: func(c *ctl.Controller) (func() error, error) {
		r, err := stats.NewReader(c)
		return func() error { _, err := r.Snapshot(c); return err }, err
	}},
	{name: "read-parallel", parallel: true, setup: func(c *ctl.Controller) (func() error, error) {
		m, err := arenas.Quantum.Mib(c)
		return func() error { _, err := m.Read(c); return err }, err
	}},
}

func runPerf(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	info := controller.Engine().GetInfo()
	fmt.Fprintf(out, "Control call benchmark on %s %s (parallelism %d)\n\n", info.Impl, info.Version, perfNumThreads)

	results := make(map[string]testing.BenchmarkResult, len(perfCases))
	for _, pc := range perfCases {
		if shouldSkip(pc.name) {
			results[pc.name] = testing.BenchmarkResult{}
			printResult(out, pc.name, results[pc.name])
			continue
		}
		op, err := pc.setup(controller)
		if err != nil {
			return fmt.Errorf("%s: %w", pc.name, err)
		}
		results[pc.name] = runCase(pc, op)
		printResult(out, pc.name, results[pc.name])
	}

	if path := viper.GetString("csv"); path != "" {
		if err := writeResultsToCSV(path, results); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nresults written to %s\n", path)
	}
	return nil
}

func runCase(pc perfCase, op func() error) testing.BenchmarkResult {
	return testing.Benchmark(func(b *testing.B) {
		if !pc.parallel {
			for i := 0; i < b.N; i++ {
				if err := op(); err != nil {
					Logger.Errorf("(%s) - %v", pc.name, err)
				}
			}
			return
		}
		b.SetParallelism(perfNumThreads)
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				if err := op(); err != nil {
					Logger.Errorf("(%s) - %v", pc.name, err)
				}
			}
		})
	})
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(out io.Writer, test string, result testing.BenchmarkResult) {
	if result.N == 0 {
		fmt.Fprintf(out, "%-16sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.T.Nanoseconds())/float64(result.N), 1)
	opsPerSec := 1e9 / nsPerOp
	fmt.Fprintf(out, "%-16s%8.1fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Test", "N", "NsPerOp", "OpsPerSec", "Skipped", "Engine", "Threads"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	engineName := string(controller.Engine().GetInfo().Impl)
	for _, pc := range perfCases {
		result := results[pc.name]
		var nsPerOp, opsPerSec float64
		skipped := "true"
		if result.N > 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.T.Nanoseconds())/float64(result.N), 1)
			opsPerSec = 1e9 / nsPerOp
		}
		row := []string{
			pc.name,
			strconv.Itoa(result.N),
			fmt.Sprintf("%.1f", nsPerOp),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			engineName,
			strconv.Itoa(perfNumThreads),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", pc.name, err)
		}
	}
	return nil
}
