package stats

import (
	"fmt"
	"github.com/ValentinKolb/mctl/cmd/util"
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/ValentinKolb/mctl/lib/ctl/arenas"
	"github.com/ValentinKolb/mctl/lib/ctl/stats"
	libutil "github.com/ValentinKolb/mctl/lib/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"io"
	"time"
)

var (
	// StatsCmd prints an allocator statistics summary
	StatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Prints a summary of allocator statistics",
		Long: `Refreshes the statistics epoch and prints the global counters.

With --arenas the active pages of every arena and how evenly they are spread
are printed as well. With --watch N the summary is sampled N times, --interval
apart, and the change over the window is reported.`,
		PreRunE: bindFlags,
		RunE:    run,
	}
)

func init() {
	key := "arenas"
	StatsCmd.Flags().Bool(key, false, util.WrapString("Also print per-arena page counts and their distribution"))
	key = "watch"
	StatsCmd.Flags().Int(key, 0, util.WrapString("Number of samples to take; 0 prints a single summary"))
	key = "interval"
	StatsCmd.Flags().Duration(key, time.Second, util.WrapString("Time between samples in watch mode"))
}

// bindFlags binds the command flags to viper
func bindFlags(cmd *cobra.Command, _ []string) error {
	return util.BindCommandFlags(cmd)
}

func run(cmd *cobra.Command, _ []string) error {
	c, _, err := util.OpenController()
	if err != nil {
		return err
	}
	defer c.Engine().Close()

	out := cmd.OutOrStdout()
	r, err := stats.NewReader(c)
	if err != nil {
		return err
	}

	if n := viper.GetInt("watch"); n > 0 {
		return watch(c, r, out, n, viper.GetDuration("interval"))
	}

	snap, err := r.Snapshot(c)
	if err != nil {
		return err
	}
	printSnapshot(out, snap)
	if viper.GetBool("arenas") {
		return printArenas(c, out)
	}
	return nil
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

func printSnapshot(out io.Writer, s stats.Snapshot) {
	p := printer()
	p.Fprintf(out, "epoch %d\n", s.Epoch)
	for _, f := range []struct {
		name string
		v    uint
	}{
		{"allocated", s.Allocated},
		{"active", s.Active},
		{"metadata", s.Metadata},
		{"resident", s.Resident},
		{"mapped", s.Mapped},
		{"retained", s.Retained},
	} {
		p.Fprintf(out, "  %-10s %16d bytes\n", f.name, f.v)
	}
	if s.Active > 0 {
		p.Fprintf(out, "  %-10s %15.1f%%\n", "util", 100*float64(s.Allocated)/float64(s.Active))
	}
}

func printArenas(c *ctl.Controller, out io.Writer) error {
	n, err := arenas.Count(c)
	if err != nil {
		return err
	}
	p := printer()
	p.Fprintf(out, "\narenas (%d)\n", n)

	active := make([]float64, 0, n)
	for i := uint(0); i < n; i++ {
		pa, pd, err := stats.ArenaPages(c, i)
		if err != nil {
			return err
		}
		active = append(active, float64(pa))
		p.Fprintf(out, "  %4d  active %10d pages  dirty %10d pages\n", i, pa, pd)
	}

	d := libutil.NewDistributionStats(active)
	p.Fprintf(out, "  mean %.1f  stddev %.1f  min %.0f  max %.0f  balance %.2f\n",
		d.Mean, d.StdDeviation, d.Min, d.Max, d.DistributionQuality)
	return nil
}

// watch samples the statistics n times and reports the window
func watch(c *ctl.Controller, r *stats.Reader, out io.Writer, n int, interval time.Duration) error {
	p := printer()
	allocated := libutil.NewSeries(n)
	resident := libutil.NewSeries(n)

	for i := 0; i < n; i++ {
		if i > 0 {
			time.Sleep(interval)
		}
		s, err := r.Snapshot(c)
		if err != nil {
			return err
		}
		allocated.Add(float64(s.Allocated))
		resident.Add(float64(s.Resident))
		p.Fprintf(out, "epoch %6d  allocated %16d  resident %16d\n", s.Epoch, s.Allocated, s.Resident)
	}

	fmt.Fprintln(out)
	for _, w := range []struct {
		name string
		s    *libutil.Series
	}{{"allocated", allocated}, {"resident", resident}} {
		st := w.s.Stats()
		p.Fprintf(out, "%-10s min %16.0f  max %16.0f  mean %16.0f  delta %+.0f\n",
			w.name, st.Min, st.Max, st.Mean, w.s.Delta())
	}
	return nil
}
