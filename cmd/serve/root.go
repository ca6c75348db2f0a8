package serve

import (
	"context"
	"fmt"
	cmdUtil "github.com/ValentinKolb/mctl/cmd/util"
	"github.com/ValentinKolb/mctl/lib/common"
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/ValentinKolb/mctl/lib/exporter"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os/signal"
	"syscall"
	"time"
)

var (
	Logger = logger.GetLogger("cmd")

	serveCmdConfig *common.Config
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Serve allocator statistics as Prometheus metrics",
		Long:    `Start an HTTP server that exposes allocator statistics on /metrics. The configuration can be set via command line flags or environment variables. The format of the environment variables is MCTL_<flag> (e.g. MCTL_REFRESH_INTERVAL=30s)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	key := "endpoint"
	ServeCmd.Flags().String(key, "0.0.0.0:9464", cmdUtil.WrapString("The address on which the metrics endpoint will listen"))

	key = "refresh-interval"
	ServeCmd.Flags().Duration(key, 30*time.Second, cmdUtil.WrapString("How often to refresh the statistics and log a summary, independent of scrapes (0 disables)"))

	key = "per-arena"
	ServeCmd.Flags().Bool(key, true, cmdUtil.WrapString("Export page counts for every arena"))
}

// processConfig reads the configuration from the command line flags and environment variables
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	conf, err := cmdUtil.GetConfig()
	if err != nil {
		return err
	}
	if conf.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	serveCmdConfig = conf
	return nil
}

// run opens the engine and serves metrics until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	Logger.Infof("configuration:%s", serveCmdConfig)

	calls := gometrics.NewRegistry()
	e, err := cmdUtil.OpenEngine(serveCmdConfig, calls)
	if err != nil {
		return err
	}
	defer e.Close()

	info := e.GetInfo()
	Logger.Infof("engine %s %s, features %v", info.Impl, info.Version, info.SupportedFeatures)

	c := ctl.New(e)
	exp, err := exporter.New(c, &exporter.Options{
		PerArena:       viper.GetBool("per-arena"),
		Calls:          calls,
		ProcessMetrics: true,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serveCmdConfig.RefreshInterval > 0 {
		go refreshLoop(ctx, exp, serveCmdConfig.RefreshInterval)
	}
	return exp.Serve(ctx, serveCmdConfig.Endpoint, serveCmdConfig.LogLevel == "debug")
}

// refreshLoop collects periodically so the log shows allocator state even
// without scrapes
func refreshLoop(ctx context.Context, exp *exporter.Exporter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := exp.Collect(); err != nil {
				Logger.Warningf("refresh failed: %v", err)
				continue
			}
			s := exp.Snapshot()
			Logger.Infof("epoch %d: allocated=%d active=%d resident=%d", s.Epoch, s.Allocated, s.Active, s.Resident)
		}
	}
}
