package cmd

import (
	"fmt"
	"github.com/ValentinKolb/mctl/cmd/mallctl"
	"github.com/ValentinKolb/mctl/cmd/serve"
	"github.com/ValentinKolb/mctl/cmd/stats"
	"github.com/ValentinKolb/mctl/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "mctl",
		Short: "typed allocator control interface",
		Long: fmt.Sprintf(`mctl (v%s)

Inspect and tune a jemalloc-style allocator through its mallctl namespace:
read statistics, change decay and thread settings, trigger heap profile dumps
and export everything as Prometheus metrics.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:     "version",
		Short:   "Print the version of mctl and of the selected engine",
		PreRunE: bindVersionFlags,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "mctl v%s\n", Version)
			conf, err := util.GetConfig()
			if err != nil {
				return err
			}
			e, err := util.OpenEngine(conf, nil)
			if err != nil {
				return err
			}
			defer e.Close()
			info := e.GetInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "engine %s %s (features: %v)\n", info.Impl, info.Version, info.SupportedFeatures)
			return nil
		},
	}
)

func bindVersionFlags(cmd *cobra.Command, _ []string) error {
	return util.BindCommandFlags(cmd)
}

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(mallctl.ControlCommands)
	RootCmd.AddCommand(stats.StatsCmd)
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupEngineFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
