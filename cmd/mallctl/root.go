package mallctl

import (
	"github.com/ValentinKolb/mctl/cmd/util"
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"

	// catalog packages register their control points
	_ "github.com/ValentinKolb/mctl/lib/ctl/arenas"
	_ "github.com/ValentinKolb/mctl/lib/ctl/config"
	_ "github.com/ValentinKolb/mctl/lib/ctl/opt"
	_ "github.com/ValentinKolb/mctl/lib/ctl/prof"
	_ "github.com/ValentinKolb/mctl/lib/ctl/profiling"
	_ "github.com/ValentinKolb/mctl/lib/ctl/stats"
	_ "github.com/ValentinKolb/mctl/lib/ctl/thread"
)

var (
	Logger = logger.GetLogger("cmd")

	controller *ctl.Controller

	// ControlCommands represents the ctl command group
	ControlCommands = &cobra.Command{
		Use:   "ctl",
		Short: "Read and write allocator controls",
		Long: `Read and write allocator controls by name.

Names are either catalog paths ("stats.allocated") or expansions of indexed
paths ("arena.0.dirty_decay_ms"). Values are written and printed as text.
See 'mctl ctl list' for every known control.`,
		PersistentPreRunE:  openController,
		PersistentPostRunE: closeController,
	}
)

func init() {
	ControlCommands.AddCommand(listCmd)
	ControlCommands.AddCommand(getCmd)
	ControlCommands.AddCommand(setCmd)
	ControlCommands.AddCommand(swapCmd)
	ControlCommands.AddCommand(mibCmd)
	ControlCommands.AddCommand(epochCmd)
	ControlCommands.AddCommand(execCmd)
	ControlCommands.AddCommand(perfTestCmd)
}

// openController opens the configured engine for the subcommand
func openController(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	c, conf, err := util.OpenController()
	if err != nil {
		return err
	}
	Logger.Debugf("configuration:%s", conf)
	controller = c
	return nil
}

func closeController(_ *cobra.Command, _ []string) error {
	if controller == nil {
		return nil
	}
	return controller.Engine().Close()
}
