package mallctl

import "github.com/spf13/cobra"

var (
	listCmd = &cobra.Command{
		Use:   "list [prefix]",
		Short: "Lists all known controls with type and operations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			list(cmd.OutOrStdout(), prefix)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [name]",
		Short: "Reads the value of a control",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return get(controller, cmd.OutOrStdout(), args[0])
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [name] [value]",
		Short: "Writes a new value to a control",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return set(controller, cmd.OutOrStdout(), args[0], args[1])
		},
	}
	swapCmd = &cobra.Command{
		Use:   "swap [name] [value]",
		Short: "Writes a new value and prints the previous one, in one call",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return swap(controller, cmd.OutOrStdout(), args[0], args[1])
		},
	}
	mibCmd = &cobra.Command{
		Use:   "mib [name]",
		Short: "Resolves a control name to its MIB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mib(controller, cmd.OutOrStdout(), args[0])
		},
	}
	epochCmd = &cobra.Command{
		Use:   "epoch",
		Short: "Refreshes the statistics and prints the new epoch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return epoch(controller, cmd.OutOrStdout())
		},
	}
	execCmd = &cobra.Command{
		Use:   "exec",
		Short: "Runs get/set/swap/mib/epoch lines from stdin against one engine",
		Long: `Runs a script read from stdin, one command per line:

  get <name>
  set <name> <value>
  swap <name> <value>
  mib <name>
  epoch

All lines run against the same engine, so state written by one line is seen
by the next. Blank lines and lines starting with # are ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execScript(controller, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
)
