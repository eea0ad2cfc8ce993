package cli

import (
	"github.com/spf13/cobra"

	"github.com/skhd-go/skhd/internal/logger"
)

// reloadCmd asks a running daemon to reparse its config file and swap it in,
// without restarting the process. Equivalent to the -r/--reload root flag.
var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask the running skhd daemon to reload its config",
	Long:  `Reparse the hotkey config file and swap it into the running daemon, keeping the previous configuration if the new one fails to parse.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requiresRunningInstance()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Debug("reloading config")
		return sendCommand("reload", args)
	},
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}
