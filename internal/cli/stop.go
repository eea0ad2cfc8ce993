package cli

import (
	"github.com/spf13/cobra"

	"github.com/skhd-go/skhd/internal/logger"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Pause skhd (does not quit)",
	Long:  `Pause the skhd daemon. Events pass through untouched but the process keeps running and stays reachable over IPC.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requiresRunningInstance()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Debug("stopping/pausing daemon")
		return sendCommand("stop", args)
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
