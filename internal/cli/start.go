package cli

import (
	"github.com/spf13/cobra"

	"github.com/skhd-go/skhd/internal/logger"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start skhd (resume if paused)",
	Long:  `Resume a running skhd daemon that was previously paused with 'skhd stop'.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requiresRunningInstance()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Debug("starting/resuming daemon")
		return sendCommand("start", args)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
