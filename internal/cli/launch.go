package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skhd-go/skhd/internal/logger"
)

// launchCmd represents the command to launch the skhd daemon process.
// Same as running 'skhd' with no subcommand.
var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Launch the skhd daemon",
	Long:  `Launch the skhd daemon. Same as running 'skhd' without any subcommand.`,
	Run: func(_ *cobra.Command, _ []string) {
		logger.Debug("launching daemon", zap.String("config_path", configPath))
		launchProgram(configPath)
	},
}

func init() {
	rootCmd.AddCommand(launchCmd)
}
