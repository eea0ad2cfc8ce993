package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skhd-go/skhd/internal/ipc"
	"github.com/skhd-go/skhd/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the loaded config path",
	Long:  "Print the path of the running daemon's loaded skhdrc as JSON.",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return requiresRunningInstance()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		logger.Debug("fetching config")
		client := ipc.NewClient()
		response, err := client.Send(ipc.Command{Action: "config"})
		if err != nil {
			return fmt.Errorf("failed to send config command: %w", err)
		}

		if !response.Success {
			if response.Code != "" {
				return fmt.Errorf("%s (code: %s)", response.Message, response.Code)
			}
			return fmt.Errorf("%s", response.Message)
		}

		jsonData, err := json.MarshalIndent(response.Data, "", "  ")
		if err != nil {
			logger.Error("failed to marshal config to JSON", zap.Error(err))
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		fmt.Println(string(jsonData))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
