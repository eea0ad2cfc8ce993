package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skhd-go/skhd/internal/ipc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show skhd status",
	Long:  `Display whether the daemon is running or paused, its current mode, and the config file it loaded.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requiresRunningInstance()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		client := ipc.NewClient()
		response, err := client.Send(ipc.Command{Action: "status"})
		if err != nil {
			return err
		}

		if !response.Success {
			return errors.New(response.Message)
		}

		fmt.Println("skhd status:")
		if data, ok := response.Data.(map[string]interface{}); ok {
			if enabled, ok := data["enabled"].(bool); ok {
				status := "paused"
				if enabled {
					status = "running"
				}
				fmt.Printf("  Status: %s\n", status)
			}
			if mode, ok := data["mode"].(string); ok {
				fmt.Printf("  Mode: %s\n", mode)
			}
			if configPath, ok := data["config"].(string); ok {
				fmt.Printf("  Config: %s\n", configPath)
			}
		} else {
			jsonData, _ := json.MarshalIndent(response.Data, "  ", "  ")
			fmt.Println(string(jsonData))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
