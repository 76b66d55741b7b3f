package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arin/fitbuddy/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage fitbuddy configuration",
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key <api-key>",
	Short: "Set the key sent to the FitBuddy functions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetAPIKey(args[0]); err != nil {
			return fmt.Errorf("failed to save API key: %w", err)
		}
		fmt.Println("API key saved successfully.")
		return nil
	},
}

var setEndpointCmd = &cobra.Command{
	Use:   "set-endpoint <base-url>",
	Short: "Point fitbuddy at a deployment, e.g. https://<project>.supabase.co",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetEndpoint(args[0]); err != nil {
			return err
		}
		fmt.Printf("Endpoint set to %s.\n", args[0])
		return nil
	},
}

var setModelCmd = &cobra.Command{
	Use:   "set-model <model-name>",
	Short: "Set the gateway model used by 'fitbuddy serve'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetModel(args[0]); err != nil {
			return fmt.Errorf("failed to save model: %w", err)
		}
		fmt.Printf("Model set to %s.\n", args[0])
		return nil
	},
}

var setUpstreamKeyCmd = &cobra.Command{
	Use:   "set-upstream-key <api-key>",
	Short: "Set the gateway key used by 'fitbuddy serve'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetUpstreamKey(args[0]); err != nil {
			return fmt.Errorf("failed to save upstream key: %w", err)
		}
		fmt.Println("Upstream key saved successfully.")
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Printf("Chat URL:     %s\n", cfg.ChatURL)
		fmt.Printf("Diet URL:     %s\n", cfg.DietURL)
		fmt.Printf("API Key:      %s\n", cfg.MaskedKey())
		fmt.Printf("Timeout:      %s\n", cfg.RequestTimeout())
		fmt.Printf("Frame Limit:  %d bytes\n", cfg.MaxFrameBytes)
		fmt.Println()
		fmt.Printf("Serve Listen: %s\n", cfg.Server.Listen)
		fmt.Printf("Serve Model:  %s\n", cfg.Server.Model)
		fmt.Printf("Gateway:      %s\n", cfg.Server.UpstreamURL)
		fmt.Printf("Config Dir:   %s\n", config.Dir())
		return nil
	},
}

func init() {
	configCmd.AddCommand(setKeyCmd)
	configCmd.AddCommand(setEndpointCmd)
	configCmd.AddCommand(setModelCmd)
	configCmd.AddCommand(setUpstreamKeyCmd)
	configCmd.AddCommand(showCmd)
}
