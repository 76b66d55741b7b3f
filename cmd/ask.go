package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arin/fitbuddy/internal/chat"
	"github.com/arin/fitbuddy/internal/models"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask FitBuddy a single question",
	Long: `Ask one question and stream the answer to stdout.

Examples:
  fitbuddy ask "how many rest days do I need?"
  fitbuddy ask give me a core workout`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		if strings.TrimSpace(question) == "" {
			return chat.ErrEmptyPrompt
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		transcript := chat.NewLog(models.Message{Role: models.RoleAssistant, Content: models.Greeting})
		if _, err := newExchanger(cfg, transcript, "ask").run(cmd.Context(), question); err != nil {
			return fmt.Errorf("%w: %v", errReported, err)
		}
		return nil
	},
}
