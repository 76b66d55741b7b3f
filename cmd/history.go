package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/fitbuddy/internal/history"
	"github.com/arin/fitbuddy/internal/models"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		convs, err := history.List(historyLimit)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}

		if len(convs) == 0 {
			fmt.Println("No conversations yet. Start one with 'fitbuddy chat'.")
			return nil
		}

		cyan := color.New(color.FgCyan)
		dim := color.New(color.FgHiBlack)

		for _, c := range convs {
			cyan.Printf("%s ", shortID(c.ID))
			dim.Printf("[%s] ", c.UpdatedAt.Format("2006-01-02 15:04"))
			fmt.Printf("%s ", c.Title)
			dim.Printf("(%d turns)\n", c.Turns())
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := history.Load(args[0])
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold)
		green := color.New(color.FgGreen)
		dim := color.New(color.FgHiBlack)

		dim.Printf("%s · %s\n\n", conv.ID, conv.CreatedAt.Format("2006-01-02 15:04"))
		for _, m := range conv.Messages {
			switch m.Role {
			case models.RoleUser:
				green.Print("  you → ")
			case models.RoleAssistant:
				cyan.Print("  fitbuddy → ")
			default:
				dim.Printf("  %s → ", m.Role)
			}
			fmt.Printf("%s\n\n", m.Content)
		}
		return nil
	},
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := history.Delete(args[0]); err != nil {
			return err
		}
		fmt.Println("Conversation deleted.")
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of conversations to show")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRmCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
