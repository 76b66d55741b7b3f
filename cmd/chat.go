package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/fitbuddy/internal/chat"
	"github.com/arin/fitbuddy/internal/history"
	"github.com/arin/fitbuddy/internal/models"
)

var resumeID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat with FitBuddy",
	Long: `Start a conversation with FitBuddy. Replies stream in as they are
generated and the conversation carries over between messages.

Type '/reset' to start over, 'exit' to quit. Ctrl-C cancels a reply in progress.
Conversations are saved to ~/.fitbuddy/history/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		conv := history.New()
		transcript := chat.NewLog(models.Message{Role: models.RoleAssistant, Content: models.Greeting})
		if resumeID != "" {
			conv, err = history.Load(resumeID)
			if err != nil {
				return fmt.Errorf("could not resume conversation: %w", err)
			}
			transcript.Reset(conv.Messages...)
		}

		x := newExchanger(cfg, transcript, "chat")
		cyan := color.New(color.FgCyan, color.Bold)
		dim := color.New(color.FgHiBlack)
		green := color.New(color.FgGreen)

		fmt.Fprintln(os.Stderr)
		cyan.Fprintln(os.Stderr, "  fitbuddy chat")
		dim.Fprintf(os.Stderr, "  Type '/reset' to start over, 'exit' to quit.\n\n")
		if resumeID != "" {
			dim.Fprintf(os.Stderr, "  Resuming %q (%d turns)\n\n", conv.Title, conv.Turns())
		} else {
			cyan.Fprint(os.Stderr, "  fitbuddy → ")
			fmt.Fprintf(os.Stdout, "%s\n\n", models.Greeting)
		}

		scanner := bufio.NewScanner(os.Stdin)
		for {
			green.Fprint(os.Stderr, "  you → ")
			if !scanner.Scan() {
				break
			}

			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			if input == "exit" || input == "quit" || input == "bye" {
				dim.Fprintf(os.Stderr, "\n  Keep moving! 💪\n\n")
				break
			}
			if input == "/reset" {
				conv = history.New()
				transcript.Reset(models.Message{Role: models.RoleAssistant, Content: models.Greeting})
				dim.Fprintf(os.Stderr, "  Started a new conversation.\n\n")
				continue
			}

			if _, err := x.run(cmd.Context(), input); err != nil {
				if errors.Is(err, chat.ErrExchangeInFlight) {
					dim.Fprintln(os.Stderr, "  Still working on the last message.")
				}
				fmt.Fprintln(os.Stderr)
			}

			conv.Messages = transcript.Messages()
			if conv.Turns() > 0 {
				if err := history.Save(conv); err != nil {
					log.WithError(err).Warn("could not save conversation")
				}
			}
		}

		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().StringVarP(&resumeID, "resume", "r", "", "Continue a saved conversation by ID (or ID prefix)")
}
