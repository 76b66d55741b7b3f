package cmd

import (
	"errors"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
)

var verbose bool

// errReported wraps failures the user has already been shown.
var errReported = errors.New("already reported")

var rootCmd = &cobra.Command{
	Use:   "fitbuddy",
	Short: "Your AI fitness companion in the terminal",
	Long: `fitbuddy chats with the FitBuddy AI coach about workouts, nutrition
and motivation. Replies stream in as they are generated.

Examples:
  fitbuddy chat
  fitbuddy ask "give me a 20 minute leg workout"
  fitbuddy diet "what should I eat after training?" --weight 72 --goal "muscle gain"
  fitbuddy serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(dietCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(profileCmd)
}

func setupLogging(debug bool) {
	log.SetHandler(cli.New(os.Stderr))
	if debug {
		log.SetLevel(log.DebugLevel)
		return
	}
	log.SetLevel(log.WarnLevel)
}

// SetVersion sets the version printed by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Reported reports whether err was already shown to the user.
func Reported(err error) bool {
	return errors.Is(err, errReported)
}

// Execute is the entry point called from main.
func Execute() error {
	return rootCmd.Execute()
}
