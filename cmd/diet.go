package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arin/fitbuddy/internal/ai"
	"github.com/arin/fitbuddy/internal/profile"
	"github.com/arin/fitbuddy/internal/stats"
	"github.com/arin/fitbuddy/internal/ui"
)

var (
	dietHeight float64
	dietWeight float64
	dietGoal   string
	dietRaw    bool
)

var dietCmd = &cobra.Command{
	Use:   "diet <question>",
	Short: "Get meal and macro advice from the FitBuddy dietician",
	Long: `Ask the diet advisor for meal plans, calorie and macro estimates,
grocery lists or meal prep tips. Add your height, weight and goal for
tailored advice, or save them once with 'fitbuddy profile set'.

Examples:
  fitbuddy diet "plan a high protein day"
  fitbuddy diet "how many calories should I eat?" --height 178 --weight 80 --goal "weight loss"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		saved, err := profile.Load()
		if err != nil {
			log.WithError(err).Warn("could not read saved profile")
		}
		body := profile.Merge(saved, &ai.Profile{HeightCM: dietHeight, WeightKG: dietWeight, FitnessGoal: dietGoal})
		client := ai.NewClient(cfg)

		sp := ui.NewSpinner("Planning your meals...")
		sp.Start()
		start := time.Now()
		advice, err := client.DietAdvice(cmd.Context(), strings.Join(args, " "), body)
		if err != nil {
			sp.Fail(err.Error())
		} else {
			sp.Success("Advice ready")
		}

		rec := stats.Record{Subcommand: "diet", TotalMs: time.Since(start).Milliseconds(), Success: err == nil}
		if err != nil {
			rec.Error = err.Error()
		}
		if serr := stats.Save(rec); serr != nil {
			log.WithError(serr).Debug("could not save stats")
		}

		if err != nil {
			return fmt.Errorf("%w: %v", errReported, err)
		}

		if dietRaw || !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Println(advice)
			return nil
		}
		width, _, _ := term.GetSize(int(os.Stdout.Fd()))
		out, rerr := ui.RenderMarkdown(advice, width-4)
		if rerr != nil {
			log.WithError(rerr).Debug("markdown rendering failed")
			fmt.Println(out)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	dietCmd.Flags().Float64Var(&dietHeight, "height", 0, "Your height in cm")
	dietCmd.Flags().Float64Var(&dietWeight, "weight", 0, "Your weight in kg")
	dietCmd.Flags().StringVar(&dietGoal, "goal", "", "Your goal, e.g. \"weight loss\", \"muscle gain\", \"maintenance\"")
	dietCmd.Flags().BoolVar(&dietRaw, "raw", false, "Print the advice without markdown rendering")
}
