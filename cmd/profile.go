package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arin/fitbuddy/internal/ai"
	"github.com/arin/fitbuddy/internal/profile"
)

var (
	profileHeight float64
	profileWeight float64
	profileGoal   string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the body profile used for diet advice",
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save your height, weight or goal",
	Example: `  fitbuddy profile set --height 178 --weight 80 --goal "weight loss"
  fitbuddy profile set --weight 78.5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		update := ai.Profile{HeightCM: profileHeight, WeightKG: profileWeight, FitnessGoal: profileGoal}
		if update.IsZero() {
			return fmt.Errorf("nothing to save: pass --height, --weight or --goal")
		}
		saved, err := profile.Save(update)
		if err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		printProfile(saved)
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load()
		if err != nil {
			return err
		}
		if p.IsZero() {
			fmt.Println("No profile saved. Set one with 'fitbuddy profile set'.")
			return nil
		}
		printProfile(p)
		return nil
	},
}

var profileClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profile.Clear(); err != nil {
			return err
		}
		fmt.Println("Profile cleared.")
		return nil
	},
}

func printProfile(p *ai.Profile) {
	show := func(label string, set bool, value string) {
		if !set {
			value = "(not set)"
		}
		fmt.Printf("%-8s %s\n", label, value)
	}
	show("Height:", p.HeightCM > 0, fmt.Sprintf("%g cm", p.HeightCM))
	show("Weight:", p.WeightKG > 0, fmt.Sprintf("%g kg", p.WeightKG))
	show("Goal:", p.FitnessGoal != "", p.FitnessGoal)
}

func init() {
	profileSetCmd.Flags().Float64Var(&profileHeight, "height", 0, "Height in cm")
	profileSetCmd.Flags().Float64Var(&profileWeight, "weight", 0, "Weight in kg")
	profileSetCmd.Flags().StringVar(&profileGoal, "goal", "", "Fitness goal")

	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileClearCmd)
}
