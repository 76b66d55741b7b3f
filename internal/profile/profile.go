// Package profile keeps the user's body profile (height, weight, goal) in
// ~/.fitbuddy/profile.json so diet questions can be tailored without
// repeating flags.
package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/arin/fitbuddy/internal/ai"
	"github.com/arin/fitbuddy/internal/config"
)

const fileName = "profile.json"

func profilePath() string {
	return filepath.Join(config.Dir(), fileName)
}

// Load returns the saved profile, or an empty one if none was saved.
func Load() (*ai.Profile, error) {
	data, err := os.ReadFile(profilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return &ai.Profile{}, nil
		}
		return nil, err
	}
	var p ai.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save merges the set fields of update into the saved profile.
func Save(update ai.Profile) (*ai.Profile, error) {
	current, err := Load()
	if err != nil {
		current = &ai.Profile{}
	}
	merged := Merge(current, &update)

	if err := os.MkdirAll(config.Dir(), 0o700); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return nil, err
	}
	return merged, os.WriteFile(profilePath(), data, 0o600)
}

// Clear removes the saved profile.
func Clear() error {
	err := os.Remove(profilePath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Merge returns base with every non-zero field of override applied.
// Neither argument is modified; nil is treated as empty.
func Merge(base, override *ai.Profile) *ai.Profile {
	out := &ai.Profile{}
	if base != nil {
		*out = *base
	}
	if override == nil {
		return out
	}
	if override.HeightCM > 0 {
		out.HeightCM = override.HeightCM
	}
	if override.WeightKG > 0 {
		out.WeightKG = override.WeightKG
	}
	if goal := strings.TrimSpace(override.FitnessGoal); goal != "" {
		out.FitnessGoal = goal
	}
	return out
}
