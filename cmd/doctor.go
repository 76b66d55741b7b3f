package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/fitbuddy/internal/ai"
	"github.com/arin/fitbuddy/internal/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and connectivity",
	Long: `Run a health check on your fitbuddy setup.
Verifies the endpoint URLs, the API key, that the chat function is
reachable, and the local data directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)
		dim := color.New(color.FgHiBlack)
		cyan := color.New(color.FgCyan, color.Bold)

		cyan.Fprintf(os.Stderr, "\n  🩺 fitbuddy doctor\n\n")

		pass, fail, warn := 0, 0, 0

		check := func(name string, fn func() (string, error)) {
			detail, err := fn()
			if err != nil {
				if strings.HasPrefix(err.Error(), "warn:") {
					yellow.Fprintf(os.Stderr, "  ⚠ %s\n", name)
					dim.Fprintf(os.Stderr, "    %s\n", strings.TrimPrefix(err.Error(), "warn:"))
					warn++
				} else {
					red.Fprintf(os.Stderr, "  ✗ %s\n", name)
					dim.Fprintf(os.Stderr, "    %s\n", err.Error())
					fail++
				}
			} else {
				green.Fprintf(os.Stderr, "  ✓ %s", name)
				if detail != "" {
					dim.Fprintf(os.Stderr, " (%s)", detail)
				}
				fmt.Fprintln(os.Stderr)
				pass++
			}
		}

		cfg, _ := config.Load()

		check("Chat endpoint URL", func() (string, error) {
			return validURL(cfg.ChatURL)
		})

		check("Diet endpoint URL", func() (string, error) {
			return validURL(cfg.DietURL)
		})

		check("API key", func() (string, error) {
			if cfg.APIKey == "" {
				return "", fmt.Errorf("warn:not set; hosted functions usually need one: fitbuddy config set-key <key>")
			}
			return cfg.MaskedKey(), nil
		})

		check("Chat function reachable", func() (string, error) {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			rtt, err := ai.NewClient(cfg).Ping(ctx)
			if err != nil {
				return "", fmt.Errorf("%v; run 'fitbuddy serve' or set an endpoint with 'fitbuddy config set-endpoint'", err)
			}
			return rtt.Round(time.Millisecond).String(), nil
		})

		check("Data directory", func() (string, error) {
			dir := config.Dir()
			info, err := os.Stat(dir)
			if err != nil {
				return "", fmt.Errorf("warn:~/.fitbuddy not found; it will be created on first use")
			}
			if !info.IsDir() {
				return "", fmt.Errorf("~/.fitbuddy exists but is not a directory")
			}
			return dir, nil
		})

		check("System info", func() (string, error) {
			return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH), nil
		})

		fmt.Fprintln(os.Stderr)
		total := pass + fail + warn
		if fail == 0 && warn == 0 {
			green.Fprintf(os.Stderr, "  All %d checks passed. Time to train.\n\n", total)
		} else if fail == 0 {
			yellow.Fprintf(os.Stderr, "  %d passed, %d warnings. Everything works, but some things could be better.\n\n", pass, warn)
		} else {
			red.Fprintf(os.Stderr, "  %d passed, %d failed, %d warnings. Fix the failures above.\n\n", pass, fail, warn)
		}

		return nil
	},
}

func validURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%q is not a valid http(s) URL", raw)
	}
	if u.Scheme == "http" && u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
		return "", fmt.Errorf("warn:%s is not using https", raw)
	}
	return raw, nil
}
