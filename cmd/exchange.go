package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/apex/log"
	"github.com/fatih/color"

	"github.com/arin/fitbuddy/internal/ai"
	"github.com/arin/fitbuddy/internal/chat"
	"github.com/arin/fitbuddy/internal/config"
	"github.com/arin/fitbuddy/internal/stats"
	"github.com/arin/fitbuddy/internal/ui"
)

// exchanger runs chat exchanges with terminal feedback: a spinner until the
// first delta, the reply echoed as it streams, failures as toasts.
type exchanger struct {
	session *chat.Session
	echo    *ui.EchoTranscript
	sub     string
}

func newExchanger(cfg *config.Config, t chat.Transcript, subcommand string) *exchanger {
	prefix := color.New(color.FgCyan, color.Bold).Sprint("  fitbuddy → ")
	echo := ui.NewEchoTranscript(t, os.Stdout, prefix)

	session := chat.NewSession(ai.NewClient(cfg),
		chat.WithNotifier(echo.Notifier(ui.ToastNotifier{W: os.Stderr})),
		chat.WithLogger(log.Log),
		chat.WithMaxBuffer(cfg.MaxFrameBytes),
	)
	return &exchanger{session: session, echo: echo, sub: subcommand}
}

// run submits text. Ctrl-C cancels only this exchange.
func (x *exchanger) run(ctx context.Context, text string) (*chat.Result, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	sp := ui.NewSpinner("Thinking...")
	x.echo.OnFirstDelta(sp.Stop)
	sp.Start()

	start := time.Now()
	res, err := x.session.Submit(ctx, x.echo, text)
	sp.Stop()
	x.echo.Finish()

	if serr := stats.Save(stats.FromExchange(x.sub, res, err, time.Since(start))); serr != nil {
		log.WithError(serr).Debug("could not save stats")
	}
	if err == nil && res.Deltas == 0 {
		color.New(color.FgHiBlack).Fprintln(os.Stderr, "  (no reply)")
	}
	return res, err
}

// loadConfig is config.Load with the error wrapped the way every command
// reports it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}
