package cmd

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/arin/fitbuddy/internal/server"
)

var (
	serveListen string
	serveModel  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the FitBuddy functions locally",
	Long: `Serve the ai-chat and diet-advisor functions, relaying to an
OpenAI-compatible gateway. Point the CLI at it with:

  fitbuddy config set-endpoint http://localhost:8787

The gateway key comes from FITBUDDY_UPSTREAM_KEY (or LOVABLE_API_KEY) or
'fitbuddy config set-upstream-key'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Server.Listen = serveListen
		}
		if serveModel != "" {
			cfg.Server.Model = serveModel
		}

		// The server logs every request itself.
		if verbose {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
			log.SetLevel(log.InfoLevel)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Bound the wait for the gateway's headers; streamed bodies may run long.
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = cfg.RequestTimeout()

		return server.New(cfg.Server,
			server.WithLogger(log.Log),
			server.WithHTTPClient(&http.Client{Transport: transport}),
		).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Address to listen on (default :8787)")
	serveCmd.Flags().StringVarP(&serveModel, "model", "m", "", "Gateway model to use")
}
