package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/companysim/cosim/internal/missing"
	"github.com/companysim/cosim/internal/viewer"
	"github.com/spf13/cobra"
)

var (
	serveListen string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config listen)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the similarity viewer and JSON API",
	Long: `Load the artifacts and serve the company similarity viewer.

Routes:
  /                 company selector and results
  /missing          missing-value chart of the raw data (requires raw_data)
  /api/similar      ?company=<name>&n=<count>
  /api/query        ?q=<text>&n=<count>
  /api/companies    ?q=<prefix>&limit=<count>
  /api/missing      missing-value report as JSON
  /api/health       liveness and record count
  /metrics          Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cfg, log := mustLoadService(ctx)
	cat := mustOpenCatalog(cfg, svc, log)
	defer cat.Close()

	addr := cfg.Listen
	if serveListen != "" {
		addr = serveListen
	}

	var report viewer.ReportFunc
	if cfg.RawData != "" {
		rawData, naValues := cfg.RawData, cfg.NAValues
		report = func() (missing.Report, error) {
			return missing.ReadFile(rawData, naValues)
		}
	}

	srv, err := viewer.New(svc, cat, viewer.Options{
		Addr:        addr,
		DefaultTopN: cfg.DefaultTopN,
		MaxTopN:     cfg.MaxTopN,
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
		Report:      report,
	}, log)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return nil
}
