package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/autoapply/autoapply/pkg/batch"
	"github.com/autoapply/autoapply/pkg/config"
	"github.com/autoapply/autoapply/pkg/jobinfo"
	"github.com/autoapply/autoapply/pkg/llm"
	"github.com/autoapply/autoapply/pkg/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveAddr string

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the application pack API over HTTP",
	Long: `Serve the HTTP API:

  POST /packs       {"identifiers": [...]} with the X-Owner-ID header
  GET  /packs/:id   a stored pack
  GET  /metrics     Prometheus metrics
  GET  /health

Example:
  autoapply serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.Config
	cfg, err = loadConfig()
	if err != nil {
		return err
	}

	// the server logs at the configured level regardless of --verbose
	logger, err := newServerLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	var b *backend
	b, err = openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	svc := newServeService(newClient(cfg), cfg, b, logger)

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	logger.Info("starting server",
		zap.String("store", cfg.Store.Backend),
		zap.Int("concurrency", cfg.Concurrency),
	)

	err = server.New(svc, logger).Run(ctx, addr)
	return err
}

// newServeService wires the batch service behind the HTTP API. Identifiers
// from remote callers never resolve against the local filesystem.
func newServeService(gen llm.TextGenerator, cfg config.Config, b *backend, logger *zap.Logger) (svc *batch.Service) {
	o := batch.New(gen, jobinfo.StubLookup{}, b.store, batch.Options{
		Concurrency:      cfg.Concurrency,
		MaxProviderCalls: cfg.MaxProviderCalls,
		Logger:           logger,
	})
	svc = batch.NewService(o, resumeSource("", cfg, b), b.store)
	return svc
}
