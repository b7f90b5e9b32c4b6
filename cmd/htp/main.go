// Command htp runs the drawing analysis API, its queue workers and the
// offline maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/samber/do"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/bootstrap"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/telemetry"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "htp",
	Short: "HTP drawing analysis and persona counselling server",
	Long: `htp serves the drawing analysis pipeline and the persona chat API.

Subcommands:
  serve    start the HTTP API (and the in-process analysis pool)
  worker   consume analysis jobs from RabbitMQ
  index    embed the RAG annotation corpus
  migrate  create the schema, seed personas, optionally issue a dev user token`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, workerCmd, indexCmd, migrateCmd)
}

// @title			HTP Counsel API
// @version		1.0
// @description	Drawing analysis pipeline and persona chat.
// @BasePath		/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupTelemetry resolves the container-owned providers before anything
// instrumented is built. A version stamped at build time overrides
// app.version. The returned func shuts the container down, which flushes the
// providers.
func setupTelemetry(inj *do.Injector) (*telemetry.Providers, func(), error) {
	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	if version != "dev" {
		cfg.App.Version = version
	}

	p, err := do.Invoke[*telemetry.Providers](inj)
	if err != nil {
		return nil, nil, fmt.Errorf("setup telemetry: %w", err)
	}
	return p, func() {
		if err := inj.Shutdown(); err != nil {
			log.Warn("shutdown container", zap.Error(err))
		}
	}, nil
}

func newContainer() *do.Injector {
	return bootstrap.BuildContainer()
}
