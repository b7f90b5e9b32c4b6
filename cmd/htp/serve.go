package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/bootstrap"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/handler"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/chatchain"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/router"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	inj := newContainer()
	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	defer func() { _ = log.Sync() }()

	providers, shutdown, err := setupTelemetry(inj)
	if err != nil {
		return err
	}

	if err := bootstrap.EnsurePersonasSeeded(ctx,
		do.MustInvoke[service.PersonaService](inj),
		do.MustInvoke[*chatchain.Catalog](inj),
		log,
	); err != nil {
		return err
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	var staticRoot string
	if cfg.Storage.Backend == "local" {
		staticRoot = cfg.Storage.Root
	}
	engine := router.NewRouter(router.RouterDeps{
		Config:          cfg,
		Log:             log,
		UserService:     do.MustInvoke[service.UserService](inj),
		AnalysisHandler: do.MustInvoke[*handler.AnalysisHandler](inj),
		DrawingHandler:  do.MustInvoke[*handler.DrawingHandler](inj),
		ChatHandler:     do.MustInvoke[*handler.ChatHandler](inj),
		PersonaHandler:  do.MustInvoke[*handler.PersonaHandler](inj),
		Telemetry:       providers,
		StaticRoot:      staticRoot,
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", srv.Addr), zap.String("dispatch", cfg.Analysis.Dispatch))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		// queued analyses finish before the process exits
		if inline, ok := do.MustInvoke[service.Dispatcher](inj).(*service.InlineDispatcher); ok {
			if cerr := inline.Close(); cerr != nil {
				log.Warn("close analysis pool", zap.Error(cerr))
			}
		}
		shutdown()
		return err
	})
	return g.Wait()
}
