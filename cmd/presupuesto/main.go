package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"presupuesto/internal/amqp"
	"presupuesto/internal/backend"
	"presupuesto/internal/cli"
	apphttp "presupuesto/internal/http"
	applog "presupuesto/internal/log"
	"presupuesto/internal/persistence"
	"presupuesto/internal/services"
	"presupuesto/internal/state"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	if err := run(logger); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(logger *applog.Logger) error {
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	catalog, err := cli.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}
	logger.WithComponent(applog.ComponentCatalog).Info("Catalog loaded",
		"types", len(catalog.ListTypes()),
		"categories", len(catalog.ListCategories()))

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	initial, err := persistence.LoadOrInitial(ctx, res.Store)
	if err != nil {
		return err
	}
	logger.Info("Budget state loaded",
		applog.FieldOperation, applog.OpLoad,
		applog.FieldBackend, backendCfg.Type.String(),
		applog.FieldBudgetCents, initial.Budget.Cents,
		applog.FieldEntries, len(initial.Expenses))

	opts := []services.Option{
		services.WithSaver(res.Store),
		services.WithLogger(logger),
	}
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			// Events are notifications only; the tracker works without them.
			logger.WithComponent(applog.ComponentAMQP).Warn("Failed to initialize AMQP client, continuing without events",
				applog.FieldError, err)
		} else {
			defer client.Close()
			opts = append(opts, services.WithEvents(client))
			logger.WithComponent(applog.ComponentAMQP).Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"routing_key", cfg.AMQPRoutingKey)
		}
	}

	store := state.NewStore(initial, state.NewReducer())
	svc := services.NewBudgetService(store, catalog, opts...)
	srv := apphttp.NewServer(":"+cfg.Port, svc, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting presupuesto server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			applog.FieldBackend, backendCfg.Type.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
