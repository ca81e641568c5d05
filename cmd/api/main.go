package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vibeflow/internal/adapter/repo"
	"vibeflow/internal/http/handlers"
	httpapi "vibeflow/internal/http/httpapi"
	"vibeflow/internal/infra"
	"vibeflow/internal/providers"
	"vibeflow/internal/providers/kie"
	"vibeflow/internal/providers/suno"
	"vibeflow/internal/service"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if err := infra.RunMigrations(ctx, dbpool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	// Providers are enabled per configured credential; a kind without an
	// adapter is rejected at admission.
	var adapters []providers.Adapter
	if cfg.SunoAPIKey != "" {
		sunoClient, err := suno.NewClient(suno.Options{
			APIKey:         cfg.SunoAPIKey,
			BaseURL:        cfg.SunoBaseURL,
			CallbackURL:    cfg.CallbackURL(),
			Logger:         &logger,
			RequestTimeout: cfg.ProviderTimeout,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build suno client")
		}
		adapters = append(adapters, sunoClient)
	} else {
		logger.Warn().Msg("SUNO_API_KEY not set, music generation disabled")
	}
	if cfg.KieAPIKey != "" {
		kieClient, err := kie.NewClient(kie.Options{
			APIKey:         cfg.KieAPIKey,
			BaseURL:        cfg.KieBaseURL,
			CallbackURL:    cfg.CallbackURL(),
			Logger:         &logger,
			RequestTimeout: cfg.ProviderTimeout,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build kie client")
		}
		adapters = append(adapters, kieClient)
	} else {
		logger.Warn().Msg("KIE_API_KEY not set, video generation disabled")
	}

	generations := repo.NewGenerationRepository(dbpool)
	credits := repo.NewCreditRepository(dbpool)
	transactions := repo.NewTransactionRepository(dbpool)
	admissionStore := repo.NewAdmissionStore(dbpool)

	admission := service.NewAdmissionService(service.AdmissionOptions{
		Credits:         credits,
		Store:           admissionStore,
		Adapters:        adapters,
		DefaultSeconds:  cfg.CreditDefaultSecs,
		Cost:            cfg.CreditCostSecs,
		ProviderTimeout: cfg.ProviderTimeout,
		Logger:          logger,
	})
	reconciler := service.NewReconcileService(generations, adapters, logger)

	app := &handlers.App{
		Logger:            logger,
		Admission:         admission,
		Reconciler:        reconciler,
		Generations:       generations,
		Credits:           credits,
		Transactions:      transactions,
		CreditDefaultSecs: cfg.CreditDefaultSecs,
		GalleryLimit:      cfg.GalleryLimit,
	}

	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
