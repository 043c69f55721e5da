package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"phasegarden/internal/entitlement"
	"phasegarden/internal/fulfillment/events"
	"phasegarden/internal/fulfillment/mailer"
	fulfillmentmetrics "phasegarden/internal/fulfillment/metrics"
	"phasegarden/internal/fulfillment/service"
	"phasegarden/internal/fulfillment/store"
	"phasegarden/internal/payment/normalizer"
	"phasegarden/internal/payment/providers/mercadopago"
	"phasegarden/internal/payment/providers/stripeclient"
	"phasegarden/internal/platform/admintoken"
	"phasegarden/internal/platform/config"
	"phasegarden/internal/platform/httpserver"
	"phasegarden/internal/platform/logger"
	"phasegarden/internal/platform/metrics"
	"phasegarden/internal/platform/postgres"
	"phasegarden/internal/platform/redis"
	"phasegarden/internal/platform/tracing"
	httptransport "phasegarden/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "phasegarden: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{Exporter: cfg.TraceExporter, SampleRatio: cfg.TraceSampleRatio})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error("trace shutdown failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	fulfillmentStore, db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	readiness := map[string]func(context.Context) error{}
	if db != nil {
		defer db.Close()
		readiness["postgres"] = db.PingContext
	}

	publisher, closePublisher, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	var licenseMailer service.Mailer = mailer.NewLog(log)
	if cfg.ResendAPIKey != "" {
		licenseMailer = mailer.NewResend(cfg.ResendAPIKey, &http.Client{Timeout: cfg.EmailTimeout})
	} else {
		log.Warn("RESEND_API_KEY not set, license emails are logged only")
	}

	fulfiller, err := service.New(fulfillmentStore, licenseMailer,
		service.EmailConfig{From: cfg.EmailFrom, SiteURL: cfg.SiteURL},
		service.WithLogger(log),
		service.WithMetrics(fulfillmentmetrics.New(reg)),
		service.WithPublisher(publisher),
		service.WithEmailTimeout(cfg.EmailTimeout),
	)
	if err != nil {
		return fmt.Errorf("fulfillment service: %w", err)
	}

	entitlementOpts := []entitlement.Option{entitlement.WithLogger(log)}
	redisClient, err := redis.New(ctx, cfg.Redis())
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		readiness["redis"] = redisClient.Health
		entitlementOpts = append(entitlementOpts, entitlement.WithCache(entitlement.NewRedisCache(redisClient.Client, cfg.EntitlementTTL)))
		log.Info("entitlement cache enabled", "backend", "redis")
	}
	entitlements, err := entitlement.New(fulfillmentStore, entitlementOpts...)
	if err != nil {
		return fmt.Errorf("entitlement service: %w", err)
	}

	httpMetrics := metrics.New(reg)
	handlerOpts := []httptransport.Option{
		httptransport.WithLogger(log),
		httptransport.WithMetrics(httpMetrics),
		httptransport.WithLookupLimit(cfg.EntitlementRPS, cfg.EntitlementBurst),
		httptransport.WithSiteURL(cfg.SiteURL),
	}
	if cfg.StripeEnabled() {
		handlerOpts = append(handlerOpts, httptransport.WithStripe(stripeclient.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret,
			stripeclient.WithHTTPClient(&http.Client{Timeout: cfg.ProviderTimeout}),
		)))
	}
	if cfg.MercadoPagoEnabled() {
		mp, err := mercadopago.New(cfg.MercadoPagoAccessToken,
			mercadopago.WithBaseURL(cfg.MercadoPagoBaseURL),
			mercadopago.WithTimeout(cfg.ProviderTimeout),
		)
		if err != nil {
			return err
		}
		handlerOpts = append(handlerOpts, httptransport.WithMercadoPago(normalizer.NewMercadoPago(mp, normalizer.WithLogger(log)), mp))
	}
	handler, err := httptransport.New(fulfiller, entitlements, handlerOpts...)
	if err != nil {
		return fmt.Errorf("http handler: %w", err)
	}

	routerCfg := httptransport.RouterConfig{Logger: log, Metrics: httpMetrics, Gatherer: reg, Readiness: readiness}
	if cfg.AdminEnabled() {
		tokens, err := admintoken.New(cfg.AdminJWTSecret)
		if err != nil {
			return err
		}
		routerCfg.AdminTokens = tokens
	} else {
		log.Warn("ADMIN_JWT_SECRET not set, operator routes disabled")
	}

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, routerCfg))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting phasegarden",
			"addr", cfg.Addr,
			"stripe", cfg.StripeEnabled(),
			"mercadopago", cfg.MercadoPagoEnabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return fulfiller.RunSweeper(gctx, cfg.SweepInterval, cfg.SweepStaleAfter)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// openStore uses Postgres when DATABASE_URL is set and the in-memory store
// otherwise. The in-memory store loses every claim on restart. db is nil for
// the in-memory store.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (service.Store, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory fulfillment store")
		return store.NewMemory(), nil, nil
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	pg := store.NewPostgres(db)
	if err := pg.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return pg, db, nil
}

func openPublisher(cfg *config.Config, log *slog.Logger) (service.EventPublisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NewLog(log), func() {}, nil
	}
	k, err := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka publisher: %w", err)
	}
	log.Info("fulfillment events enabled", "backend", "kafka", "topic", cfg.KafkaTopic)
	return k, k.Close, nil
}
