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
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	rcron "github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/GuyfromMontana/MFC-single-agent/internal/caller"
	callermetrics "github.com/GuyfromMontana/MFC-single-agent/internal/caller/metrics"
	"github.com/GuyfromMontana/MFC-single-agent/internal/calls"
	contactstore "github.com/GuyfromMontana/MFC-single-agent/internal/contacts/store"
	"github.com/GuyfromMontana/MFC-single-agent/internal/facts"
	"github.com/GuyfromMontana/MFC-single-agent/internal/leads"
	leadstore "github.com/GuyfromMontana/MFC-single-agent/internal/leads/store"
	"github.com/GuyfromMontana/MFC-single-agent/internal/memory"
	memorymetrics "github.com/GuyfromMontana/MFC-single-agent/internal/memory/metrics"
	"github.com/GuyfromMontana/MFC-single-agent/internal/notify"
	"github.com/GuyfromMontana/MFC-single-agent/internal/persist"
	persistmetrics "github.com/GuyfromMontana/MFC-single-agent/internal/persist/metrics"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/config"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/httpserver"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/kafka"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/logger"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/metrics"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/middleware"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/postgres"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/redis"
	"github.com/GuyfromMontana/MFC-single-agent/internal/territory"
	territorymetrics "github.com/GuyfromMontana/MFC-single-agent/internal/territory/metrics"
	territorystore "github.com/GuyfromMontana/MFC-single-agent/internal/territory/store"
	"github.com/GuyfromMontana/MFC-single-agent/internal/webhook/dedupe"
	"github.com/GuyfromMontana/MFC-single-agent/internal/webhook/handler"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// infra holds the connections opened at startup so they can be closed in
// reverse order.
type infra struct {
	db    *sql.DB
	redis *redis.Client
	kafka *kgo.Client
}

func (i *infra) Close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	i := &infra{}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	i.db = db

	i.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		i.Close()
		return nil, err
	}

	i.kafka, err = kafka.NewClient(cfg.Kafka)
	if err != nil {
		i.Close()
		return nil, err
	}
	if i.kafka != nil {
		if err := kafka.EnsureTopic(ctx, i.kafka, cfg.Kafka.SummaryTopic, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
			// Publishing still works when the topic was provisioned elsewhere.
			log.WarnContext(ctx, "ensure summary topic failed", "topic", cfg.Kafka.SummaryTopic, "error", err)
		}
	}
	return i, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.New(cfg.Server.LogLevel)

	deps, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	towns, err := territory.LoadTownTable()
	if err != nil {
		return err
	}

	territoryStore := territorystore.NewPostgres(deps.db)
	territoryMetrics := territorymetrics.New()
	directory := territory.NewDirectory(territoryStore,
		territory.WithDirectoryLogger(log),
		territory.WithDirectoryMetrics(territoryMetrics),
	)
	if err := directory.Refresh(ctx); err != nil {
		log.WarnContext(ctx, "initial territory directory load failed, scanning per call until it loads", "error", err)
	}
	scheduler := rcron.New()
	if _, err := directory.Schedule(scheduler, cfg.Lookup.DirectorySchedule, cfg.Lookup.TerritoryTimeout); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := territory.NewResolver(towns, territoryStore,
		territory.WithLogger(log),
		territory.WithMetrics(territoryMetrics),
		territory.WithDirectory(directory),
		territory.WithTimeout(cfg.Lookup.TerritoryTimeout),
	)

	extractor := newExtractor(towns)
	mem := memory.NewFromConfig(cfg.Memory,
		memory.WithLogger(log),
		memory.WithMetrics(memorymetrics.New()),
	)
	leadSvc := leads.New(leadstore.NewPostgres(deps.db), leads.WithLogger(log))

	profiles := caller.New(contactstore.NewPostgres(deps.db), mem, leadSvc,
		caller.WithLogger(log),
		caller.WithMetrics(callermetrics.New()),
		caller.WithTimeout(cfg.Lookup.ProfileTimeout),
	)
	batcher := persist.New(mem,
		persist.WithLogger(log),
		persist.WithMetrics(persistmetrics.New()),
		persist.WithExtractor(extractor),
		persist.WithLeads(leadSvc),
		persist.WithAgentName(cfg.Agent.Name),
		persist.WithLeadTimeout(cfg.Lookup.LeadTimeout),
	)

	var publisher notify.Publisher = notify.NewLogPublisher(log)
	if deps.kafka != nil {
		publisher = notify.NewKafkaPublisher(deps.kafka, cfg.Kafka.SummaryTopic, log)
	}
	callSvc := calls.New(profiles, router, batcher,
		calls.WithLogger(log),
		calls.WithExtractor(extractor),
		calls.WithPublisher(publisher),
		calls.WithPublishTimeout(cfg.Lookup.PublishTimeout),
	)

	var deduper handler.Deduper = dedupe.NewMemory(cfg.Redis.DedupeTTL)
	if deps.redis != nil {
		deduper = dedupe.NewRedis(deps.redis, cfg.Redis.DedupeTTL)
	}

	m := metrics.New()
	h := handler.New(callSvc, router, leadSvc, log, m,
		handler.WithDeduper(deduper),
		handler.WithWebhookSecret(cfg.Server.WebhookSecret),
		handler.WithHealth(healthCheck(cfg, deps, mem, directory)),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(m.LatencyMiddleware)
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	r.Handle("/metrics", promhttp.Handler())
	h.Register(r)

	if cfg.Server.WebhookSecret == "" {
		log.WarnContext(ctx, "webhook signature verification disabled")
	}

	srv := httpserver.New(cfg.Server.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "server starting",
			"addr", cfg.Server.Addr,
			"kafka", cfg.KafkaEnabled(),
			"redis", cfg.RedisEnabled(),
			"towns", towns.Len(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newExtractor keeps the curated place list for anywhere-in-turn matches and
// hands the full town table over for locative matches and name rejection.
func newExtractor(towns *territory.TownTable) *facts.Heuristic {
	return facts.NewHeuristic(facts.WithTownNames(towns.Towns()))
}

func healthCheck(cfg config.Config, i *infra, mem *memory.Client, dir *territory.Directory) func(ctx context.Context) map[string]any {
	return func(ctx context.Context) map[string]any {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		out := map[string]any{
			"memory_breaker":  mem.BreakerState(),
			"database":        "ok",
			"kafka_enabled":   cfg.KafkaEnabled(),
			"redis_enabled":   cfg.RedisEnabled(),
			"signature_check": cfg.Server.WebhookSecret != "",
		}
		if err := i.db.PingContext(ctx); err != nil {
			out["database"] = "unavailable"
		}
		if i.redis != nil {
			out["redis"] = "ok"
			if err := i.redis.Health(ctx); err != nil {
				out["redis"] = "unavailable"
			}
		}
		if loaded := dir.LoadedAt(); !loaded.IsZero() {
			out["territory_directory_loaded_at"] = loaded.UTC().Format(time.RFC3339)
		}
		return out
	}
}
