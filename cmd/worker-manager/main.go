// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ev-finance-workers/internal/common/aws"
	"ev-finance-workers/internal/common/camunda"
	"ev-finance-workers/internal/common/config"
	"ev-finance-workers/internal/common/database"
	"ev-finance-workers/internal/common/logger"
	"ev-finance-workers/internal/common/observability"
	"ev-finance-workers/internal/scoring"
	"ev-finance-workers/pkg/registry"

	// Applicant intake (2)
	rll "ev-finance-workers/internal/workers/applicant/resolve-location-link"
	vai "ev-finance-workers/internal/workers/applicant/validate-applicant-info"

	// Evaluation (1)
	ecw "ev-finance-workers/internal/workers/evaluation/evaluate-creditworthiness"

	// Records (5)
	da "ev-finance-workers/internal/workers/records/delete-applicant"
	ea "ev-finance-workers/internal/workers/records/export-applicants"
	la "ev-finance-workers/internal/workers/records/list-applicants"
	sar "ev-finance-workers/internal/workers/records/save-applicant-record"
	sa "ev-finance-workers/internal/workers/records/search-applicants"

	// Communication (1)
	nd "ev-finance-workers/internal/workers/communication/notify-decision"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// --- Scoring policy: a bad policy must stop the process ---
	policy, err := cfg.Scoring.BuildPolicy()
	if err != nil {
		zapLog.Fatal("scoring policy rejected", zap.Error(err))
	}
	engine, err := scoring.NewEngine(policy)
	if err != nil {
		zapLog.Fatal("scoring engine init failed", zap.Error(err))
	}
	phoneRule, err := cfg.Scoring.BuildPhoneRule()
	if err != nil {
		zapLog.Fatal("invalid phone rule", zap.Error(err))
	}
	zapLog.Info("scoring policy loaded",
		zap.String("policy", policy.Version),
		zap.Bool("genderMultiplier", policy.GenderMultiplier.Enabled),
		zap.String("genderMultiplierGender", string(policy.GenderMultiplier.Gender)),
		zap.Float64("genderMultiplierFactor", policy.GenderMultiplier.Factor),
		zap.Float64("approveThreshold", policy.Thresholds.Approve),
		zap.Float64("reviewThreshold", policy.Thresholds.Review),
		zap.String("phoneRule", string(phoneRule)),
	)

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Warn("activity registry not loaded, using built-in schemas",
			zap.String("path", cfg.Registry.Path), zap.Error(err))
		reg = registry.New()
	}

	// --- Telemetry ---
	tp, err := observability.NewTracerProvider(cfg.Tracing, cfg.App.Version)
	if err != nil {
		zapLog.Fatal("tracer provider init failed", zap.Error(err))
	}
	obs := observability.New(cfg.Tracing.ServiceName, prometheus.DefaultRegisterer, tp)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress, config.GetDuration(cfg.Camunda.RequestTimeout))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	rc := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return rc.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rc.Close()
	var rdb redis.Cmdable = rc.Client
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional) ---
	var es *elasticsearch.Client
	if cfg.Database.Elasticsearch.Enabled() {
		var esc *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esc, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := esc.Ping(ctx); err != nil {
				return err
			}
			return esc.EnsureIndex(ctx, cfg.Database.Elasticsearch.Index, database.ApplicantIndexMapping)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, search disabled and indexing skipped", zap.Error(err))
		} else {
			es = esc.Client
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Notification channels ---
	var sms nd.SMSSender
	var email nd.EmailSender
	if cfg.Notifications.SMS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Warn("sms channel disabled", zap.Error(err))
		} else {
			sms = snsClient
		}
	}
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Warn("email channel disabled", zap.Error(err))
		} else {
			email = sesClient
		}
	}

	manager := camunda.NewManager(zeebe.GetClient(), zapLog)

	// --- 1. Applicant intake ---
	if wcfg := config.GetWorkerConfig(cfg, vai.TaskType); wcfg.Enabled {
		c := vai.LoadConfig()
		c.Timeout = config.GetDuration(wcfg.Timeout)
		c.PhoneRule = phoneRule
		if a, ok := reg.FindActivity(vai.TaskType); ok && len(a.InputSchema) > 0 {
			c.InputSchema = a.InputSchema
		}
		handler, err := vai.NewHandler(c, log)
		if err != nil {
			zapLog.Fatal("failed to create validate-applicant-info handler", zap.Error(err))
		}
		manager.Start(vai.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, rll.TaskType); wcfg.Enabled {
		c := rll.LoadConfig()
		c.Timeout = config.GetDuration(wcfg.Timeout)
		manager.Start(rll.TaskType, wcfg, rll.NewHandler(c, log).Handle)
	}

	// --- 2. Evaluation ---
	if wcfg := config.GetWorkerConfig(cfg, ecw.TaskType); wcfg.Enabled {
		c := ecw.LoadConfig()
		c.Timeout = config.GetDuration(wcfg.Timeout)
		manager.Start(ecw.TaskType, wcfg, ecw.NewHandler(c, engine, obs, log).Handle)
	}

	// --- 3. Records ---
	if wcfg := config.GetWorkerConfig(cfg, sar.TaskType); wcfg.Enabled {
		c := sar.LoadConfig()
		c.Timeout = config.GetDuration(wcfg.Timeout)
		c.SearchIndex = cfg.Database.Elasticsearch.Index
		manager.Start(sar.TaskType, wcfg, sar.NewHandler(c, engine, pg.DB, rdb, es, log).Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, la.TaskType); wcfg.Enabled {
		c := la.LoadConfig()
		c.Timeout = config.GetDuration(wcfg.Timeout)
		if wcfg.CacheTTL > 0 {
			c.CacheTTL = time.Duration(wcfg.CacheTTL) * time.Second
		}
		manager.Start(la.TaskType, wcfg, la.NewHandler(c, pg.DB, rdb, log).Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, da.TaskType); wcfg.Enabled {
		c := da.LoadConfig()
		c.Timeout = config.GetDuration(wcfg.Timeout)
		c.SearchIndex = cfg.Database.Elasticsearch.Index
		manager.Start(da.TaskType, wcfg, da.NewHandler(c, pg.DB, rdb, es, log).Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, ea.TaskType); wcfg.Enabled {
		c := ea.LoadConfig()
		c.Timeout = config.GetDuration(wcfg.Timeout)
		manager.Start(ea.TaskType, wcfg, ea.NewHandler(c, pg.DB, log).Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, sa.TaskType); wcfg.Enabled && es != nil {
		c := sa.LoadConfig()
		c.Timeout = config.GetDuration(wcfg.Timeout)
		c.SearchIndex = cfg.Database.Elasticsearch.Index
		manager.Start(sa.TaskType, wcfg, sa.NewHandler(c, es, log).Handle)
	}

	// --- 4. Communication ---
	if wcfg := config.GetWorkerConfig(cfg, nd.TaskType); wcfg.Enabled {
		c := nd.LoadConfig()
		c.Timeout = config.GetDuration(wcfg.Timeout)
		c.SMSEnabled = cfg.Notifications.SMS.Enabled
		c.CountryCode = cfg.Notifications.SMS.CountryCode
		c.SenderID = cfg.Notifications.SMS.SenderID
		c.EmailEnabled = cfg.Notifications.Email.Enabled
		c.EmailFrom = cfg.Notifications.Email.From
		c.EmailTo = cfg.Notifications.Email.To
		manager.Start(nd.TaskType, wcfg, nd.NewHandler(c, sms, email, log).Handle)
	}

	zapLog.Info("workers registered", zap.Strings("taskTypes", manager.TaskTypes()))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		if err := pg.Ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	server := &http.Server{Addr: cfg.Server.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	manager.StopAll(30 * time.Second)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
