package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"dashgate/internal/account"
	accounthandler "dashgate/internal/account/handler"
	"dashgate/internal/account/revocation"
	"dashgate/internal/authflow"
	flowhandler "dashgate/internal/authflow/handler"
	"dashgate/internal/authflow/store"
	"dashgate/internal/guard"
	"dashgate/internal/identity/httpclient"
	jwttoken "dashgate/internal/jwt_token"
	"dashgate/internal/platform/config"
	"dashgate/internal/platform/database"
	"dashgate/internal/platform/health"
	"dashgate/internal/platform/kvstore"
	"dashgate/internal/platform/logger"
	"dashgate/internal/platform/metrics"
	"dashgate/internal/platform/pending"
	"dashgate/internal/platform/redis"
	httptransport "dashgate/internal/transport/http"
	"dashgate/pkg/platform/audit"
	"dashgate/pkg/platform/audit/publisher"
	"dashgate/pkg/platform/audit/store/memory"
	"dashgate/pkg/platform/audit/store/postgres"
	"dashgate/pkg/platform/circuit"
	"dashgate/pkg/platform/httputil"
	"dashgate/pkg/platform/middleware/metadata"
	"dashgate/pkg/platform/middleware/request"
	"dashgate/pkg/platform/tracer"
)

// auditBuffer sizes the async audit queue.
const auditBuffer = 256

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg, err := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing dashgate",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"identity_api", cfg.Identity.BaseURL,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)
	healthHandler := health.New(cfg.Server.Environment)

	kv, closeKV := buildKVStore(ctx, cfg, reg, healthHandler, log)
	defer closeKV()

	auditLogger, closeAudit := buildAudit(ctx, cfg, healthHandler, log)
	defer closeAudit()

	breaker := circuit.New("identity",
		circuit.WithFailureThreshold(cfg.Identity.BreakerThreshold),
		circuit.WithCooldown(cfg.Identity.BreakerCooldown),
		circuit.OnStateChange(func(name string, from, to circuit.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}),
	)
	client := httpclient.New(cfg.Identity.BaseURL, cfg.Identity.SecretKey, cfg.Identity.Timeout,
		httpclient.WithBreaker(breaker),
		httpclient.WithTracer(tracer.NewOTel(nil)),
		httpclient.WithObserver(appMetrics),
		httpclient.WithLogger(log),
	)
	healthHandler.RegisterCheck("identity_provider", client.Health)

	verifier, err := jwttoken.NewVerifier(cfg.Session)
	if err != nil {
		log.Error("failed to build session verifier", "error", err)
		os.Exit(1)
	}

	proxies, err := metadata.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		log.Error("invalid TRUSTED_PROXIES", "error", err)
		os.Exit(1)
	}

	tracker := pending.New(kv, pending.WithMetrics(appMetrics), pending.WithLogger(log))
	revocations := revocation.New(kv, revocation.DefaultTTL)
	cookies := httputil.Cookies{
		FlowName:    cfg.Flow.CookieName,
		FlowTTL:     cfg.Flow.TTL,
		SessionName: cfg.Session.CookieName,
		Secure:      cfg.Server.CookieSecure,
	}

	flows := authflow.New(client, store.New(kv, cfg.Flow.TTL), tracker,
		authflow.WithLogger(log),
		authflow.WithMetrics(appMetrics),
		authflow.WithAudit(auditLogger),
	)
	accounts := account.New(client, kv, tracker, revocations,
		account.WithLogger(log),
		account.WithMetrics(appMetrics),
		account.WithAudit(auditLogger),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		RequestTimeout: cfg.Server.RequestTimeout,
		TrustedProxies: metadata.NewMiddleware(metadata.Config{TrustedProxies: proxies}),
		RequestMetrics: request.NewMetrics(reg),
		Gatherer:       reg,
		Sessions:       verifier,
		Revocations:    revocations,
		CookieName:     cfg.Session.CookieName,
		Guard:          guard.New(cfg.Server.AdminPrefixes, guard.WithLogger(log), guard.WithMetrics(appMetrics)),
		Health:         healthHandler,
		Flows:          flowhandler.New(flows, cookies, log),
		Account:        accounthandler.New(accounts, cookies, log),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}

// buildKVStore prefers Redis and falls back to process memory, which only
// suits a single instance.
func buildKVStore(ctx context.Context, cfg config.Config, reg prometheus.Registerer, h *health.Handler, log *slog.Logger) (kvstore.Store, func()) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if client == nil {
		if cfg.IsProduction() {
			log.Warn("REDIS_URL not set; flow state is held in process memory")
		}
		mem := kvstore.NewMemory()
		go mem.RunJanitor(ctx, time.Minute)
		return mem, func() {}
	}
	if err := client.RegisterPoolMetrics(reg); err != nil {
		log.Warn("failed to register redis pool metrics", "error", err)
	}
	h.RegisterCheck("redis", client.Health)
	log.Info("using redis for flow state")
	return kvstore.NewRedis(client, "dashgate:"), func() {
		if err := client.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}
}

// buildAudit persists audit events to Postgres when configured, in memory otherwise.
func buildAudit(ctx context.Context, cfg config.Config, h *health.Handler, log *slog.Logger) (*audit.Logger, func()) {
	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var sink audit.Store = memory.NewInMemoryStore()
	closePool := func() {}
	if pool != nil {
		h.RegisterCheck("postgres", pool.Health)
		sink = postgres.New(pool.DB())
		closePool = func() {
			if err := pool.Close(); err != nil {
				log.Warn("failed to close database pool", "error", err)
			}
		}
	}

	pub := publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(auditBuffer),
		publisher.WithPublisherLogger(log),
	)
	return audit.NewLogger(log, pub), func() {
		pub.Close()
		closePool()
	}
}
