package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	authhandler "taskmanager/internal/auth/handler"
	authservice "taskmanager/internal/auth/service"
	userstore "taskmanager/internal/auth/store/user"
	jwttoken "taskmanager/internal/jwt_token"
	"taskmanager/internal/notify"
	"taskmanager/internal/platform/config"
	"taskmanager/internal/platform/httpserver"
	"taskmanager/internal/platform/kafka"
	"taskmanager/internal/platform/logger"
	"taskmanager/internal/platform/metrics"
	"taskmanager/internal/platform/otel"
	"taskmanager/internal/platform/postgres"
	redisclient "taskmanager/internal/platform/redis"
	"taskmanager/internal/ratelimit/service/authlockout"
	lockoutstore "taskmanager/internal/ratelimit/store/authlockout"
	taskhandler "taskmanager/internal/task/handler"
	taskservice "taskmanager/internal/task/service"
	taskstore "taskmanager/internal/task/store"
	httptransport "taskmanager/internal/transport/http"
	"taskmanager/pkg/platform/audit"
	auditpublisher "taskmanager/pkg/platform/audit/publisher"
	auditmemory "taskmanager/pkg/platform/audit/store/memory"
	auditpostgres "taskmanager/pkg/platform/audit/store/postgres"
	"taskmanager/pkg/platform/circuit"
	"taskmanager/pkg/platform/middleware/auth"
)

const serviceName = "taskmanager"

// main loads configuration and hands off to run. Business logic lives in the
// internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(serviceName, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, serviceName, cfg.OTel)
	if err != nil {
		return err
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegistry(reg)
	checks := map[string]httptransport.HealthCheck{}

	var (
		users      authservice.UserStore
		tasks      taskservice.Store
		accountTx  authservice.AccountTx
		auditStore audit.Store
	)
	if cfg.Database != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db, log); err != nil {
			return err
		}
		users = userstore.NewPostgres(db)
		tasks = taskstore.NewPostgres(db)
		accountTx = newAccountPostgresTx(db)
		auditStore = auditpostgres.New(db)
		checks["postgres"] = db.PingContext
		log.InfoContext(ctx, "using postgres storage")
	} else {
		memUsers, memTasks := userstore.New(), taskstore.New()
		users, tasks = memUsers, memTasks
		memTx := authservice.NewInMemoryTx(authservice.AccountStores{Users: memUsers, Tasks: memTasks})
		memTasks.GuardWith(memTx)
		accountTx = memTx
		auditStore = auditmemory.NewInMemoryStore()
		log.WarnContext(ctx, "DATABASE_URL not set, using in-memory storage")
	}

	auditor := auditpublisher.NewPublisher(auditStore, auditpublisher.WithLogger(log))
	defer auditor.Close()

	var failures authlockout.Store = lockoutstore.New()
	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
		failures = lockoutstore.NewRedis(rc.Client)
		checks["redis"] = rc.Health
	}
	lockout, err := authlockout.New(failures,
		authlockout.WithLimits(cfg.Lockout.Attempts, cfg.Lockout.Window),
		authlockout.WithLogger(log),
		authlockout.WithAuditPublisher(auditor),
	)
	if err != nil {
		return err
	}

	sender, closeSender, err := newSender(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSender()
	dispatcher := notify.NewDispatcher(sender,
		notify.WithLogger(log),
		notify.WithMetrics(m),
		notify.WithWorkers(cfg.Notify.Workers),
		notify.WithBuffer(cfg.Notify.Buffer),
		notify.WithSendTimeout(cfg.Notify.SendTimeout),
	)

	signer := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, jwttoken.WithTTL(cfg.Server.TokenTTL))
	accounts, err := authservice.New(users, accountTx, signer,
		authservice.WithLogger(log),
		authservice.WithNotifier(dispatcher),
		authservice.WithAuditPublisher(auditor),
		authservice.WithLockout(lockout),
		authservice.WithMetrics(m),
	)
	if err != nil {
		return err
	}
	taskSvc, err := taskservice.New(tasks, taskservice.WithLogger(log), taskservice.WithMetrics(m))
	if err != nil {
		return err
	}

	requireAuth := auth.RequireAuth(accounts, log)
	router := httptransport.NewRouter(httptransport.Options{
		Logger:   log,
		Metrics:  m,
		Gatherer: reg,
		Checks:   checks,
	},
		authhandler.New(accounts, log, requireAuth),
		taskhandler.New(taskSvc, log, requireAuth),
	)
	srv := httpserver.New(cfg.Server.Addr, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(ctx, "starting taskmanager", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		if err := dispatcher.Close(shutdownCtx); err != nil {
			log.Warn("notifications not drained before shutdown", "error", err)
		}
		log.Info("taskmanager stopped")
		return nil
	})
	return g.Wait()
}

// newSender picks the notification transport: a Kafka topic when brokers are
// configured, SendGrid when an API key is set, and the log otherwise.
func newSender(ctx context.Context, cfg config.Config, log *slog.Logger) (notify.Sender, func(), error) {
	noop := func() {}
	switch {
	case len(cfg.Kafka.Brokers) > 0:
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			return nil, noop, err
		}
		if err := producer.EnsureTopic(ctx, cfg.Kafka.NotificationsTopic, 1, 1); err != nil {
			producer.Close()
			return nil, noop, err
		}
		log.InfoContext(ctx, "publishing notifications to kafka", "topic", cfg.Kafka.NotificationsTopic)
		return notify.NewKafkaSender(producer, cfg.Kafka.NotificationsTopic), producer.Close, nil
	case cfg.Mail.SendGridAPIKey != "":
		sender, err := notify.NewSendGridSender(cfg.Mail.SendGridAPIKey, cfg.Mail.From, cfg.Mail.FromName)
		if err != nil {
			return nil, noop, err
		}
		return notify.NewFallbackSender(sender, notify.NewLogSender(log), circuit.New("sendgrid"), log), noop, nil
	default:
		log.WarnContext(ctx, "no mail transport configured, notifications are logged only")
		return notify.NewLogSender(log), noop, nil
	}
}
