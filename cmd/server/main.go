// Command server wires the transportation engine: postgres stores, the audit
// outbox relay, the directory cache, and the HTTP surface. Business logic
// lives in the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"schoolbus/internal/assignment"
	"schoolbus/internal/attendance"
	"schoolbus/internal/audit"
	auditworker "schoolbus/internal/audit/worker"
	"schoolbus/internal/directory"
	"schoolbus/internal/leave"
	"schoolbus/internal/platform/config"
	"schoolbus/internal/platform/httpserver"
	"schoolbus/internal/platform/logger"
	"schoolbus/internal/platform/metrics"
	platformredis "schoolbus/internal/platform/redis"
	"schoolbus/internal/platform/storetx"
	"schoolbus/internal/platform/token"
	"schoolbus/internal/registry"
	"schoolbus/internal/suspension"
	"schoolbus/internal/transfer"
	httptransport "schoolbus/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	m := metrics.New()
	runner := storetx.NewPostgres(db)

	// Stores.
	studentStore := registry.NewPostgresStudentStore(db)
	busStore := registry.NewPostgresBusStore(db)
	assignmentStore := assignment.NewPostgresStore(db)
	suspensionStore := suspension.NewPostgresStore(db)
	leaveStore := leave.NewPostgresStore(db)
	transferStore := transfer.NewPostgresStore(db)
	sessionStore := attendance.NewPostgresSessionStore(db)
	recordStore := attendance.NewPostgresRecordStore(db)
	auditStore := audit.NewPostgresStore(db)
	auditor := audit.NewPublisher(auditStore)

	// Directory client with optional redis read-through cache.
	var dirClient directory.Client = directory.NewHTTPClient(cfg.DirectoryBaseURL)
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		dirClient = directory.NewCachedClient(dirClient, redisClient.Client, cfg.DirectoryCacheTTL, log)
	}

	// Services.
	studentService := registry.NewStudentService(studentStore, auditor, runner,
		registry.WithStudentLogger(log))
	busService := registry.NewBusService(busStore, assignmentStore, auditor, runner,
		registry.WithBusLogger(log), registry.WithBusMetrics(m))
	assignmentService := assignment.NewService(assignmentStore, studentStore, busStore, auditor, runner,
		assignment.WithLogger(log), assignment.WithMetrics(m),
		assignment.WithStrictCapacity(cfg.StrictCapacity))
	suspensionService := suspension.NewService(suspensionStore, studentStore, busStore, assignmentStore, auditor, runner,
		suspension.WithLogger(log), suspension.WithMetrics(m))
	leaveService := leave.NewService(leaveStore, studentStore, auditor, runner,
		leave.WithLogger(log), leave.WithMetrics(m))
	transferService := transfer.NewService(transferStore, studentStore, busStore, assignmentStore, auditor, runner,
		transfer.WithLogger(log), transfer.WithMetrics(m),
		transfer.WithStrictCapacity(cfg.StrictCapacity))
	attendanceService := attendance.NewService(sessionStore, recordStore, studentStore, busStore,
		directory.NewExistenceChecker(dirClient), auditor, runner,
		attendance.WithLogger(log), attendance.WithMetrics(m))

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:    log,
		Validator: token.NewJWTService(cfg.JWTSigningKey),
		Handlers: []httptransport.Registrar{
			httptransport.NewRegistryHandler(studentService, busService, log),
			httptransport.NewAssignmentHandler(assignmentService, log),
			httptransport.NewSuspensionHandler(suspensionService, log),
			httptransport.NewLeaveHandler(leaveService, log),
			httptransport.NewTransferHandler(transferService, log),
			httptransport.NewAttendanceHandler(attendanceService, log),
			httptransport.NewAuditHandler(auditor, log),
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting schoolbus engine", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Audit outbox relay, only when brokers are configured.
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := kgo.NewClient(
			kgo.SeedBrokers(cfg.Kafka.Brokers...),
			kgo.ProducerLinger(50*time.Millisecond),
		)
		if err != nil {
			return err
		}
		defer kafkaClient.Close()

		relay := auditworker.New(auditStore, kafkaClient, cfg.Kafka.AuditTopic, cfg.Kafka.PollInterval, log, m)
		if err := relay.EnsureTopic(ctx); err != nil {
			return err
		}
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
