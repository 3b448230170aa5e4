package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/caarlos0/env/v6"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/imobmatch/imobmatch/config"
	leadrepo "github.com/imobmatch/imobmatch/internal/repositories/lead"
	leadnotifrepo "github.com/imobmatch/imobmatch/internal/repositories/leadnotification"
	partnershipnotifrepo "github.com/imobmatch/imobmatch/internal/repositories/partnershipnotification"
	propertyrepo "github.com/imobmatch/imobmatch/internal/repositories/property"
	userrepo "github.com/imobmatch/imobmatch/internal/repositories/user"
	"github.com/imobmatch/imobmatch/pkg/contacts"
	"github.com/imobmatch/imobmatch/pkg/database"
	"github.com/imobmatch/imobmatch/pkg/events"
	"github.com/imobmatch/imobmatch/pkg/kafka"
	"github.com/imobmatch/imobmatch/pkg/matching"
	"github.com/imobmatch/imobmatch/pkg/metrics"
	"github.com/imobmatch/imobmatch/pkg/middleware"
	healthroutes "github.com/imobmatch/imobmatch/pkg/routes/health"
	leadhandler "github.com/imobmatch/imobmatch/pkg/routes/lead"
	notificationhandler "github.com/imobmatch/imobmatch/pkg/routes/notification"
	propertyhandler "github.com/imobmatch/imobmatch/pkg/routes/property"
	"github.com/imobmatch/imobmatch/pkg/tracing"
	"github.com/imobmatch/imobmatch/pkg/tracing/exporters"
)

const version = "1.0.0"

func main() {
	godotenv.Load()

	cfg := config.Config{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		var exporter sdktrace.SpanExporter
		if cfg.TracingOTLPProtocol == "console" {
			exporter = &exporters.ConsoleExporter{}
		} else {
			var err error
			exporter, err = exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
				Endpoint: cfg.TracingOTLPEndpoint,
				Protocol: cfg.TracingOTLPProtocol,
				Insecure: cfg.TracingOTLPInsecure,
				Timeout:  10 * time.Second,
			})
			if err != nil {
				logger.WithError(err).Error("Failed to create OTLP exporter")
				os.Exit(1)
			}
		}
		tp := tracing.InitProvider(exporter, cfg.AppName)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shut down tracer provider")
			}
		}()
	}

	sqlxDB, err := database.Connect(database.ConnectConfig{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		RetryCount:      cfg.DatabaseReconnectRetryCount,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer sqlxDB.Close()

	migrationDriver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
	if err != nil {
		logger.WithError(err).Error("Failed to create migration driver")
		os.Exit(1)
	}
	migrationService := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrationService.Migrate(cfg.DatabaseName, migrationDriver); err != nil {
		logger.WithError(err).Error("Failed to run database migrations")
		os.Exit(1)
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)

	leads := leadrepo.NewRepository(db, logger)
	properties := propertyrepo.NewRepository(db, logger)
	leadNotifs := leadnotifrepo.NewRepository(db, logger)
	partnershipNotifs := partnershipnotifrepo.NewRepository(db, logger)
	users := userrepo.NewRepository(db, logger)
	resolver := contacts.NewResolver(users, logger)

	var emitter matching.EventEmitter
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewEmitter(producer, logger)
	}

	engine := matching.NewEngine(leads, properties, leadNotifs, partnershipNotifs, resolver, emitter, logger, matching.Config{
		DedupWindow:    cfg.NotificationDedupWindow,
		CandidateLimit: cfg.MatchCandidateLimit,
	})

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.HTTPMiddleware())

	e.GET("/metrics", metrics.Handler())

	checker := healthroutes.NewChecker(sqlxDB, version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	leadhandler.NewHandler(leads, engine, logger).RegisterRoutes(api.Group("/leads"))
	propertyhandler.NewHandler(properties, engine, logger).RegisterRoutes(api.Group("/properties"))
	notificationhandler.NewHandler(leadNotifs, partnershipNotifs, logger).RegisterRoutes(api.Group("/notifications"))

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	go func() {
		checker.SetReady(true)
		logger.Infof("Starting server on port %d", cfg.Port)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server failed to start")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	checker.SetReady(false)
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down server gracefully")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	return ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		var data []byte
		if cfg.PrettyLogs {
			data, _ = json.MarshalIndent(msg, "", "  ")
		} else {
			data, _ = json.Marshal(msg)
		}
		fmt.Fprintln(os.Stdout, string(data))
	})
}
