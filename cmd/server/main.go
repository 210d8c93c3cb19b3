package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/tinyconf/internal/application"
	"github.com/eugenenazirov/tinyconf/internal/bootstrap"
	"github.com/eugenenazirov/tinyconf/internal/config"
	"github.com/eugenenazirov/tinyconf/internal/logging"
	"github.com/eugenenazirov/tinyconf/internal/settings"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("tinyconf-server", "Configuration server - resolves layered properties and serves them over HTTP")
	flags := bootstrap.Register(kingpinApp)
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	readOnly := kingpinApp.Flag("read-only", "Reject modifications of the configuration").Bool()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	bootLogger, err := logging.New(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	loader, err := flags.Loader(bootLogger)
	if err != nil {
		panic(fmt.Sprintf("failed to prepare configuration: %v", err))
	}
	store := config.NewLazy(loader).Store()

	overrides := &settings.CLIOverrides{}
	if *port != "" {
		overrides.Port = port
	}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}
	if *readOnly {
		overrides.ReadOnly = readOnly
	}
	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}
	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := settings.Load(store, overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load settings: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	_ = bootLogger.Sync()
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, store, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
