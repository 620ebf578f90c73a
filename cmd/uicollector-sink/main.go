package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/johnmalek312/android-ui-collector/internal/config"
	"github.com/johnmalek312/android-ui-collector/internal/infra/buildinfo"
	"github.com/johnmalek312/android-ui-collector/internal/infra/shutdown"
	"github.com/johnmalek312/android-ui-collector/internal/infra/tlsroots"
	"github.com/johnmalek312/android-ui-collector/internal/server/sinkserver"
	"github.com/johnmalek312/android-ui-collector/internal/server/sinkserver/handler"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/logger"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", os.Getenv("UICOLLECTOR_CONFIG"), "Path to configuration file")
		addr        = flag.String("addr", "", "Listen address (overrides sink.addr)")
		uploadsDir  = flag.String("uploads-dir", "", "Directory for received files (overrides sink.uploads_dir)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("uicollector-sink %s\n", buildinfo.String())
		return nil
	}

	overrides := map[string]any{}
	if *addr != "" {
		overrides["sink.addr"] = *addr
	}
	if *uploadsDir != "" {
		overrides["sink.uploads_dir"] = *uploadsDir
	}
	cfg, err := config.Load(*configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.VerifySink(cfg); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	log, err := logger.Setup(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
		File:   cfg.Log.File,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.RegisterSecret(cfg.Sink.APIKey)

	log.Info("starting uicollector-sink",
		"version", buildinfo.Version,
		"config", *configFile,
		"uploads_dir", cfg.Sink.UploadsDir)

	store, err := handler.NewStore(cfg.Sink.UploadsDir)
	if err != nil {
		return fmt.Errorf("init uploads dir: %w", err)
	}

	var limiter *sinkserver.ClientLimiter
	if cfg.Sink.RateLimit > 0 {
		limiter = sinkserver.NewClientLimiter(cfg.Sink.RateLimit, cfg.Sink.RateBurst)
	}
	if cfg.Sink.APIKey == "" {
		log.Warn("sink.api_key is empty, uploads are not authenticated")
	}

	router := sinkserver.NewRouter(&sinkserver.RouterConfig{
		Store:        store,
		Metrics:      metric.NewRegistry(),
		Logger:       log,
		APIKey:       cfg.Sink.APIKey,
		Limiter:      limiter,
		MaxBodyBytes: cfg.Sink.MaxBodyBytes,
	})

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	srv := sinkserver.New(cfg.Sink.Addr, router, log)
	if cfg.Sink.TLSCertFile != "" {
		kp, err := tlsroots.LoadKeyPair(cfg.Sink.TLSCertFile, cfg.Sink.TLSKeyFile, log.With("component", "tls"))
		if err != nil {
			return fmt.Errorf("load tls key pair: %w", err)
		}
		if err := kp.Watch(tlsroots.DefaultReloadDebounce); err != nil {
			log.Warn("certificate reload disabled", "error", err)
		}
		defer kp.Close()
		srv.UseTLS(kp.ServerConfig())
	}
	if err := srv.Run(ctx, cfg.Sink.ShutdownTimeout); err != nil {
		log.Error("sink stopped with error", "error", err)
		return err
	}
	return nil
}
