// Command crosscribe runs the transcription comparison service: it ingests
// fragmented audio uploads, reassembles them into recordings, and compares
// the output of several speech-to-text backends over diarized segments.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbukum/crosscribe/comparison"
	"github.com/kbukum/crosscribe/config"
	"github.com/kbukum/crosscribe/diarization"
	"github.com/kbukum/crosscribe/diarization/pyannote"
	"github.com/kbukum/crosscribe/logger"
	"github.com/kbukum/crosscribe/observability"
	"github.com/kbukum/crosscribe/provider"
	"github.com/kbukum/crosscribe/server"
	"github.com/kbukum/crosscribe/server/endpoint"
	"github.com/kbukum/crosscribe/session"
	"github.com/kbukum/crosscribe/storage/local"
	"github.com/kbukum/crosscribe/transcription"
	"github.com/kbukum/crosscribe/transcription/gpt4o"
	"github.com/kbukum/crosscribe/transcription/openai"
	"github.com/kbukum/crosscribe/transcription/whisper"
	"github.com/kbukum/crosscribe/version"
)

const serviceName = "crosscribe"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "crosscribe: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config.AppConfig
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.New(&cfg.Logging, cfg.Name)
	log.Info("starting crosscribe", logger.Fields(
		"version", version.GetShortVersion(),
		"environment", cfg.Environment,
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *comparison.Metrics
	if cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, &cfg.Metrics, log)
		if err != nil {
			return fmt.Errorf("init meter: %w", err)
		}
		defer mp.Shutdown(context.Background())

		metrics, err = comparison.NewMetrics(observability.Meter(cfg.Name))
		if err != nil {
			return fmt.Errorf("create metrics: %w", err)
		}
	}

	blobs, err := local.NewStorage(cfg.Storage.BasePath)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	diarizers, transcribers, err := buildProviders(cfg.Backends)
	if err != nil {
		return err
	}

	sessions := session.NewStore(cfg.Session, blobs, log)
	sessions.Start()
	defer sessions.Stop()

	comparisons := comparison.NewService(cfg.Comparison, diarizers, transcribers, blobs, metrics, log)

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	srv.RegisterDefaultEndpoints(cfg.Name, healthChecker(diarizers, transcribers))
	server.NewHandlers(sessions, comparisons, log).RegisterRoutes(srv.GinEngine())

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("shutdown signal received")
	return srv.Stop(context.Background())
}

// buildProviders registers the known provider factories and instantiates
// every backend named in the configuration.
func buildProviders(cfg config.BackendsConfig) (*provider.Registry[diarization.Provider], *provider.Registry[transcription.Provider], error) {
	diarizers := diarization.NewRegistry()
	diarizers.RegisterFactory("pyannote", pyannote.Factory())

	transcribers := transcription.NewRegistry()
	transcribers.RegisterFactory("whisper", whisper.Factory())
	transcribers.RegisterFactory("openai", openai.Factory())
	transcribers.RegisterFactory("gpt4o", gpt4o.Factory())

	for name, providerCfg := range cfg.Diarization {
		inst, err := diarizers.Create(name, providerCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("configure diarizer %s: %w", name, err)
		}
		diarizers.Set(name, inst)
	}
	for name, providerCfg := range cfg.Transcription {
		inst, err := transcribers.Create(name, providerCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("configure backend %s: %w", name, err)
		}
		transcribers.Set(name, inst)
	}
	return diarizers, transcribers, nil
}

// healthChecker reports one health entry per configured backend.
func healthChecker(diarizers *provider.Registry[diarization.Provider], transcribers *provider.Registry[transcription.Provider]) endpoint.HealthChecker {
	return func(ctx context.Context) []observability.Health {
		var out []observability.Health
		for name, p := range diarizers.Instances() {
			out = append(out, observability.ProviderHealth(name, p.IsAvailable(ctx), "backend unreachable"))
		}
		for name, p := range transcribers.Instances() {
			out = append(out, observability.ProviderHealth(name, p.IsAvailable(ctx), "backend unreachable"))
		}
		return out
	}
}
