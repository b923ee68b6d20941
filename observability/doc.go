// Package observability provides OpenTelemetry metrics integration and
// health-check primitives for the crosscribe service.
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &cfg, log)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := comparison.NewMetrics(observability.Meter("crosscribe"))
//
// Health Checks:
//
//	health := observability.NewServiceHealth("crosscribe", version.Version)
//	health.Add(observability.ProviderHealth("whisper", available, "backend unreachable"))
package observability
