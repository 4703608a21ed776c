package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/sushant23/ai-agent-demo-sub001/internal/api"
	"github.com/sushant23/ai-agent-demo-sub001/internal/observability"
	metrics "github.com/sushant23/ai-agent-demo-sub001/pkg/observability"
	"go.uber.org/zap"
)

var (
	servePort    int
	allowOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant HTTP API",
	Long: `Starts the HTTP API:

  POST   /v1/messages                   process one user message
  GET    /v1/status                     process counters
  GET    /v1/patterns                   metrics of every enabled pattern
  GET    /v1/patterns/{pattern}/metrics metrics of one pattern
  GET    /v1/sessions/{id}              stored conversation
  DELETE /v1/sessions/{id}              forget a conversation
  GET    /health, /health/live, /health/ready, /metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (overrides server.port)")
	serveCmd.Flags().StringSliceVar(&allowOrigins, "allow-origin", []string{"*"}, "CORS allowed origins")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	if err := observability.Init(observability.Config{
		ServiceName:  cfg.Observability.ServiceName,
		ExporterType: cfg.Observability.TracesExporter,
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
		OTLPHeaders:  observability.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
	}, logger); err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	metrics.InitMetrics()

	schedule, err := cron.ParseStandard(cfg.Server.StatusInterval)
	if err != nil {
		return fmt.Errorf("invalid server.status_interval %q: %w", cfg.Server.StatusInterval, err)
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	health := metrics.NewHealthChecker(Version)
	health.RegisterCheck(metrics.OrchestratorCheck(func() bool {
		return a.orchestrator.Status().IsRunning
	}))
	health.RegisterCheck(metrics.LLMProviderCheck(func() int {
		return len(a.providers.Providers())
	}))
	if pinger, ok := a.sessions.(interface{ Ping(context.Context) error }); ok {
		health.RegisterCheck(metrics.SessionStoreCheck(pinger.Ping))
	}

	handler := api.NewHandler(a.orchestrator, a.sessions, logger)
	server := metrics.NewServer(cfg.Server.Port, health,
		metrics.WithRoutes(handler.RegisterRoutes),
		metrics.WithAllowedOrigins(allowOrigins...),
	)

	scheduler := cron.New()
	scheduler.Schedule(schedule, cron.FuncJob(func() { logStatus(a) }))
	scheduler.Start()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.Int("port", cfg.Server.Port), zap.String("version", Version))
		errChan <- server.Start()
	}()

	select {
	case err = <-errChan:
		if err != nil {
			logger.Error("HTTP server error", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	<-scheduler.Stop().Done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	if err := observability.Shutdown(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown error", zap.Error(err))
	}

	logStatus(a)
	return err
}

// logStatus writes the process counters and per-pattern metrics
func logStatus(a *app) {
	status := a.orchestrator.Status()
	fields := []zap.Field{
		zap.Bool("running", status.IsRunning),
		zap.Int("active", status.ActiveWorkflows),
		zap.Int64("total_requests", status.TotalRequests),
		zap.Float64("error_rate", status.ErrorRate),
		zap.Float64("avg_response_ms", status.AverageResponseTime),
	}
	for p, m := range a.orchestrator.MetricsSnapshot() {
		fields = append(fields, zap.Int64(string(p)+"_executions", m.ExecutionCount))
	}
	logger.Info("assistant status", fields...)
}
