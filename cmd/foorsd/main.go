// Command foorsd runs the FOORS+ routing engine as an HTTP service:
// a ScenarioState driven by a real-time TimeController, exposed over
// gorilla/mux, with Prometheus metrics and OpenTelemetry tracing.
//
// Grounded on the teacher's cmd/simulator/main.go: flag parsing,
// wiring a KB/engine, and driving it from a TimeController's
// AddListener callback.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalsfoundry/foors-plus/internal/api"
	"github.com/signalsfoundry/foors-plus/internal/logging"
	"github.com/signalsfoundry/foors-plus/internal/observability"
	"github.com/signalsfoundry/foors-plus/internal/sim/state"
	"github.com/signalsfoundry/foors-plus/timectrl"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "HTTP listen address")
		tickInterval = flag.Duration("tick", 200*time.Millisecond, "wall-clock interval between simulated ticks")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "auto-generator random seed")
		diagRingSize = flag.Int("diagnostics-ring", 64, "number of recent tick summaries retained for diagnostics")
	)
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to init tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	metrics, err := observability.NewCollector(nil, *diagRingSize)
	if err != nil {
		log.Error(ctx, "failed to init metrics", logging.String("error", err.Error()))
		os.Exit(1)
	}

	scenario := state.NewScenarioState(*seed, state.WithLogger(log), state.WithMetricsRecorder(metrics))

	tc := timectrl.NewTimeController(time.Now(), *tickInterval, timectrl.RealTime)
	tc.AddListener(func(time.Time) {
		scenario.Tick(context.Background(), tickInterval.Seconds())
	})
	done := tc.Start(0)

	srv := api.NewServer(scenario, log, metrics)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info(ctx, "foorsd listening", logging.String("addr", *addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "http server failed", logging.String("error", err.Error()))
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn(context.Background(), "http shutdown error", logging.String("error", err.Error()))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
	}
	fmt.Fprintln(os.Stdout, "foorsd stopped")
}
