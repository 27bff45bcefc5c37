// Command evaluatord is the process entrypoint: it loads Config, wires
// Router, Governor, Executor, Orchestrator, the catalog store, metrics,
// and the thin HTTP surface together, then serves until signaled to
// stop.
//
// Grounded on the teacher's examples/server/main.go (construct config,
// hand it to a factory, run until the context ends) and
// server/server_factory.go's separation of wiring from serving, adapted
// from AMQP consumption to an HTTP listener with graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/OmprakashShyamalan/querybench/internal/catalog"
	"github.com/OmprakashShyamalan/querybench/internal/config"
	"github.com/OmprakashShyamalan/querybench/internal/executor"
	"github.com/OmprakashShyamalan/querybench/internal/governor"
	"github.com/OmprakashShyamalan/querybench/internal/httpapi"
	"github.com/OmprakashShyamalan/querybench/internal/introspect"
	"github.com/OmprakashShyamalan/querybench/internal/metrics"
	"github.com/OmprakashShyamalan/querybench/internal/models"
	"github.com/OmprakashShyamalan/querybench/internal/normalize"
	"github.com/OmprakashShyamalan/querybench/internal/orchestrator"
	"github.com/OmprakashShyamalan/querybench/internal/router"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("evaluatord exited with error", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	primary := models.ConnectionSpec{Label: "primary", DSN: cfg.PrimaryConn}
	var replicas []models.ConnectionSpec
	for i, dsn := range cfg.ReplicaConns {
		replicas = append(replicas, models.ConnectionSpec{Label: "replica-" + strconv.Itoa(i), DSN: dsn})
	}

	var met *metrics.Metrics
	if cfg.MetricsEnabled {
		met = metrics.New(prometheus.NewRegistry())
	}

	rtr := router.New(primary, replicas, cfg.HealthCooldown, cfg.ConnectTimeout, router.DefaultOpener, log, met)
	gov := governor.New(cfg.MaxConcurrentQueryRuns, cfg.RunRateLimit)

	exe := executor.New(gov, rtr, executor.Options{
		QueryTimeout:   time.Duration(cfg.QueryTimeoutSeconds) * time.Second,
		MaxResultRows:  cfg.MaxResultRows,
		ConnectTimeout: cfg.ConnectTimeout,
		Normalize: normalize.Options{
			DecimalPrecision:       cfg.DecimalPrecision,
			StripStrings:           cfg.StripStrings,
			CaseInsensitiveColumns: cfg.CaseInsensitiveColumns,
		},
	})

	orch := orchestrator.New(gov, exe, met)
	intro := introspect.New(cfg.IntrospectTTL, 64)

	ctx := context.Background()
	cat, err := catalog.Open(ctx, cfg.CatalogDSN)
	if err != nil {
		return err
	}
	defer cat.Close()

	// Every submission and every schema lookup evaluates against the
	// configured primary/replica pool, never an explicit per-request
	// target (that seam exists for tests, not for this surface).
	target := func() models.TargetSelector { return models.RouterTarget(false) }
	introSrc := func(ctx context.Context) (*sql.DB, error) {
		db, _, err := rtr.Acquire(ctx, true)
		return db, err
	}

	handler := httpapi.New(orch, intro, cat, met, log, target, introSrc, primary.DSN)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("evaluatord listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
