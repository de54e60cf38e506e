// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blinklabs-io/qvote"
	"github.com/blinklabs-io/qvote/internal/config"
)

// NewNode builds a node from the loaded config
func NewNode(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*qvote.Node, error) {
	shutdownTimeout, err := cfg.ParsedShutdownTimeout()
	if err != nil {
		return nil, err
	}
	tickLength, err := cfg.ParsedTickLength()
	if err != nil {
		return nil, err
	}
	genesisTime, err := cfg.ParsedGenesisTime()
	if err != nil {
		return nil, err
	}
	return qvote.New(
		qvote.NewConfig(
			qvote.WithLogger(logger),
			qvote.WithDatabasePath(cfg.DatabasePath),
			qvote.WithInMemory(cfg.InMemory),
			qvote.WithBlobPlugin(cfg.BlobPlugin),
			qvote.WithMetadataPlugin(cfg.MetadataPlugin),
			qvote.WithGovernanceParams(cfg.Governance.Params()),
			qvote.WithGenesisVoters(cfg.Governance.GenesisVoters...),
			qvote.WithRegistrars(cfg.Governance.Registrars...),
			qvote.WithGenesisTime(genesisTime),
			qvote.WithTickLength(tickLength),
			qvote.WithApiListenAddress(cfg.ApiListenAddress()),
			qvote.WithApiAllowedOrigins(cfg.ApiAllowedOrigins...),
			qvote.WithTracing(cfg.Tracing),
			qvote.WithTracingStdout(cfg.TracingStdout),
			qvote.WithShutdownTimeout(shutdownTimeout),
			qvote.WithPrometheusRegistry(promRegistry),
		),
	)
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	shutdownTimeout, err := cfg.ParsedShutdownTimeout()
	if err != nil {
		return err
	}
	// Enable metrics with default prometheus registry
	n, err := NewNode(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	// Metrics and debug listener
	var metricsServer *http.Server
	metricsErr := make(chan error, 1)
	if cfg.MetricsPort > 0 {
		http.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				metricsErr <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
	}
	shutdownMetrics := func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- n.Run()
	}()

	// Wait for signal or error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		shutdownMetrics()
		if err := n.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		<-errChan
		logger.Info("shutdown complete")
		return nil

	case err := <-metricsErr:
		logger.Error("failed to start metrics listener", "error", err)
		if stopErr := n.Stop(); stopErr != nil {
			logger.Error("shutdown errors occurred", "error", stopErr)
		}
		<-errChan
		return err

	case err := <-errChan:
		shutdownMetrics()
		if err == nil {
			logger.Info("node stopped")
			return nil
		}
		logger.Error("node error", "error", err)
		if stopErr := n.Stop(); stopErr != nil {
			logger.Error(
				"shutdown errors occurred during error cleanup",
				"error",
				stopErr,
			)
		}
		return err
	}
}
