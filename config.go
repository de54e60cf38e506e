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

package qvote

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/qvote/governance"
)

const (
	DefaultTickLength      = 6 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

type Config struct {
	promRegistry      prometheus.Registerer
	logger            *slog.Logger
	dataDir           string
	inMemory          bool
	blobPlugin        string
	metadataPlugin    string
	params            governance.Params
	genesisVoters     []governance.GenesisVoter
	registrars        []string
	genesisTime       time.Time
	tickLength        time.Duration
	apiListenAddress  string
	apiAllowedOrigins []string
	tracing           bool
	tracingStdout     bool
	shutdownTimeout   time.Duration
}

func (n *Node) configValidate() error {
	if err := n.config.params.Validate(); err != nil {
		return err
	}
	if n.config.tickLength <= 0 {
		return fmt.Errorf("invalid tick length: %s", n.config.tickLength)
	}
	seen := make(map[governance.AccountID]struct{}, len(n.config.genesisVoters))
	for _, voter := range n.config.genesisVoters {
		if voter.Account == "" {
			return errors.New("genesis voter with empty account")
		}
		if _, ok := seen[voter.Account]; ok {
			return fmt.Errorf("duplicate genesis voter: %s", voter.Account)
		}
		seen[voter.Account] = struct{}{}
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new qvote config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		params:          governance.DefaultParams(),
		genesisTime:     time.Unix(0, 0).UTC(),
		tickLength:      DefaultTickLength,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is the data-dir option of
// the selected storage plugins
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithInMemory keeps all state in memory. Nothing survives a restart
func WithInMemory(inMemory bool) ConfigOptionFunc {
	return func(c *Config) {
		c.inMemory = inMemory
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. The default is to throw away logs
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. Metrics are not
// collected when unset
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithGovernanceParams specifies the referendum and voting parameters
func WithGovernanceParams(params governance.Params) ConfigOptionFunc {
	return func(c *Config) {
		c.params = params
	}
}

// WithGenesisVoters specifies accounts that are registered as voters at startup
func WithGenesisVoters(voters ...governance.GenesisVoter) ConfigOptionFunc {
	return func(c *Config) {
		c.genesisVoters = voters
	}
}

// WithRegistrars restricts identity creation to the listed accounts. Anyone
// may create identities when no registrars are configured
func WithRegistrars(registrars ...string) ConfigOptionFunc {
	return func(c *Config) {
		c.registrars = registrars
	}
}

// WithGenesisTime specifies the start of tick 0
func WithGenesisTime(genesis time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.genesisTime = genesis
	}
}

// WithTickLength specifies the wall-clock duration of a tick
func WithTickLength(length time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.tickLength = length
	}
}

// WithApiListenAddress specifies the listen address for the HTTP API. The
// API is disabled when empty
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithApiAllowedOrigins specifies the CORS origins accepted by the HTTP API
func WithApiAllowedOrigins(origins ...string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiAllowedOrigins = origins
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) OTLP collector at localhost:4318
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
