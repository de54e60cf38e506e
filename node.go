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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/qvote/api"
	"github.com/blinklabs-io/qvote/clock"
	"github.com/blinklabs-io/qvote/database"
	"github.com/blinklabs-io/qvote/event"
	"github.com/blinklabs-io/qvote/governance"
	"github.com/blinklabs-io/qvote/identity"
)

type Node struct {
	db            *database.Database
	eventBus      *event.EventBus
	engine        *governance.Engine
	registry      *identity.Registry
	tickClock     *clock.TickClock
	api           *api.Server
	shutdownFuncs []func(context.Context) error
	config        Config
	ctx           context.Context
	cancel        context.CancelFunc
	driverWg      sync.WaitGroup
	ready         chan struct{}
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	ctx, cancel := context.WithCancel(context.Background())
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		cancel()
		eventBus.Close()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Run starts all components and blocks until Stop is called
func (n *Node) Run() error {
	if err := n.start(); err != nil {
		n.cancel()
		if n.db != nil {
			_ = n.db.Close()
			n.db = nil
		}
		return err
	}
	close(n.ready)
	// Wait for shutdown signal
	<-n.done
	return nil
}

func (n *Node) start() error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	dbConfig := &database.Config{
		DataDir:        n.config.dataDir,
		InMemory:       n.config.inMemory,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
	}
	db, err := database.New(dbConfig)
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		n.config.logger.Warn(
			"database initialization error, needs recovery",
			"error",
			err,
		)
		if err := n.db.RecoverCommitTimestampConflict(); err != nil {
			return fmt.Errorf("failed to recover database: %w", err)
		}
	}
	// Identity registry
	var authorizer identity.Authorizer
	if len(n.config.registrars) > 0 {
		authorizer = identity.NewAuthorizer(n.config.registrars)
	}
	n.registry = identity.NewRegistry(identity.RegistryConfig{
		DB:         n.db,
		EventBus:   n.eventBus,
		Logger:     n.config.logger,
		Authorizer: authorizer,
	})
	// Governance engine
	engine, err := governance.NewEngine(governance.EngineConfig{
		Params:       n.config.params,
		Store:        database.NewGovernanceStore(n.db),
		Identity:     n.registry,
		EventBus:     n.eventBus,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
	})
	if err != nil {
		return fmt.Errorf("failed to create governance engine: %w", err)
	}
	n.engine = engine
	if err := n.engine.RegisterGenesisVoters(n.ctx, n.config.genesisVoters); err != nil {
		return fmt.Errorf("failed to register genesis voters: %w", err)
	}
	n.eventBus.SubscribeFunc(
		governance.ReferendumEndedEventType,
		n.handleReferendumEnded,
	)
	// Tick clock and driver
	n.tickClock = clock.NewTickClock(
		clock.LinearTicks{
			Genesis:    n.config.genesisTime,
			TickLength: n.config.tickLength,
		},
		clock.TickClockConfig{
			Logger:       n.config.logger,
			PromRegistry: n.config.promRegistry,
		},
	)
	current, err := n.tickClock.CurrentTick()
	switch {
	case err == nil:
		n.advance(current)
	case errors.Is(err, clock.ErrBeforeGenesis):
		n.config.logger.Info(
			"waiting for genesis",
			"component", "node",
			"genesis", n.config.genesisTime,
		)
	default:
		return fmt.Errorf("failed to get current tick: %w", err)
	}
	ticks := n.tickClock.Subscribe()
	n.driverWg.Add(1)
	go n.runTickDriver(ticks)
	n.tickClock.Start(n.ctx)
	// HTTP API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.ServerConfig{
				ListenAddress:  n.config.apiListenAddress,
				AllowedOrigins: n.config.apiAllowedOrigins,
			},
			n.engine,
			n.registry,
			n.config.logger,
		)
		if err := n.api.Start(n.ctx); err != nil {
			n.tickClock.Stop()
			n.driverWg.Wait()
			return fmt.Errorf("failed to start API server: %w", err)
		}
	}
	return nil
}

// runTickDriver feeds clock ticks to the engine until the clock closes the
// channel
func (n *Node) runTickDriver(ticks <-chan clock.Tick) {
	defer n.driverWg.Done()
	for tick := range ticks {
		n.advance(tick.Number)
	}
}

// advance runs every tick that is due up to and including tick
func (n *Node) advance(tick uint64) {
	ran, err := n.engine.AdvanceTo(n.ctx, tick)
	if err != nil {
		if n.ctx.Err() != nil {
			return
		}
		n.config.logger.Error(
			"failed to advance governance to tick",
			"component", "node",
			"tick", tick,
			"error", err,
		)
		return
	}
	if ran > 0 {
		n.config.logger.Debug(
			"processed ticks",
			"component", "node",
			"tick", tick,
			"count", ran,
		)
	}
}

func (n *Node) handleReferendumEnded(evt event.Event) {
	data, ok := evt.Data.(governance.ReferendumEndedEvent)
	if !ok {
		return
	}
	for _, outcome := range data.Outcomes {
		n.config.logger.Info(
			"proposal closed",
			"component", "node",
			"referendum", data.Referendum,
			"slot", outcome.Slot,
			"proposal", outcome.ProposalHash.String(),
			"aye", outcome.Tally.Aye,
			"nay", outcome.Tally.Nay,
			"approved", outcome.Approved,
		)
	}
}

// Ready is closed once all components have started
func (n *Node) Ready() <-chan struct{} {
	return n.ready
}

// Engine returns the governance engine. It is nil until the node is ready
func (n *Node) Engine() *governance.Engine {
	return n.engine
}

// Identities returns the identity registry. It is nil until the node is ready
func (n *Node) Identities() *identity.Registry {
	return n.registry
}

// EventBus returns the node event bus
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := DefaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	if n.tickClock != nil {
		n.tickClock.Stop()
	}
	n.cancel()
	n.driverWg.Wait()

	// Phase 2: Close database
	n.config.logger.Debug("shutdown phase 2: closing database")

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 3: Cleanup resources
	n.config.logger.Debug("shutdown phase 3: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.eventBus != nil {
		n.eventBus.Close()
	}

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
