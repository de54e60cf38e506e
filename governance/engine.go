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

package governance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/qvote/event"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/qvote/governance"

type EngineConfig struct {
	Params       Params
	Store        StateStore
	Identity     IdentityGate
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

// Engine runs the referendum life cycle and the quadratic vote accounting.
// Every operation is a single unit of work against the state store and
// operations never interleave
type Engine struct {
	mu       sync.Mutex
	params   Params
	store    StateStore
	identity IdentityGate
	eventBus *event.EventBus
	logger   *slog.Logger
	metrics  *engineMetrics
	tracer   trace.Tracer
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.Store == nil {
		return nil, errors.New("governance: state store is required")
	}
	if cfg.Identity == nil {
		return nil, errors.New("governance: identity gate is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e := &Engine{
		params:   cfg.Params,
		store:    cfg.Store,
		identity: cfg.Identity,
		eventBus: cfg.EventBus,
		logger:   cfg.Logger.With("component", "governance"),
		tracer:   otel.Tracer(tracerName),
	}
	if cfg.PromRegistry != nil {
		e.initMetrics(cfg.PromRegistry)
	}
	if e.params.LaunchOverlapsVoting() {
		e.logger.Warn(
			"launch period does not exceed voting period, referenda due while another is active will be skipped",
			"launch_period", e.params.LaunchPeriod,
			"voting_period", e.params.VotingPeriod,
		)
	}
	return e, nil
}

func (e *Engine) Params() Params {
	return e.params
}

// update runs fn in a read-write transaction. The transaction commits only if
// fn succeeds, and events queued by fn are published after the commit
func (e *Engine) update(
	ctx context.Context,
	operation string,
	fn func(txn StateTxn, events *pendingEvents) error,
	attrs ...attribute.KeyValue,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, span := e.tracer.Start(
		ctx,
		"governance."+operation,
		trace.WithAttributes(attrs...),
	)
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()
	var events pendingEvents
	err := e.runTxn(true, func(txn StateTxn) error {
		return fn(txn, &events)
	})
	e.recordOperation(operation, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Kind(err).String())
		return err
	}
	e.publish(events)
	return nil
}

// view runs fn in a read-only transaction
func (e *Engine) view(
	ctx context.Context,
	fn func(txn StateTxn) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runTxn(false, fn)
}

func (e *Engine) runTxn(readWrite bool, fn func(StateTxn) error) error {
	txn := e.store.NewStateTxn(readWrite)
	if txn == nil {
		return errors.New("governance: state store returned no transaction")
	}
	if err := fn(txn); err != nil {
		if rbErr := txn.Rollback(); rbErr != nil {
			e.logger.Error(
				"failed to roll back transaction",
				"error", rbErr,
			)
		}
		return err
	}
	if !readWrite {
		return txn.Rollback()
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit governance state: %w", err)
	}
	return nil
}

// loadRegisteredPoints returns the balance of a registered voter or
// ErrNotAVoter
func loadRegisteredPoints(txn StateTxn, account AccountID) (uint32, error) {
	points, found, err := txn.VoterPoints(account)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNotAVoter
	}
	return points, nil
}
