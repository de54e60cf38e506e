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
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// RegisterVoter gives an account holding an identity its initial points
// budget
func (e *Engine) RegisterVoter(ctx context.Context, account AccountID) error {
	if account == "" {
		e.recordOperation("RegisterVoter", ErrInvalidAccount)
		return ErrInvalidAccount
	}
	err := e.update(
		ctx,
		"RegisterVoter",
		func(txn StateTxn, events *pendingEvents) error {
			hasIdentity, err := e.hasIdentity(ctx, txn, account)
			if err != nil {
				return fmt.Errorf("check identity: %w", err)
			}
			if !hasIdentity {
				return ErrNoIdentity
			}
			_, found, err := txn.VoterPoints(account)
			if err != nil {
				return err
			}
			if found {
				return ErrVoterAlreadyRegistered
			}
			points := e.params.InitialPoints()
			if err := txn.SetVoterPoints(account, points); err != nil {
				return err
			}
			events.add(
				VoterRegisteredEventType,
				VoterRegisteredEvent{Voter: account, Points: points},
			)
			return nil
		},
		attribute.String("account", string(account)),
	)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.registeredVoters.Inc()
	}
	e.logger.Info(
		"registered voter",
		"account", account,
		"points", e.params.InitialPoints(),
	)
	return nil
}

// hasIdentity asks the identity gate about an account, within txn when the
// gate supports it
func (e *Engine) hasIdentity(
	ctx context.Context,
	txn StateTxn,
	account AccountID,
) (bool, error) {
	if gate, ok := e.identity.(TxnIdentityGate); ok {
		return gate.HasIdentityIn(ctx, txn, account)
	}
	return e.identity.HasIdentity(ctx, account)
}

// VoterPoints returns the remaining balance of a registered voter
func (e *Engine) VoterPoints(
	ctx context.Context,
	account AccountID,
) (uint32, error) {
	var points uint32
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		points, err = loadRegisteredPoints(txn, account)
		return err
	})
	return points, err
}

// IsVoter reports whether the account has been registered
func (e *Engine) IsVoter(ctx context.Context, account AccountID) (bool, error) {
	var found bool
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		_, found, err = txn.VoterPoints(account)
		return err
	})
	return found, err
}
