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

package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/qvote/database"
	"github.com/blinklabs-io/qvote/database/models"
	"github.com/blinklabs-io/qvote/event"
	"github.com/blinklabs-io/qvote/governance"
)

var ErrNotAuthorized = errors.New("caller is not authorized to create identities")

const IdentityCreatedEventType event.EventType = "identity.created"

type IdentityCreatedEvent struct {
	Registrar governance.AccountID
	Account   governance.AccountID
	Marker    governance.IdentityMarker
}

type RegistryConfig struct {
	DB       *database.Database
	EventBus *event.EventBus
	Logger   *slog.Logger
	// Authorizer decides who may call CreateIdentity. Everyone may when nil
	Authorizer Authorizer
}

// Registry stores one identity marker per account in the metadata store and
// implements governance.IdentityGate
type Registry struct {
	db         *database.Database
	eventBus   *event.EventBus
	logger     *slog.Logger
	authorizer Authorizer
}

var _ governance.IdentityGate = (*Registry)(nil)

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Authorizer == nil {
		cfg.Authorizer = AllowAll{}
	}
	return &Registry{
		db:         cfg.DB,
		eventBus:   cfg.EventBus,
		logger:     cfg.Logger.With("component", "identity"),
		authorizer: cfg.Authorizer,
	}
}

// CreateIdentity registers an identity for who on behalf of caller. The
// marker is derived from name
func (r *Registry) CreateIdentity(
	ctx context.Context,
	caller governance.AccountID,
	who governance.AccountID,
	name string,
) (governance.IdentityMarker, error) {
	if who == "" {
		return governance.IdentityMarker{}, governance.ErrInvalidAccount
	}
	if !r.authorizer.CheckCaller(caller) {
		return governance.IdentityMarker{}, ErrNotAuthorized
	}
	marker := governance.NewIdentityMarker(name)
	if err := r.setIdentity(ctx, who, marker, name, caller); err != nil {
		return governance.IdentityMarker{}, err
	}
	r.logger.Info(
		"identity created",
		"registrar", caller,
		"account", who,
	)
	if r.eventBus != nil {
		r.eventBus.Publish(
			IdentityCreatedEventType,
			event.NewEvent(
				IdentityCreatedEventType,
				IdentityCreatedEvent{
					Registrar: caller,
					Account:   who,
					Marker:    marker,
				},
			),
		)
	}
	return marker, nil
}

func (r *Registry) HasIdentity(
	ctx context.Context,
	account governance.AccountID,
) (bool, error) {
	_, ok, err := r.GetIdentity(ctx, account)
	return ok, err
}

// HasIdentityIn looks the account up within a state transaction of the same
// database. Other transactions fall back to HasIdentity
func (r *Registry) HasIdentityIn(
	ctx context.Context,
	txn governance.StateTxn,
	account governance.AccountID,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	dbTxn, ok := database.StateTxnHandle(txn)
	if !ok || dbTxn.DB() != r.db {
		return r.HasIdentity(ctx, account)
	}
	_, err := r.db.GetIdentity(string(account), dbTxn)
	if err != nil {
		if errors.Is(err, models.ErrIdentityNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get identity: %w", err)
	}
	return true, nil
}

func (r *Registry) GetIdentity(
	ctx context.Context,
	account governance.AccountID,
) (governance.IdentityMarker, bool, error) {
	if err := ctx.Err(); err != nil {
		return governance.IdentityMarker{}, false, err
	}
	ident, err := r.db.GetIdentity(string(account), nil)
	if err != nil {
		if errors.Is(err, models.ErrIdentityNotFound) {
			return governance.IdentityMarker{}, false, nil
		}
		return governance.IdentityMarker{}, false, fmt.Errorf("get identity: %w", err)
	}
	return lcommon.NewBlake2b256(ident.Marker), true, nil
}

func (r *Registry) SetIdentity(
	ctx context.Context,
	account governance.AccountID,
	marker governance.IdentityMarker,
) error {
	return r.setIdentity(ctx, account, marker, "", "")
}

func (r *Registry) ClearIdentity(
	ctx context.Context,
	account governance.AccountID,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return database.NewMetadataOnlyTxn(r.db, true).Do(func(txn *database.Txn) error {
		return r.db.DeleteIdentity(string(account), txn)
	})
}

// Identities returns every registered identity
func (r *Registry) Identities(ctx context.Context) ([]models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.db.GetIdentities(nil)
}

func (r *Registry) setIdentity(
	ctx context.Context,
	account governance.AccountID,
	marker governance.IdentityMarker,
	name string,
	registrar governance.AccountID,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if account == "" {
		return governance.ErrInvalidAccount
	}
	return database.NewMetadataOnlyTxn(r.db, true).Do(func(txn *database.Txn) error {
		return r.db.SetIdentity(
			&models.Identity{
				Account:   string(account),
				Name:      name,
				Marker:    marker[:],
				Registrar: string(registrar),
			},
			txn,
		)
	})
}
