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

package metadata

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/blinklabs-io/qvote/database/models"
	"github.com/blinklabs-io/qvote/database/plugin"
	"github.com/blinklabs-io/qvote/database/types"
)

type MetadataStore interface {
	plugin.Plugin

	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Identities
	GetIdentity(string, types.Txn) (*models.Identity, error)
	GetIdentities(types.Txn) ([]models.Identity, error)
	SetIdentity(*models.Identity, types.Txn) error
	DeleteIdentity(string, types.Txn) error

	// Governance archive
	AddVoteRecords([]models.VoteRecord, types.Txn) error
	GetVoteRecords(uint32, types.Txn) ([]models.VoteRecord, error)
	SetProposalRecord(*models.ProposalRecord, types.Txn) error
	GetProposalRecords(uint32, types.Txn) ([]models.ProposalRecord, error)
	GetProposalRecordByHash([]byte, types.Txn) (*models.ProposalRecord, error)
}

// New returns the started metadata plugin selected by name
func New(
	pluginName string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	p, err := plugin.StartPlugin(
		plugin.PluginTypeMetadata,
		pluginName,
		logger,
		promRegistry,
	)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
