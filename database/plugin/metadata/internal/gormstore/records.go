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

package gormstore

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blinklabs-io/qvote/database/models"
	"github.com/blinklabs-io/qvote/database/types"
)

// AddVoteRecords inserts vote audit rows
func (s *Store) AddVoteRecords(
	records []models.VoteRecord,
	txn types.Txn,
) error {
	if len(records) == 0 {
		return nil
	}
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(&records).Error
}

// GetVoteRecords returns the vote audit rows for a referendum in insertion
// order
func (s *Store) GetVoteRecords(
	referendum uint32,
	txn types.Txn,
) ([]models.VoteRecord, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.VoteRecord
	result := db.Where("referendum = ?", referendum).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetProposalRecord creates or updates the archive row for a referendum slot
func (s *Store) SetProposalRecord(
	record *models.ProposalRecord,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "referendum"}, {Name: "slot"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{
				"aye_votes",
				"nay_votes",
				"finished",
				"approved",
				"closed_at",
			},
		),
	}).Create(record)
	return result.Error
}

// GetProposalRecords returns the archive rows for a referendum ordered by slot
func (s *Store) GetProposalRecords(
	referendum uint32,
	txn types.Txn,
) ([]models.ProposalRecord, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.ProposalRecord
	result := db.Where("referendum = ?", referendum).
		Order("slot").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// GetProposalRecordByHash returns the most recent archive row with the given
// content hash
func (s *Store) GetProposalRecordByHash(
	hash []byte,
	txn types.Txn,
) (*models.ProposalRecord, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.ProposalRecord
	result := db.Where("proposal_hash = ?", hash).
		Order("referendum DESC").
		First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrProposalRecordNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}
