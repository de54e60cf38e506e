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

// GetIdentity returns the identity for an account, or
// models.ErrIdentityNotFound
func (s *Store) GetIdentity(
	account string,
	txn types.Txn,
) (*models.Identity, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Identity
	result := db.Where("account = ?", account).First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrIdentityNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// SetIdentity creates or replaces the identity for an account
func (s *Store) SetIdentity(
	identity *models.Identity,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{"name", "marker", "registrar", "updated_at"},
		),
	}).Create(identity)
	return result.Error
}

// DeleteIdentity removes the identity for an account. Removing an absent
// identity is not an error
func (s *Store) DeleteIdentity(account string, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Where("account = ?", account).Delete(&models.Identity{}).Error
}

// GetIdentities returns all identities ordered by account
func (s *Store) GetIdentities(txn types.Txn) ([]models.Identity, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Identity
	if result := db.Order("account").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
