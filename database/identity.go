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

package database

import (
	"github.com/blinklabs-io/qvote/database/models"
	"github.com/blinklabs-io/qvote/database/types"
)

func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

// GetIdentity returns the identity registered for an account, or
// models.ErrIdentityNotFound
func (d *Database) GetIdentity(
	account string,
	txn *Txn,
) (*models.Identity, error) {
	return d.metadata.GetIdentity(account, metadataTxn(txn))
}

func (d *Database) GetIdentities(txn *Txn) ([]models.Identity, error) {
	return d.metadata.GetIdentities(metadataTxn(txn))
}

func (d *Database) SetIdentity(identity *models.Identity, txn *Txn) error {
	return d.metadata.SetIdentity(identity, metadataTxn(txn))
}

func (d *Database) DeleteIdentity(account string, txn *Txn) error {
	return d.metadata.DeleteIdentity(account, metadataTxn(txn))
}
