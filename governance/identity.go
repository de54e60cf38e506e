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

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

// IdentityMarker is the opaque value stored for a registered identity
type IdentityMarker = lcommon.Blake2b256

// NewIdentityMarker derives an identity marker from a display name
func NewIdentityMarker(name string) IdentityMarker {
	return lcommon.Blake2b256Hash([]byte(name))
}

// IdentityGate answers whether a participant holds a registered identity.
// Voter registration requires one
type IdentityGate interface {
	HasIdentity(ctx context.Context, account AccountID) (bool, error)
	SetIdentity(ctx context.Context, account AccountID, marker IdentityMarker) error
	GetIdentity(ctx context.Context, account AccountID) (IdentityMarker, bool, error)
	ClearIdentity(ctx context.Context, account AccountID) error
}

// TxnIdentityGate is an IdentityGate whose lookup can run inside a state
// transaction, so that voter registration reads the identity and writes the
// balance in one unit of work
type TxnIdentityGate interface {
	IdentityGate
	HasIdentityIn(ctx context.Context, txn StateTxn, account AccountID) (bool, error)
}
