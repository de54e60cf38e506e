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

import "context"

// ReferendumCount returns the number of closed referenda, which is also the
// index of the active or next referendum
func (e *Engine) ReferendumCount(ctx context.Context) (uint32, error) {
	var count uint32
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		count, err = txn.ReferendumCount()
		return err
	})
	return count, err
}

// ActiveReferendum reports whether a referendum is open and the tick at which
// it ends
func (e *Engine) ActiveReferendum(ctx context.Context) (bool, uint64, error) {
	var (
		active bool
		endsAt uint64
	)
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		active, endsAt, err = txn.ActiveReferendum()
		return err
	})
	return active, endsAt, err
}

func (e *Engine) ReferendumInfo(
	ctx context.Context,
	referendum uint32,
	slot uint32,
) (ProposalInfo, error) {
	var info *ProposalInfo
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		info, err = txn.ReferendumInfo(referendum, slot)
		return err
	})
	if err != nil {
		return ProposalInfo{}, err
	}
	if info == nil {
		return ProposalInfo{}, ErrProposalNotFound
	}
	return *info, nil
}

// Referendum returns every slot of a referendum in slot order
func (e *Engine) Referendum(
	ctx context.Context,
	referendum uint32,
) ([]SlotInfo, error) {
	var slots []SlotInfo
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		slots, err = txn.ReferendumInfos(referendum)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, ErrReferendumNotFound
	}
	return slots, nil
}

// Status describes the active referendum. Index is the next referendum index
// when none is active
func (e *Engine) Status(ctx context.Context) (ReferendumStatus, error) {
	var status ReferendumStatus
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		status.Active, status.EndsAt, err = txn.ActiveReferendum()
		if err != nil {
			return err
		}
		status.Index, err = txn.ReferendumCount()
		if err != nil {
			return err
		}
		if !status.Active {
			status.EndsAt = 0
			return nil
		}
		status.Slots, err = txn.ReferendumInfos(status.Index)
		return err
	})
	return status, err
}

func (e *Engine) HasVoted(
	ctx context.Context,
	referendum uint32,
	account AccountID,
) (bool, error) {
	var voted bool
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		voted, err = txn.HasVoted(referendum, account)
		return err
	})
	return voted, err
}

func (e *Engine) ProposalRecords(
	ctx context.Context,
	referendum uint32,
) ([]ProposalRecord, error) {
	var records []ProposalRecord
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		records, err = txn.ProposalRecords(referendum)
		return err
	})
	return records, err
}

// ProposalByHash returns the most recent archived proposal with the hash
func (e *Engine) ProposalByHash(
	ctx context.Context,
	hash ProposalHash,
) (ProposalRecord, error) {
	var record *ProposalRecord
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		record, err = txn.ProposalRecordByHash(hash)
		return err
	})
	if err != nil {
		return ProposalRecord{}, err
	}
	if record == nil {
		return ProposalRecord{}, ErrProposalNotFound
	}
	return *record, nil
}

func (e *Engine) VoteRecords(
	ctx context.Context,
	referendum uint32,
) ([]VoteRecord, error) {
	var records []VoteRecord
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		records, err = txn.VoteRecords(referendum)
		return err
	})
	return records, err
}
