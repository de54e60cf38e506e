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

// StateStore opens units of work against the governance state
type StateStore interface {
	// NewStateTxn begins a transaction. Writes made through a read-only
	// transaction fail
	NewStateTxn(readWrite bool) StateTxn
}

// StateTxn gives access to each governance entity within one atomic unit of
// work. Getters return the zero value with found=false or a nil pointer when
// the entity is absent
type StateTxn interface {
	Commit() error
	Rollback() error

	QueuedProposals() ([]Proposal, error)
	SetQueuedProposals(queue []Proposal) error

	ReferendumCount() (uint32, error)
	SetReferendumCount(count uint32) error

	// ActiveReferendum returns whether a referendum is open and the tick at
	// which it ends
	ActiveReferendum() (active bool, endsAt uint64, err error)
	SetActiveReferendum(endsAt uint64) error
	ClearActiveReferendum() error

	ReferendumInfo(referendum uint32, slot uint32) (*ProposalInfo, error)
	SetReferendumInfo(referendum uint32, slot uint32, info ProposalInfo) error
	// ReferendumInfos returns all slots of a referendum ordered by slot
	ReferendumInfos(referendum uint32) ([]SlotInfo, error)

	VoterPoints(account AccountID) (points uint32, found bool, err error)
	SetVoterPoints(account AccountID, points uint32) error

	HasVoted(referendum uint32, account AccountID) (bool, error)
	SetVoted(referendum uint32, account AccountID) error

	AddVoteRecords(records []VoteRecord) error
	VoteRecords(referendum uint32) ([]VoteRecord, error)
	SetProposalRecord(record ProposalRecord) error
	ProposalRecords(referendum uint32) ([]ProposalRecord, error)
	// ProposalRecordByHash returns the most recent record with the hash, or
	// nil if there is none
	ProposalRecordByHash(hash ProposalHash) (*ProposalRecord, error)

	LastTick() (tick uint64, found bool, err error)
	SetLastTick(tick uint64) error
}
