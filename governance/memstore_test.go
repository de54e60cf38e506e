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

package governance_test

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/blinklabs-io/qvote/governance"
)

var errReadOnly = errors.New("read-only transaction")

type refSlot struct {
	referendum uint32
	slot       uint32
}

type refVoter struct {
	referendum uint32
	account    governance.AccountID
}

type memState struct {
	queue     []governance.Proposal
	count     uint32
	active    bool
	endsAt    uint64
	infos     map[refSlot]governance.ProposalInfo
	points    map[governance.AccountID]uint32
	voted     map[refVoter]bool
	votes     []governance.VoteRecord
	proposals map[refSlot]governance.ProposalRecord
	lastTick  *uint64
}

func (s *memState) clone() *memState {
	ret := *s
	ret.queue = slices.Clone(s.queue)
	ret.infos = maps.Clone(s.infos)
	ret.points = maps.Clone(s.points)
	ret.voted = maps.Clone(s.voted)
	ret.votes = slices.Clone(s.votes)
	ret.proposals = maps.Clone(s.proposals)
	return &ret
}

// memStore is a copy-on-write governance.StateStore used by the engine tests
type memStore struct {
	mu      sync.Mutex
	state   *memState
	commits int
	// failCommit makes the next commit fail
	failCommit bool
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			infos:     map[refSlot]governance.ProposalInfo{},
			points:    map[governance.AccountID]uint32{},
			voted:     map[refVoter]bool{},
			proposals: map[refSlot]governance.ProposalRecord{},
		},
	}
}

func (m *memStore) NewStateTxn(readWrite bool) governance.StateTxn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &memTxn{store: m, state: m.state.clone(), readWrite: readWrite}
}

func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

type memTxn struct {
	store     *memStore
	state     *memState
	readWrite bool
	done      bool
}

func (t *memTxn) Commit() error {
	if t.done {
		return errors.New("transaction finished")
	}
	t.done = true
	if !t.readWrite {
		return nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.failCommit {
		t.store.failCommit = false
		return errors.New("commit failed")
	}
	t.store.state = t.state
	t.store.commits++
	return nil
}

func (t *memTxn) Rollback() error {
	t.done = true
	return nil
}

func (t *memTxn) write() error {
	if !t.readWrite {
		return errReadOnly
	}
	return nil
}

func (t *memTxn) QueuedProposals() ([]governance.Proposal, error) {
	return slices.Clone(t.state.queue), nil
}

func (t *memTxn) SetQueuedProposals(queue []governance.Proposal) error {
	if err := t.write(); err != nil {
		return err
	}
	t.state.queue = slices.Clone(queue)
	return nil
}

func (t *memTxn) ReferendumCount() (uint32, error) {
	return t.state.count, nil
}

func (t *memTxn) SetReferendumCount(count uint32) error {
	if err := t.write(); err != nil {
		return err
	}
	t.state.count = count
	return nil
}

func (t *memTxn) ActiveReferendum() (bool, uint64, error) {
	return t.state.active, t.state.endsAt, nil
}

func (t *memTxn) SetActiveReferendum(endsAt uint64) error {
	if err := t.write(); err != nil {
		return err
	}
	t.state.active = true
	t.state.endsAt = endsAt
	return nil
}

func (t *memTxn) ClearActiveReferendum() error {
	if err := t.write(); err != nil {
		return err
	}
	t.state.active = false
	return nil
}

func (t *memTxn) ReferendumInfo(
	referendum uint32,
	slot uint32,
) (*governance.ProposalInfo, error) {
	info, ok := t.state.infos[refSlot{referendum, slot}]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

func (t *memTxn) SetReferendumInfo(
	referendum uint32,
	slot uint32,
	info governance.ProposalInfo,
) error {
	if err := t.write(); err != nil {
		return err
	}
	t.state.infos[refSlot{referendum, slot}] = info
	return nil
}

func (t *memTxn) ReferendumInfos(referendum uint32) ([]governance.SlotInfo, error) {
	var ret []governance.SlotInfo
	for key, info := range t.state.infos {
		if key.referendum == referendum {
			ret = append(ret, governance.SlotInfo{Slot: key.slot, Info: info})
		}
	}
	slices.SortFunc(ret, func(a, b governance.SlotInfo) int {
		return int(a.Slot) - int(b.Slot)
	})
	return ret, nil
}

func (t *memTxn) VoterPoints(account governance.AccountID) (uint32, bool, error) {
	points, ok := t.state.points[account]
	return points, ok, nil
}

func (t *memTxn) SetVoterPoints(account governance.AccountID, points uint32) error {
	if err := t.write(); err != nil {
		return err
	}
	t.state.points[account] = points
	return nil
}

func (t *memTxn) HasVoted(referendum uint32, account governance.AccountID) (bool, error) {
	return t.state.voted[refVoter{referendum, account}], nil
}

func (t *memTxn) SetVoted(referendum uint32, account governance.AccountID) error {
	if err := t.write(); err != nil {
		return err
	}
	t.state.voted[refVoter{referendum, account}] = true
	return nil
}

func (t *memTxn) AddVoteRecords(records []governance.VoteRecord) error {
	if err := t.write(); err != nil {
		return err
	}
	t.state.votes = append(t.state.votes, records...)
	return nil
}

func (t *memTxn) VoteRecords(referendum uint32) ([]governance.VoteRecord, error) {
	var ret []governance.VoteRecord
	for _, record := range t.state.votes {
		if record.Referendum == referendum {
			ret = append(ret, record)
		}
	}
	return ret, nil
}

func (t *memTxn) SetProposalRecord(record governance.ProposalRecord) error {
	if err := t.write(); err != nil {
		return err
	}
	t.state.proposals[refSlot{record.Referendum, record.Slot}] = record
	return nil
}

func (t *memTxn) ProposalRecords(referendum uint32) ([]governance.ProposalRecord, error) {
	var ret []governance.ProposalRecord
	for key, record := range t.state.proposals {
		if key.referendum == referendum {
			ret = append(ret, record)
		}
	}
	slices.SortFunc(ret, func(a, b governance.ProposalRecord) int {
		return int(a.Slot) - int(b.Slot)
	})
	return ret, nil
}

func (t *memTxn) ProposalRecordByHash(
	hash governance.ProposalHash,
) (*governance.ProposalRecord, error) {
	var ret *governance.ProposalRecord
	for _, record := range t.state.proposals {
		if record.ProposalHash != hash {
			continue
		}
		if ret == nil || record.Referendum > ret.Referendum {
			tmp := record
			ret = &tmp
		}
	}
	return ret, nil
}

func (t *memTxn) LastTick() (uint64, bool, error) {
	if t.state.lastTick == nil {
		return 0, false, nil
	}
	return *t.state.lastTick, true, nil
}

func (t *memTxn) SetLastTick(tick uint64) error {
	if err := t.write(); err != nil {
		return err
	}
	t.state.lastTick = &tick
	return nil
}

// memIdentity is an in-memory governance.IdentityGate
type memIdentity struct {
	mu         sync.Mutex
	identities map[governance.AccountID]governance.IdentityMarker
}

func newMemIdentity(accounts ...governance.AccountID) *memIdentity {
	ret := &memIdentity{
		identities: map[governance.AccountID]governance.IdentityMarker{},
	}
	for _, account := range accounts {
		ret.identities[account] = governance.NewIdentityMarker(string(account))
	}
	return ret
}

func (m *memIdentity) HasIdentity(_ context.Context, account governance.AccountID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.identities[account]
	return ok, nil
}

func (m *memIdentity) SetIdentity(
	_ context.Context,
	account governance.AccountID,
	marker governance.IdentityMarker,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[account] = marker
	return nil
}

func (m *memIdentity) GetIdentity(
	_ context.Context,
	account governance.AccountID,
) (governance.IdentityMarker, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker, ok := m.identities[account]
	return marker, ok, nil
}

func (m *memIdentity) ClearIdentity(_ context.Context, account governance.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.identities, account)
	return nil
}
