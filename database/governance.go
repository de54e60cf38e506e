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
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/qvote/database/models"
	"github.com/blinklabs-io/qvote/database/types"
	"github.com/blinklabs-io/qvote/governance"
)

var ErrReadOnlyTxn = errors.New("write in read-only transaction")

var flagValue = []byte{1}

// GovernanceStore keeps the governance state in the blob store and the vote
// and proposal archive in the metadata store
type GovernanceStore struct {
	db *Database
}

func NewGovernanceStore(db *Database) *GovernanceStore {
	return &GovernanceStore{db: db}
}

// NewStateTxn implements governance.StateStore
func (s *GovernanceStore) NewStateTxn(readWrite bool) governance.StateTxn {
	return &governanceTxn{
		db:  s.db,
		txn: s.db.Transaction(readWrite),
	}
}

// StateTxnHandle returns the database transaction behind a state transaction
// created by a GovernanceStore
func StateTxnHandle(txn governance.StateTxn) (*Txn, bool) {
	gt, ok := txn.(*governanceTxn)
	if !ok {
		return nil, false
	}
	return gt.txn, true
}

type governanceTxn struct {
	db  *Database
	txn *Txn
}

func (t *governanceTxn) Commit() error {
	return t.txn.Commit()
}

func (t *governanceTxn) Rollback() error {
	return t.txn.Rollback()
}

func (t *governanceTxn) writable() error {
	if !t.txn.ReadWrite() {
		return ErrReadOnlyTxn
	}
	return nil
}

func (t *governanceTxn) get(key []byte) ([]byte, bool, error) {
	val, err := t.db.Blob().Get(t.txn.Blob(), key)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (t *governanceTxn) set(key []byte, val []byte) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.db.Blob().Set(t.txn.Blob(), key, val)
}

func (t *governanceTxn) delete(key []byte) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.db.Blob().Delete(t.txn.Blob(), key)
}

func (t *governanceTxn) getUint32(key []byte) (uint32, bool, error) {
	val, ok, err := t.get(key)
	if err != nil || !ok {
		return 0, false, err
	}
	if len(val) != 4 {
		return 0, false, fmt.Errorf("invalid value length %d for key %q", len(val), key)
	}
	return types.BytesToUint32(val), true, nil
}

func (t *governanceTxn) getUint64(key []byte) (uint64, bool, error) {
	val, ok, err := t.get(key)
	if err != nil || !ok {
		return 0, false, err
	}
	if len(val) != 8 {
		return 0, false, fmt.Errorf("invalid value length %d for key %q", len(val), key)
	}
	return types.BytesToUint64(val), true, nil
}

func (t *governanceTxn) QueuedProposals() ([]governance.Proposal, error) {
	val, ok, err := t.get([]byte(types.QueuedProposalsKey))
	if err != nil || !ok {
		return nil, err
	}
	var blobs []types.QueuedProposalBlob
	if _, err := cbor.Decode(val, &blobs); err != nil {
		return nil, fmt.Errorf("decode proposal queue: %w", err)
	}
	ret := make([]governance.Proposal, 0, len(blobs))
	for _, tmp := range blobs {
		ret = append(ret, governance.Proposal{
			Body:      tmp.Body,
			Submitter: governance.AccountID(tmp.Submitter),
		})
	}
	return ret, nil
}

func (t *governanceTxn) SetQueuedProposals(queue []governance.Proposal) error {
	blobs := make([]types.QueuedProposalBlob, 0, len(queue))
	for _, proposal := range queue {
		blobs = append(blobs, types.QueuedProposalBlob{
			Body:      proposal.Body,
			Submitter: string(proposal.Submitter),
		})
	}
	val, err := cbor.Encode(blobs)
	if err != nil {
		return fmt.Errorf("encode proposal queue: %w", err)
	}
	return t.set([]byte(types.QueuedProposalsKey), val)
}

func (t *governanceTxn) ReferendumCount() (uint32, error) {
	count, _, err := t.getUint32([]byte(types.ReferendumCountKey))
	return count, err
}

func (t *governanceTxn) SetReferendumCount(count uint32) error {
	return t.set([]byte(types.ReferendumCountKey), types.Uint32ToBytes(count))
}

func (t *governanceTxn) ActiveReferendum() (bool, uint64, error) {
	_, active, err := t.get([]byte(types.ActiveReferendumKey))
	if err != nil || !active {
		return false, 0, err
	}
	endsAt, ok, err := t.getUint64([]byte(types.ReferendumEndsAtKey))
	if err != nil {
		return false, 0, err
	}
	if !ok {
		return false, 0, errors.New("active referendum has no end tick")
	}
	return true, endsAt, nil
}

func (t *governanceTxn) SetActiveReferendum(endsAt uint64) error {
	if err := t.set([]byte(types.ReferendumEndsAtKey), types.Uint64ToBytes(endsAt)); err != nil {
		return err
	}
	return t.set([]byte(types.ActiveReferendumKey), flagValue)
}

func (t *governanceTxn) ClearActiveReferendum() error {
	return t.delete([]byte(types.ActiveReferendumKey))
}

func (t *governanceTxn) ReferendumInfo(
	referendum uint32,
	slot uint32,
) (*governance.ProposalInfo, error) {
	val, ok, err := t.get(types.ReferendumInfoKey(referendum, slot))
	if err != nil || !ok {
		return nil, err
	}
	info, err := decodeProposalInfo(val)
	if err != nil {
		return nil, fmt.Errorf("referendum %d slot %d: %w", referendum, slot, err)
	}
	return &info, nil
}

func (t *governanceTxn) SetReferendumInfo(
	referendum uint32,
	slot uint32,
	info governance.ProposalInfo,
) error {
	val, err := encodeProposalInfo(info)
	if err != nil {
		return err
	}
	return t.set(types.ReferendumInfoKey(referendum, slot), val)
}

func (t *governanceTxn) ReferendumInfos(
	referendum uint32,
) ([]governance.SlotInfo, error) {
	prefix := types.ReferendumInfoPrefix(referendum)
	it := t.db.Blob().NewIterator(
		t.txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer it.Close()
	var ret []governance.SlotInfo
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		slot, ok := types.ReferendumInfoKeySlot(item.Key())
		if !ok {
			continue
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		info, err := decodeProposalInfo(val)
		if err != nil {
			return nil, fmt.Errorf("referendum %d slot %d: %w", referendum, slot, err)
		}
		ret = append(ret, governance.SlotInfo{Slot: slot, Info: info})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (t *governanceTxn) VoterPoints(
	account governance.AccountID,
) (uint32, bool, error) {
	return t.getUint32(types.VoterPointsKey(string(account)))
}

func (t *governanceTxn) SetVoterPoints(
	account governance.AccountID,
	points uint32,
) error {
	return t.set(
		types.VoterPointsKey(string(account)),
		types.Uint32ToBytes(points),
	)
}

func (t *governanceTxn) HasVoted(
	referendum uint32,
	account governance.AccountID,
) (bool, error) {
	_, ok, err := t.get(types.VotedKey(referendum, string(account)))
	return ok, err
}

func (t *governanceTxn) SetVoted(
	referendum uint32,
	account governance.AccountID,
) error {
	return t.set(types.VotedKey(referendum, string(account)), flagValue)
}

func (t *governanceTxn) LastTick() (uint64, bool, error) {
	return t.getUint64([]byte(types.LastTickKey))
}

func (t *governanceTxn) SetLastTick(tick uint64) error {
	return t.set([]byte(types.LastTickKey), types.Uint64ToBytes(tick))
}

func (t *governanceTxn) AddVoteRecords(records []governance.VoteRecord) error {
	if err := t.writable(); err != nil {
		return err
	}
	tmpRecords := make([]models.VoteRecord, 0, len(records))
	for _, record := range records {
		tmpRecords = append(tmpRecords, models.VoteRecord{
			Referendum: record.Referendum,
			Slot:       record.Slot,
			Voter:      string(record.Voter),
			Direction:  uint8(record.Direction),
			Amount:     record.Amount,
			Cost:       record.Cost,
		})
	}
	return t.db.Metadata().AddVoteRecords(tmpRecords, t.txn.Metadata())
}

func (t *governanceTxn) VoteRecords(
	referendum uint32,
) ([]governance.VoteRecord, error) {
	tmpRecords, err := t.db.Metadata().GetVoteRecords(referendum, t.txn.Metadata())
	if err != nil {
		return nil, err
	}
	ret := make([]governance.VoteRecord, 0, len(tmpRecords))
	for _, tmp := range tmpRecords {
		ret = append(ret, governance.VoteRecord{
			Referendum: tmp.Referendum,
			Slot:       tmp.Slot,
			Voter:      governance.AccountID(tmp.Voter),
			Vote: governance.Vote{
				Amount:    tmp.Amount,
				Direction: governance.VoteDirection(tmp.Direction),
			},
			Cost: tmp.Cost,
		})
	}
	return ret, nil
}

func (t *governanceTxn) SetProposalRecord(record governance.ProposalRecord) error {
	if err := t.writable(); err != nil {
		return err
	}
	hash := record.ProposalHash
	tmpRecord := &models.ProposalRecord{
		Referendum:   record.Referendum,
		Slot:         record.Slot,
		ProposalHash: hash[:],
		Body:         record.Body,
		Submitter:    string(record.Submitter),
		AyeVotes:     record.Tally.Aye,
		NayVotes:     record.Tally.Nay,
		Finished:     record.Finished,
		Approved:     record.Approved,
		StartedAt:    record.StartedAt,
		ClosedAt:     record.ClosedAt,
	}
	return t.db.Metadata().SetProposalRecord(tmpRecord, t.txn.Metadata())
}

func (t *governanceTxn) ProposalRecords(
	referendum uint32,
) ([]governance.ProposalRecord, error) {
	tmpRecords, err := t.db.Metadata().GetProposalRecords(referendum, t.txn.Metadata())
	if err != nil {
		return nil, err
	}
	ret := make([]governance.ProposalRecord, 0, len(tmpRecords))
	for _, tmp := range tmpRecords {
		ret = append(ret, proposalRecordFromModel(tmp))
	}
	return ret, nil
}

func (t *governanceTxn) ProposalRecordByHash(
	hash governance.ProposalHash,
) (*governance.ProposalRecord, error) {
	tmpRecord, err := t.db.Metadata().GetProposalRecordByHash(hash[:], t.txn.Metadata())
	if err != nil {
		if errors.Is(err, models.ErrProposalRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	ret := proposalRecordFromModel(*tmpRecord)
	return &ret, nil
}

func proposalRecordFromModel(tmp models.ProposalRecord) governance.ProposalRecord {
	return governance.ProposalRecord{
		Referendum:   tmp.Referendum,
		Slot:         tmp.Slot,
		ProposalHash: lcommon.NewBlake2b256(tmp.ProposalHash),
		Body:         tmp.Body,
		Submitter:    governance.AccountID(tmp.Submitter),
		Tally: governance.Tally{
			Aye: tmp.AyeVotes,
			Nay: tmp.NayVotes,
		},
		Finished:  tmp.Finished,
		Approved:  tmp.Approved,
		StartedAt: tmp.StartedAt,
		ClosedAt:  tmp.ClosedAt,
	}
}

func encodeProposalInfo(info governance.ProposalInfo) ([]byte, error) {
	var tmp types.ProposalInfoBlob
	switch {
	case info.Ongoing != nil && info.Finished == nil:
		hash := info.Ongoing.ProposalHash
		tmp = types.ProposalInfoBlob{
			Status:       types.ProposalInfoStatusOngoing,
			ProposalHash: hash[:],
			AyeVotes:     info.Ongoing.Tally.Aye,
			NayVotes:     info.Ongoing.Tally.Nay,
		}
	case info.Finished != nil && info.Ongoing == nil:
		tmp = types.ProposalInfoBlob{
			Status:   types.ProposalInfoStatusFinished,
			Approved: info.Finished.Approved,
			End:      info.Finished.End,
		}
	default:
		return nil, errors.New("proposal info must be either ongoing or finished")
	}
	return cbor.Encode(&tmp)
}

func decodeProposalInfo(data []byte) (governance.ProposalInfo, error) {
	var tmp types.ProposalInfoBlob
	if _, err := cbor.Decode(data, &tmp); err != nil {
		return governance.ProposalInfo{}, fmt.Errorf("decode proposal info: %w", err)
	}
	switch tmp.Status {
	case types.ProposalInfoStatusOngoing:
		return governance.ProposalInfo{
			Ongoing: &governance.OngoingProposal{
				ProposalHash: lcommon.NewBlake2b256(tmp.ProposalHash),
				Tally: governance.Tally{
					Aye: tmp.AyeVotes,
					Nay: tmp.NayVotes,
				},
			},
		}, nil
	case types.ProposalInfoStatusFinished:
		return governance.ProposalInfo{
			Finished: &governance.FinishedProposal{
				Approved: tmp.Approved,
				End:      tmp.End,
			},
		}, nil
	default:
		return governance.ProposalInfo{}, fmt.Errorf("unknown proposal info status %d", tmp.Status)
	}
}
