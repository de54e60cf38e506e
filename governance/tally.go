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
	"math"

	"go.opentelemetry.io/otel/attribute"
)

// SubmitVotes casts one vote on every slot of the active referendum. votes[i]
// applies to slot i
func (e *Engine) SubmitVotes(
	ctx context.Context,
	caller AccountID,
	votes []Vote,
) error {
	slotVotes := make([]SlotVote, len(votes))
	for i, vote := range votes {
		slotVotes[i] = SlotVote{
			Slot: uint32(i), // #nosec G115
			Vote: vote,
		}
	}
	return e.castVotes(ctx, "SubmitVotes", caller, slotVotes, true)
}

// SubmitVote casts a vote on a single slot of the active referendum
func (e *Engine) SubmitVote(
	ctx context.Context,
	caller AccountID,
	slot uint32,
	direction VoteDirection,
	amount uint32,
) error {
	slotVotes := []SlotVote{
		{
			Slot: slot,
			Vote: Vote{Amount: amount, Direction: direction},
		},
	}
	return e.castVotes(ctx, "SubmitVote", caller, slotVotes, false)
}

type pendingTally struct {
	slot uint32
	info ProposalInfo
}

// castVotes validates every vote against the current state before anything
// is written, so a rejected call leaves no partial update behind
func (e *Engine) castVotes(
	ctx context.Context,
	operation string,
	caller AccountID,
	votes []SlotVote,
	allSlots bool,
) error {
	var (
		index uint32
		cost  uint64
	)
	err := e.update(
		ctx,
		operation,
		func(txn StateTxn, events *pendingEvents) error {
			balance, err := loadRegisteredPoints(txn, caller)
			if err != nil {
				return err
			}
			active, _, err := txn.ActiveReferendum()
			if err != nil {
				return err
			}
			if !active {
				return ErrNoActiveReferendum
			}
			index, err = txn.ReferendumCount()
			if err != nil {
				return err
			}
			voted, err := txn.HasVoted(index, caller)
			if err != nil {
				return err
			}
			if voted {
				return ErrAlreadyVoted
			}
			if err := e.checkSlotCount(votes, allSlots); err != nil {
				return err
			}
			var total uint64
			for _, vote := range votes {
				if !vote.Direction.Valid() {
					return ErrInvalidVoteDirection
				}
				total += uint64(vote.Amount)
			}
			if total > math.MaxUint32 {
				return ErrOverflow
			}
			if uint64(balance) < total*total {
				return ErrNotEnoughPoints
			}
			// Phase 1: compute every new tally and the total cost
			updates := make([]pendingTally, 0, len(votes))
			cost = 0
			for _, vote := range votes {
				info, err := txn.ReferendumInfo(index, vote.Slot)
				if err != nil {
					return err
				}
				if info == nil {
					return &InconsistentStateError{
						Referendum: index,
						Slot:       vote.Slot,
						Reason:     "proposal slot missing in active referendum",
					}
				}
				if !info.IsOngoing() {
					return &InconsistentStateError{
						Referendum: index,
						Slot:       vote.Slot,
						Reason:     "proposal slot finished in active referendum",
					}
				}
				tally, err := addVote(info.Ongoing.Tally, vote.Vote)
				if err != nil {
					return err
				}
				updates = append(updates, pendingTally{
					slot: vote.Slot,
					info: ProposalInfo{
						Ongoing: &OngoingProposal{
							ProposalHash: info.Ongoing.ProposalHash,
							Tally:        tally,
						},
					},
				})
				cost += vote.Cost()
			}
			if cost > uint64(balance) {
				return ErrNotEnoughPoints
			}
			// Phase 2: apply
			for _, update := range updates {
				if err := txn.SetReferendumInfo(index, update.slot, update.info); err != nil {
					return err
				}
			}
			remaining := balance - uint32(cost) // #nosec G115
			if err := txn.SetVoterPoints(caller, remaining); err != nil {
				return err
			}
			if err := txn.SetVoted(index, caller); err != nil {
				return err
			}
			records := make([]VoteRecord, 0, len(votes))
			for _, vote := range votes {
				records = append(records, VoteRecord{
					Referendum: index,
					Slot:       vote.Slot,
					Voter:      caller,
					Vote:       vote.Vote,
					Cost:       vote.Cost(),
				})
			}
			if err := txn.AddVoteRecords(records); err != nil {
				return err
			}
			events.add(
				VoteSubmittedEventType,
				VoteSubmittedEvent{
					Referendum: index,
					Voter:      caller,
					Votes:      votes,
					Cost:       cost,
				},
			)
			return nil
		},
		attribute.String("caller", string(caller)),
		attribute.Int("votes", len(votes)),
	)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.pointsSpent.Add(float64(cost))
	}
	e.logger.Debug(
		"votes submitted",
		"referendum", index,
		"voter", caller,
		"cost", cost,
	)
	return nil
}

func (e *Engine) checkSlotCount(votes []SlotVote, allSlots bool) error {
	perReferendum := uint64(e.params.ProposalsPerReferendum)
	if allSlots {
		switch {
		case uint64(len(votes)) < perReferendum:
			return ErrMissingVotes
		case uint64(len(votes)) > perReferendum:
			return ErrTooManyVotes
		}
		return nil
	}
	for _, vote := range votes {
		if uint64(vote.Slot) >= perReferendum {
			return ErrInvalidProposalSlot
		}
	}
	return nil
}

// addVote returns the tally with the vote added, or ErrOverflow if the
// affected counter would wrap
func addVote(tally Tally, vote Vote) (Tally, error) {
	switch vote.Direction {
	case VoteAye:
		if tally.Aye > math.MaxUint32-vote.Amount {
			return tally, ErrOverflow
		}
		tally.Aye += vote.Amount
	case VoteNay:
		if tally.Nay > math.MaxUint32-vote.Amount {
			return tally, ErrOverflow
		}
		tally.Nay += vote.Amount
	default:
		return tally, ErrInvalidVoteDirection
	}
	return tally, nil
}
