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
	"fmt"
	"strings"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

// AccountID identifies a participant
type AccountID string

// ProposalHash is the Blake2b-256 hash of a proposal body
type ProposalHash = lcommon.Blake2b256

// HashProposal returns the content hash of a proposal body
func HashProposal(body []byte) ProposalHash {
	return lcommon.Blake2b256Hash(body)
}

// Proposal is a proposal body together with the account that submitted it
type Proposal struct {
	Body      []byte
	Submitter AccountID
}

// Tally holds the accumulated vote weight on a proposal
type Tally struct {
	Aye uint32
	Nay uint32
}

// Approved reports whether the tally approves the proposal. Ties are rejected
func (t Tally) Approved() bool {
	return t.Aye > t.Nay
}

type OngoingProposal struct {
	ProposalHash ProposalHash
	Tally        Tally
}

type FinishedProposal struct {
	Approved bool
	End      uint64
}

// ProposalInfo is the outcome state of a referendum slot. Exactly one of
// Ongoing and Finished is set
type ProposalInfo struct {
	Ongoing  *OngoingProposal
	Finished *FinishedProposal
}

func (p ProposalInfo) IsOngoing() bool {
	return p.Ongoing != nil
}

// SlotInfo is the outcome state of one slot in a referendum
type SlotInfo struct {
	Slot uint32
	Info ProposalInfo
}

type VoteDirection uint8

const (
	VoteAye VoteDirection = 1
	VoteNay VoteDirection = 2
)

func (d VoteDirection) Valid() bool {
	return d == VoteAye || d == VoteNay
}

func (d VoteDirection) String() string {
	switch d {
	case VoteAye:
		return "aye"
	case VoteNay:
		return "nay"
	default:
		return fmt.Sprintf("VoteDirection(%d)", uint8(d))
	}
}

func (d VoteDirection) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, ErrInvalidVoteDirection
	}
	return []byte(d.String()), nil
}

func (d *VoteDirection) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "aye":
		*d = VoteAye
	case "nay":
		*d = VoteNay
	default:
		return fmt.Errorf("%w: %q", ErrInvalidVoteDirection, string(text))
	}
	return nil
}

// Vote is the weight a voter puts on one proposal
type Vote struct {
	Amount    uint32        `json:"amount"`
	Direction VoteDirection `json:"direction"`
}

// Cost returns the points cost of the vote
func (v Vote) Cost() uint64 {
	return uint64(v.Amount) * uint64(v.Amount)
}

// SlotVote is a vote applied to a particular referendum slot
type SlotVote struct {
	Slot uint32
	Vote
}

// VoteRecord is the audit entry of a single slot vote
type VoteRecord struct {
	Referendum uint32
	Slot       uint32
	Voter      AccountID
	Vote
	Cost uint64
}

// ProposalRecord is the archived form of a proposal put to a referendum
type ProposalRecord struct {
	Referendum   uint32
	Slot         uint32
	ProposalHash ProposalHash
	Body         []byte
	Submitter    AccountID
	Tally        Tally
	Finished     bool
	Approved     bool
	StartedAt    uint64
	ClosedAt     *uint64
}

// ReferendumStatus describes the currently active referendum, if any
type ReferendumStatus struct {
	Active bool
	Index  uint32
	EndsAt uint64
	Slots  []SlotInfo
}
