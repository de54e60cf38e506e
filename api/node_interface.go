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

package api

import (
	"context"

	"github.com/blinklabs-io/qvote/governance"
)

// GovernanceEngine is the part of the governance engine the API server
// exposes. It is satisfied by *governance.Engine
type GovernanceEngine interface {
	RegisterVoter(ctx context.Context, account governance.AccountID) error
	SubmitProposal(
		ctx context.Context,
		caller governance.AccountID,
		body []byte,
	) error
	SubmitVotes(
		ctx context.Context,
		caller governance.AccountID,
		votes []governance.Vote,
	) error
	SubmitVote(
		ctx context.Context,
		caller governance.AccountID,
		slot uint32,
		direction governance.VoteDirection,
		amount uint32,
	) error
	QueuedProposals(ctx context.Context) ([]governance.Proposal, error)
	Status(ctx context.Context) (governance.ReferendumStatus, error)
	Referendum(
		ctx context.Context,
		referendum uint32,
	) ([]governance.SlotInfo, error)
	ProposalRecords(
		ctx context.Context,
		referendum uint32,
	) ([]governance.ProposalRecord, error)
	VoterPoints(
		ctx context.Context,
		account governance.AccountID,
	) (uint32, error)
	HasVoted(
		ctx context.Context,
		referendum uint32,
		account governance.AccountID,
	) (bool, error)
}

// IdentityCreator registers identities. It is satisfied by *identity.Registry
type IdentityCreator interface {
	CreateIdentity(
		ctx context.Context,
		caller governance.AccountID,
		who governance.AccountID,
		name string,
	) (governance.IdentityMarker, error)
}
