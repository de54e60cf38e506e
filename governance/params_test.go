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
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/qvote/governance"
)

func TestParamsValidate(t *testing.T) {
	require.NoError(t, governance.DefaultParams().Validate())
	testDefs := []struct {
		name   string
		modify func(*governance.Params)
	}{
		{"zero proposal length", func(p *governance.Params) { p.MaxProposalLength = 0 }},
		{"zero proposals per referendum", func(p *governance.Params) { p.ProposalsPerReferendum = 0 }},
		{"queue smaller than referendum", func(p *governance.Params) {
			p.ProposalQueueSize = 1
			p.ProposalsPerReferendum = 2
		}},
		{"zero launch period", func(p *governance.Params) { p.LaunchPeriod = 0 }},
		{"zero voting period", func(p *governance.Params) { p.VotingPeriod = 0 }},
		{"zero max votes", func(p *governance.Params) { p.MaxVotes = 0 }},
		{"max votes squared overflows", func(p *governance.Params) { p.MaxVotes = 65536 }},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			params := governance.DefaultParams()
			testDef.modify(&params)
			require.ErrorIs(t, params.Validate(), governance.ErrInvalidParams)
		})
	}
}

func TestParamsInitialPoints(t *testing.T) {
	params := governance.DefaultParams()
	assert.Equal(t, uint32(100), params.InitialPoints())
	params.MaxVotes = 65535
	require.NoError(t, params.Validate())
	assert.Equal(t, uint32(4294836225), params.InitialPoints())
}

func TestParamsLaunchOverlapsVoting(t *testing.T) {
	params := governance.DefaultParams()
	assert.False(t, params.LaunchOverlapsVoting())
	params.VotingPeriod = params.LaunchPeriod
	assert.True(t, params.LaunchOverlapsVoting())
}

func TestErrorKind(t *testing.T) {
	testDefs := []struct {
		err  error
		kind governance.ErrorKind
	}{
		{nil, governance.KindNone},
		{governance.ErrProposalTooLong, governance.KindValidation},
		{fmt.Errorf("wrapped: %w", governance.ErrMissingVotes), governance.KindValidation},
		{governance.ErrNotAVoter, governance.KindAuthorization},
		{governance.ErrAlreadyVoted, governance.KindAuthorization},
		{governance.ErrNotEnoughPoints, governance.KindArithmetic},
		{governance.ErrOverflow, governance.KindArithmetic},
		{governance.ErrNoActiveReferendum, governance.KindState},
		{governance.ErrNotEnoughProposalsInQueue, governance.KindState},
		{&governance.InconsistentStateError{Reason: "missing"}, governance.KindInternal},
		{errors.New("disk on fire"), governance.KindInternal},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.kind, governance.Kind(testDef.err), "%v", testDef.err)
	}
}

func TestVoteDirectionText(t *testing.T) {
	var vote governance.Vote
	require.NoError(t, json.Unmarshal([]byte(`{"amount":3,"direction":"NAY"}`), &vote))
	assert.Equal(t, governance.VoteNay, vote.Direction)
	assert.Equal(t, uint64(9), vote.Cost())

	out, err := json.Marshal(governance.Vote{Amount: 2, Direction: governance.VoteAye})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":2,"direction":"aye"}`, string(out))

	err = json.Unmarshal([]byte(`{"amount":1,"direction":"abstain"}`), &vote)
	require.ErrorIs(t, err, governance.ErrInvalidVoteDirection)
}

func TestTallyApproved(t *testing.T) {
	assert.True(t, governance.Tally{Aye: 2, Nay: 1}.Approved())
	assert.False(t, governance.Tally{Aye: 2, Nay: 2}.Approved())
	assert.False(t, governance.Tally{}.Approved())
}
