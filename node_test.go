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

package qvote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/qvote/governance"
)

func startTestNode(t *testing.T, opts ...ConfigOptionFunc) *Node {
	t.Helper()
	n, err := New(NewConfig(append([]ConfigOptionFunc{WithInMemory(true)}, opts...)...))
	require.NoError(t, err)
	runErr := make(chan error, 1)
	go func() {
		runErr <- n.Run()
	}()
	select {
	case <-n.Ready():
	case err := <-runErr:
		t.Fatalf("node failed to start: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for node to start")
	}
	t.Cleanup(func() {
		require.NoError(t, n.Stop())
		require.NoError(t, <-runErr)
	})
	return n
}

func TestNodeRegistersGenesisVoters(t *testing.T) {
	n := startTestNode(
		t,
		// Genesis in the future keeps the clock idle
		WithGenesisTime(time.Now().Add(time.Hour)),
		WithGenesisVoters(
			governance.GenesisVoter{Account: "alice", Name: "Alice"},
			governance.GenesisVoter{Account: "bob"},
		),
	)
	ctx := context.Background()
	for _, account := range []governance.AccountID{"alice", "bob"} {
		points, err := n.Engine().VoterPoints(ctx, account)
		require.NoError(t, err)
		assert.Equal(t, n.Engine().Params().InitialPoints(), points)
	}
	marker, ok, err := n.Identities().GetIdentity(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, governance.NewIdentityMarker("Alice"), marker)
}

func TestNodeRunsReferendaFromClock(t *testing.T) {
	params := governance.Params{
		MaxProposalLength:      64,
		ProposalQueueSize:      4,
		ProposalsPerReferendum: 1,
		LaunchPeriod:           2,
		VotingPeriod:           1,
		MaxVotes:               10,
	}
	n := startTestNode(
		t,
		WithGovernanceParams(params),
		WithGenesisTime(time.Now()),
		WithTickLength(20*time.Millisecond),
		WithGenesisVoters(governance.GenesisVoter{Account: "alice"}),
	)
	ctx := context.Background()
	require.NoError(t, n.Engine().SubmitProposal(ctx, "alice", []byte("adopt quadratic voting")))

	require.Eventually(
		t,
		func() bool {
			count, err := n.Engine().ReferendumCount(ctx)
			return err == nil && count >= 1
		},
		5*time.Second,
		10*time.Millisecond,
	)
	records, err := n.Engine().ProposalRecords(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Finished)
	assert.False(t, records[0].Approved, "no votes means the proposal is rejected")

	last, found, err := n.Engine().LastTick(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Positive(t, last)
}
