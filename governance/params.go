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
	"math"
)

const (
	DefaultMaxProposalLength      = 256
	DefaultProposalQueueSize      = 16
	DefaultProposalsPerReferendum = 1
	DefaultLaunchPeriod           = 10
	DefaultVotingPeriod           = 5
	DefaultMaxVotes               = 10
)

// Params are the governance policy constants
type Params struct {
	// Maximum length of a proposal body in bytes
	MaxProposalLength uint32 `yaml:"maxProposalLength" split_words:"true"`
	// Maximum number of proposals waiting for a referendum
	ProposalQueueSize uint32 `yaml:"proposalQueueSize" split_words:"true"`
	// Number of proposals put to each referendum
	ProposalsPerReferendum uint32 `yaml:"proposalsPerReferendum" split_words:"true"`
	// A referendum is opened on every tick that is a multiple of LaunchPeriod
	LaunchPeriod uint64 `yaml:"launchPeriod" split_words:"true"`
	// Number of ticks a referendum stays open
	VotingPeriod uint64 `yaml:"votingPeriod" split_words:"true"`
	// Largest vote weight a voter can put on a single proposal. The initial
	// points budget is MaxVotes squared
	MaxVotes uint32 `yaml:"maxVotes" split_words:"true"`
}

func DefaultParams() Params {
	return Params{
		MaxProposalLength:      DefaultMaxProposalLength,
		ProposalQueueSize:      DefaultProposalQueueSize,
		ProposalsPerReferendum: DefaultProposalsPerReferendum,
		LaunchPeriod:           DefaultLaunchPeriod,
		VotingPeriod:           DefaultVotingPeriod,
		MaxVotes:               DefaultMaxVotes,
	}
}

// InitialPoints returns the points balance given to a newly registered voter
func (p Params) InitialPoints() uint32 {
	return p.MaxVotes * p.MaxVotes
}

// Validate checks the parameters for consistency
func (p Params) Validate() error {
	if p.MaxProposalLength == 0 {
		return fmt.Errorf("%w: max proposal length must be positive", ErrInvalidParams)
	}
	if p.ProposalsPerReferendum == 0 {
		return fmt.Errorf("%w: proposals per referendum must be at least 1", ErrInvalidParams)
	}
	if p.ProposalQueueSize < p.ProposalsPerReferendum {
		return fmt.Errorf(
			"%w: proposal queue size %d is smaller than proposals per referendum %d",
			ErrInvalidParams,
			p.ProposalQueueSize,
			p.ProposalsPerReferendum,
		)
	}
	if p.LaunchPeriod == 0 {
		return fmt.Errorf("%w: launch period must be positive", ErrInvalidParams)
	}
	if p.VotingPeriod == 0 {
		return fmt.Errorf("%w: voting period must be positive", ErrInvalidParams)
	}
	if p.MaxVotes == 0 {
		return fmt.Errorf("%w: max votes must be positive", ErrInvalidParams)
	}
	if uint64(p.MaxVotes)*uint64(p.MaxVotes) > math.MaxUint32 {
		return fmt.Errorf("%w: max votes %d squared does not fit the points balance", ErrInvalidParams, p.MaxVotes)
	}
	return nil
}

// LaunchOverlapsVoting reports whether a new referendum can become due
// before the previous one has closed
func (p Params) LaunchOverlapsVoting() bool {
	return p.LaunchPeriod <= p.VotingPeriod
}
