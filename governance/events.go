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

import "github.com/blinklabs-io/qvote/event"

const (
	VoterRegisteredEventType   event.EventType = "governance.voter_registered"
	ProposalSubmittedEventType event.EventType = "governance.proposal_submitted"
	VoteSubmittedEventType     event.EventType = "governance.vote_submitted"
	ReferendumStartedEventType event.EventType = "governance.referendum_started"
	ReferendumEndedEventType   event.EventType = "governance.referendum_ended"
)

type VoterRegisteredEvent struct {
	Voter  AccountID
	Points uint32
}

type ProposalSubmittedEvent struct {
	Proposal    Proposal
	QueueLength int
}

type VoteSubmittedEvent struct {
	Referendum uint32
	Voter      AccountID
	Votes      []SlotVote
	Cost       uint64
}

type ReferendumStartedEvent struct {
	Referendum uint32
	EndsAt     uint64
	Proposals  []Proposal
}

// ProposalOutcome is the final result of one slot in a closed referendum
type ProposalOutcome struct {
	Slot         uint32
	ProposalHash ProposalHash
	Tally        Tally
	Approved     bool
}

type ReferendumEndedEvent struct {
	Referendum uint32
	Tick       uint64
	Outcomes   []ProposalOutcome
}

// pendingEvents collects notifications during a unit of work. They are
// published only after the unit of work commits
type pendingEvents []event.Event

func (p *pendingEvents) add(eventType event.EventType, data any) {
	*p = append(*p, event.NewEvent(eventType, data))
}

func (e *Engine) publish(events pendingEvents) {
	if e.eventBus == nil {
		return
	}
	for _, evt := range events {
		e.eventBus.Publish(evt.Type, evt)
	}
}
