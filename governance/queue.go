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
	"slices"

	"go.opentelemetry.io/otel/attribute"
)

// SubmitProposal appends a proposal to the tail of the queue
func (e *Engine) SubmitProposal(
	ctx context.Context,
	caller AccountID,
	body []byte,
) error {
	var queueLen int
	err := e.update(
		ctx,
		"SubmitProposal",
		func(txn StateTxn, events *pendingEvents) error {
			if _, err := loadRegisteredPoints(txn, caller); err != nil {
				return err
			}
			if uint64(len(body)) > uint64(e.params.MaxProposalLength) {
				return ErrProposalTooLong
			}
			queue, err := txn.QueuedProposals()
			if err != nil {
				return err
			}
			if uint64(len(queue)) >= uint64(e.params.ProposalQueueSize) {
				return ErrProposalQueueFull
			}
			proposal := Proposal{
				Body:      slices.Clone(body),
				Submitter: caller,
			}
			queue = append(queue, proposal)
			if err := txn.SetQueuedProposals(queue); err != nil {
				return err
			}
			queueLen = len(queue)
			events.add(
				ProposalSubmittedEventType,
				ProposalSubmittedEvent{
					Proposal:    proposal,
					QueueLength: queueLen,
				},
			)
			return nil
		},
		attribute.String("caller", string(caller)),
		attribute.Int("proposal_length", len(body)),
	)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.queueLength.Set(float64(queueLen))
	}
	e.logger.Debug(
		"proposal queued",
		"submitter", caller,
		"hash", HashProposal(body).String(),
		"queue_length", queueLen,
	)
	return nil
}

// QueuedProposals returns the pending proposals in FIFO order
func (e *Engine) QueuedProposals(ctx context.Context) ([]Proposal, error) {
	var queue []Proposal
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		queue, err = txn.QueuedProposals()
		return err
	})
	return queue, err
}
