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
	"errors"
	"math"
	"slices"

	"go.opentelemetry.io/otel/attribute"
)

const (
	schedulerStepClose = "close"
	schedulerStepOpen  = "open"
)

// OnTick advances the referendum life cycle by one tick. The active
// referendum is closed first if it ends at this tick, then a new referendum
// is opened if the tick is a multiple of the launch period. The two steps run
// in separate transactions and their failures are logged and counted but
// never returned. An error is only returned when ctx is done
func (e *Engine) OnTick(ctx context.Context, tick uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	active, endsAt, err := e.ActiveReferendum(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.schedulerFailure(schedulerStepClose, tick, err)
	} else if active && tick == endsAt {
		if err := e.closeReferendum(ctx, tick); err != nil {
			e.schedulerFailure(schedulerStepClose, tick, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if tick%e.params.LaunchPeriod == 0 {
		if err := e.openReferendum(ctx, tick); err != nil {
			e.schedulerFailure(schedulerStepOpen, tick, err)
		}
	}
	return nil
}

func (e *Engine) schedulerFailure(step string, tick uint64, err error) {
	kind := Kind(err)
	if e.metrics != nil {
		e.metrics.schedulerErrors.WithLabelValues(step, kind.String()).Inc()
	}
	switch {
	case errors.Is(err, ErrNotEnoughProposalsInQueue):
		e.logger.Debug(
			"not opening referendum",
			"tick", tick,
			"reason", err.Error(),
		)
	case kind == KindInternal:
		e.logger.Error(
			"referendum "+step+" failed",
			"tick", tick,
			"error", err,
		)
	default:
		e.logger.Warn(
			"referendum "+step+" failed",
			"tick", tick,
			"error", err,
		)
	}
}

func (e *Engine) openReferendum(ctx context.Context, tick uint64) error {
	var (
		index  uint32
		endsAt uint64
		queued int
	)
	err := e.update(
		ctx,
		"OpenReferendum",
		func(txn StateTxn, events *pendingEvents) error {
			active, _, err := txn.ActiveReferendum()
			if err != nil {
				return err
			}
			if active {
				return ErrReferendumAlreadyActive
			}
			queue, err := txn.QueuedProposals()
			if err != nil {
				return err
			}
			count := int(e.params.ProposalsPerReferendum)
			if len(queue) < count {
				return ErrNotEnoughProposalsInQueue
			}
			index, err = txn.ReferendumCount()
			if err != nil {
				return err
			}
			drained := queue[:count]
			for i, proposal := range drained {
				slot := uint32(i) // #nosec G115
				existing, err := txn.ReferendumInfo(index, slot)
				if err != nil {
					return err
				}
				if existing != nil {
					return &InconsistentStateError{
						Referendum: index,
						Slot:       slot,
						Reason:     "proposal slot exists before referendum start",
					}
				}
				hash := HashProposal(proposal.Body)
				info := ProposalInfo{
					Ongoing: &OngoingProposal{ProposalHash: hash},
				}
				if err := txn.SetReferendumInfo(index, slot, info); err != nil {
					return err
				}
				err = txn.SetProposalRecord(ProposalRecord{
					Referendum:   index,
					Slot:         slot,
					ProposalHash: hash,
					Body:         proposal.Body,
					Submitter:    proposal.Submitter,
					StartedAt:    tick,
				})
				if err != nil {
					return err
				}
			}
			remaining := slices.Clone(queue[count:])
			if err := txn.SetQueuedProposals(remaining); err != nil {
				return err
			}
			queued = len(remaining)
			endsAt = saturatingAdd(tick, e.params.VotingPeriod)
			if err := txn.SetActiveReferendum(endsAt); err != nil {
				return err
			}
			events.add(
				ReferendumStartedEventType,
				ReferendumStartedEvent{
					Referendum: index,
					EndsAt:     endsAt,
					Proposals:  slices.Clone(drained),
				},
			)
			return nil
		},
		attribute.Int64("tick", int64(tick)), // #nosec G115
	)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.activeReferendum.Set(1)
		e.metrics.queueLength.Set(float64(queued))
	}
	e.logger.Info(
		"referendum started",
		"referendum", index,
		"tick", tick,
		"ends_at", endsAt,
	)
	return nil
}

func (e *Engine) closeReferendum(ctx context.Context, tick uint64) error {
	var outcomes []ProposalOutcome
	var index uint32
	err := e.update(
		ctx,
		"CloseReferendum",
		func(txn StateTxn, events *pendingEvents) error {
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
			if index == math.MaxUint32 {
				return ErrOverflow
			}
			records, err := txn.ProposalRecords(index)
			if err != nil {
				return err
			}
			outcomes = make([]ProposalOutcome, 0, e.params.ProposalsPerReferendum)
			for slot := range e.params.ProposalsPerReferendum {
				info, err := txn.ReferendumInfo(index, slot)
				if err != nil {
					return err
				}
				if info == nil {
					return &InconsistentStateError{
						Referendum: index,
						Slot:       slot,
						Reason:     "proposal slot missing at referendum close",
					}
				}
				if !info.IsOngoing() {
					return &InconsistentStateError{
						Referendum: index,
						Slot:       slot,
						Reason:     "proposal slot already finished",
					}
				}
				tally := info.Ongoing.Tally
				approved := tally.Approved()
				finished := ProposalInfo{
					Finished: &FinishedProposal{Approved: approved, End: tick},
				}
				if err := txn.SetReferendumInfo(index, slot, finished); err != nil {
					return err
				}
				record := ProposalRecord{
					Referendum:   index,
					Slot:         slot,
					ProposalHash: info.Ongoing.ProposalHash,
				}
				if idx := slices.IndexFunc(records, func(r ProposalRecord) bool {
					return r.Slot == slot
				}); idx >= 0 {
					record = records[idx]
				}
				closedAt := tick
				record.Tally = tally
				record.Finished = true
				record.Approved = approved
				record.ClosedAt = &closedAt
				if err := txn.SetProposalRecord(record); err != nil {
					return err
				}
				outcomes = append(outcomes, ProposalOutcome{
					Slot:         slot,
					ProposalHash: info.Ongoing.ProposalHash,
					Tally:        tally,
					Approved:     approved,
				})
			}
			if err := txn.ClearActiveReferendum(); err != nil {
				return err
			}
			if err := txn.SetReferendumCount(index + 1); err != nil {
				return err
			}
			events.add(
				ReferendumEndedEventType,
				ReferendumEndedEvent{
					Referendum: index,
					Tick:       tick,
					Outcomes:   outcomes,
				},
			)
			return nil
		},
		attribute.Int64("tick", int64(tick)), // #nosec G115
	)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.activeReferendum.Set(0)
		e.metrics.referendumIndex.Set(float64(index + 1))
		for _, outcome := range outcomes {
			if outcome.Approved {
				e.metrics.proposalsClosed.WithLabelValues("approved").Inc()
			} else {
				e.metrics.proposalsClosed.WithLabelValues("rejected").Inc()
			}
		}
	}
	e.logger.Info(
		"referendum ended",
		"referendum", index,
		"tick", tick,
		"proposals", len(outcomes),
	)
	return nil
}

// AdvanceTo runs OnTick for every tick after the last processed tick up to
// and including tick, then records tick as processed. Ticks at which neither
// a close nor an open can happen are skipped since OnTick would do nothing
// for them. When no tick has been processed yet only tick itself is run. It
// returns the number of ticks that were run
func (e *Engine) AdvanceTo(ctx context.Context, tick uint64) (int, error) {
	last, found, err := e.LastTick(ctx)
	if err != nil {
		return 0, err
	}
	if found && tick <= last {
		return 0, nil
	}
	next := tick
	if found {
		next = last + 1
	}
	var ran int
	for next <= tick {
		if err := ctx.Err(); err != nil {
			return ran, err
		}
		due, ok, err := e.nextDueTick(ctx, next, tick)
		if err != nil {
			return ran, err
		}
		if !ok {
			break
		}
		if err := e.OnTick(ctx, due); err != nil {
			return ran, err
		}
		ran++
		if err := e.setLastTick(ctx, due); err != nil {
			return ran, err
		}
		if due == math.MaxUint64 {
			return ran, nil
		}
		next = due + 1
	}
	if err := e.setLastTick(ctx, tick); err != nil {
		return ran, err
	}
	return ran, nil
}

// nextDueTick returns the first tick in [from, to] at which OnTick can change
// state
func (e *Engine) nextDueTick(
	ctx context.Context,
	from uint64,
	to uint64,
) (uint64, bool, error) {
	active, endsAt, err := e.ActiveReferendum(ctx)
	if err != nil {
		return 0, false, err
	}
	due := uint64(0)
	ok := false
	launch := from
	if rem := from % e.params.LaunchPeriod; rem != 0 {
		launch = from + (e.params.LaunchPeriod - rem)
	}
	if launch >= from && launch <= to {
		due, ok = launch, true
	}
	if active && endsAt >= from && endsAt <= to && (!ok || endsAt < due) {
		due, ok = endsAt, true
	}
	return due, ok, nil
}

// LastTick returns the last tick recorded by AdvanceTo
func (e *Engine) LastTick(ctx context.Context) (uint64, bool, error) {
	var (
		tick  uint64
		found bool
	)
	err := e.view(ctx, func(txn StateTxn) error {
		var err error
		tick, found, err = txn.LastTick()
		return err
	})
	return tick, found, err
}

func (e *Engine) setLastTick(ctx context.Context, tick uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runTxn(true, func(txn StateTxn) error {
		return txn.SetLastTick(tick)
	})
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
