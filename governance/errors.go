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
	"errors"
	"fmt"
)

var ErrInvalidParams = errors.New("invalid governance parameters")

// Validation errors
var (
	ErrProposalTooLong      = errors.New("proposal too long")
	ErrProposalQueueFull    = errors.New("proposal queue full")
	ErrMissingVotes         = errors.New("missing votes for proposals in referendum")
	ErrTooManyVotes         = errors.New("more votes than proposals in referendum")
	ErrInvalidProposalSlot  = errors.New("invalid proposal slot")
	ErrInvalidVoteDirection = errors.New("invalid vote direction")
	ErrInvalidAccount       = errors.New("invalid account")
)

// Authorization errors
var (
	ErrNotAVoter              = errors.New("not a voter")
	ErrNoIdentity             = errors.New("no identity")
	ErrVoterAlreadyRegistered = errors.New("voter already registered")
	ErrAlreadyVoted           = errors.New("already voted in this referendum")
)

// Arithmetic errors
var (
	ErrOverflow        = errors.New("arithmetic overflow")
	ErrNotEnoughPoints = errors.New("not enough points")
)

// Referendum state errors
var (
	ErrNoActiveReferendum        = errors.New("no active referendum")
	ErrReferendumAlreadyActive   = errors.New("referendum already active")
	ErrNotEnoughProposalsInQueue = errors.New("not enough proposals in queue")
	ErrReferendumNotFound        = errors.New("referendum not found")
	ErrProposalNotFound          = errors.New("proposal not found")
)

// InconsistentStateError reports stored state that contradicts the
// referendum life cycle, such as an active referendum with a missing slot
type InconsistentStateError struct {
	Referendum uint32
	Slot       uint32
	Reason     string
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf(
		"inconsistent governance state: referendum %d slot %d: %s",
		e.Referendum,
		e.Slot,
		e.Reason,
	)
}

type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindValidation
	KindAuthorization
	KindArithmetic
	KindState
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindArithmetic:
		return "arithmetic"
	case KindState:
		return "state"
	default:
		return "internal"
	}
}

// Kind classifies an error returned by the engine. Errors that are not
// governance errors are KindInternal
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var inconsistent *InconsistentStateError
	switch {
	case errors.As(err, &inconsistent):
		return KindInternal
	case errors.Is(err, ErrProposalTooLong),
		errors.Is(err, ErrProposalQueueFull),
		errors.Is(err, ErrMissingVotes),
		errors.Is(err, ErrTooManyVotes),
		errors.Is(err, ErrInvalidProposalSlot),
		errors.Is(err, ErrInvalidVoteDirection),
		errors.Is(err, ErrInvalidAccount),
		errors.Is(err, ErrInvalidParams):
		return KindValidation
	case errors.Is(err, ErrNotAVoter),
		errors.Is(err, ErrNoIdentity),
		errors.Is(err, ErrVoterAlreadyRegistered),
		errors.Is(err, ErrAlreadyVoted):
		return KindAuthorization
	case errors.Is(err, ErrOverflow),
		errors.Is(err, ErrNotEnoughPoints):
		return KindArithmetic
	case errors.Is(err, ErrNoActiveReferendum),
		errors.Is(err, ErrReferendumAlreadyActive),
		errors.Is(err, ErrNotEnoughProposalsInQueue),
		errors.Is(err, ErrReferendumNotFound),
		errors.Is(err, ErrProposalNotFound):
		return KindState
	default:
		return KindInternal
	}
}
