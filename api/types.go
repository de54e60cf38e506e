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

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
}

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type RegisterVoterRequest struct {
	Account string `json:"account"`
}

type CreateIdentityRequest struct {
	Account string `json:"account"`
	Name    string `json:"name"`
}

type IdentityResponse struct {
	Account string `json:"account"`
	Marker  string `json:"marker"`
}

// SubmitProposalRequest carries the proposal body. encoding/json decodes
// base64 strings into []byte
type SubmitProposalRequest struct {
	Body []byte `json:"body"`
}

type VoteRequest struct {
	Amount    uint32 `json:"amount"`
	Direction string `json:"direction"`
}

type SubmitVotesRequest struct {
	Votes []VoteRequest `json:"votes"`
}

type ProposalResponse struct {
	Hash      string `json:"hash"`
	Body      []byte `json:"body"`
	Submitter string `json:"submitter"`
}

type QueueResponse struct {
	Proposals []ProposalResponse `json:"proposals"`
}

// SlotResponse is one proposal slot of a referendum. Exactly one of
// Ongoing and Finished is set
type SlotResponse struct {
	Slot     uint32            `json:"slot"`
	Ongoing  *OngoingResponse  `json:"ongoing,omitempty"`
	Finished *FinishedResponse `json:"finished,omitempty"`
}

type OngoingResponse struct {
	ProposalHash string `json:"proposal_hash"`
	Aye          uint32 `json:"aye"`
	Nay          uint32 `json:"nay"`
}

type FinishedResponse struct {
	Approved bool   `json:"approved"`
	End      uint64 `json:"end"`
}

type CurrentReferendumResponse struct {
	Active bool           `json:"active"`
	Index  uint32         `json:"index"`
	EndsAt uint64         `json:"ends_at,omitempty"`
	Slots  []SlotResponse `json:"slots"`
}

type ArchivedProposalResponse struct {
	Slot         uint32  `json:"slot"`
	ProposalHash string  `json:"proposal_hash"`
	Submitter    string  `json:"submitter"`
	Aye          uint32  `json:"aye"`
	Nay          uint32  `json:"nay"`
	Approved     bool    `json:"approved"`
	StartedAt    uint64  `json:"started_at"`
	ClosedAt     *uint64 `json:"closed_at"`
}

type ReferendumResponse struct {
	Index     uint32                     `json:"index"`
	Slots     []SlotResponse             `json:"slots"`
	Proposals []ArchivedProposalResponse `json:"proposals"`
}

type VoterResponse struct {
	Account string `json:"account"`
	Points  uint32 `json:"points"`
	// Voted reports whether the voter has voted in the current referendum
	Voted bool `json:"voted"`
}
