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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/blinklabs-io/qvote/governance"
	"github.com/blinklabs-io/qvote/identity"
)

const maxRequestBodySize = 1 << 20

var errMissingAccount = errors.New("missing " + AccountHeader + " header")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
		RequestID:  requestID(r),
	})
}

// statusForError maps an engine error to an HTTP status code
func statusForError(err error) int {
	if errors.Is(err, identity.ErrNotAuthorized) {
		return http.StatusForbidden
	}
	switch governance.Kind(err) {
	case governance.KindValidation:
		return http.StatusBadRequest
	case governance.KindAuthorization:
		return http.StatusForbidden
	case governance.KindArithmetic:
		return http.StatusUnprocessableEntity
	case governance.KindState:
		if errors.Is(err, governance.ErrReferendumNotFound) ||
			errors.Is(err, governance.ErrProposalNotFound) {
			return http.StatusNotFound
		}
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeEngineError(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	err error,
) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(
			"request failed",
			"operation", operation,
			"request_id", requestID(r),
			"error", err,
		)
		writeError(
			w,
			r,
			status,
			http.StatusText(status),
			"internal error during "+operation,
		)
		return
	}
	writeError(w, r, status, http.StatusText(status), err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func callerAccount(r *http.Request) (governance.AccountID, error) {
	caller := r.Header.Get(AccountHeader)
	if caller == "" {
		return "", errMissingAccount
	}
	return governance.AccountID(caller), nil
}

func parseUint32(value string) (uint32, error) {
	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

// handleRegisterVoter handles POST /api/v1/voters
func (s *Server) handleRegisterVoter(w http.ResponseWriter, r *http.Request) {
	var req RegisterVoterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	account := governance.AccountID(req.Account)
	if err := s.engine.RegisterVoter(r.Context(), account); err != nil {
		s.writeEngineError(w, r, "RegisterVoter", err)
		return
	}
	points, err := s.engine.VoterPoints(r.Context(), account)
	if err != nil {
		s.writeEngineError(w, r, "VoterPoints", err)
		return
	}
	writeJSON(w, http.StatusCreated, VoterResponse{
		Account: req.Account,
		Points:  points,
	})
}

// handleCreateIdentity handles POST /api/v1/identities
func (s *Server) handleCreateIdentity(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	var req CreateIdentityRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	marker, err := s.identities.CreateIdentity(
		r.Context(),
		caller,
		governance.AccountID(req.Account),
		req.Name,
	)
	if err != nil {
		s.writeEngineError(w, r, "CreateIdentity", err)
		return
	}
	writeJSON(w, http.StatusCreated, IdentityResponse{
		Account: req.Account,
		Marker:  marker.String(),
	})
}

// handleSubmitProposal handles POST /api/v1/proposals
func (s *Server) handleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	var req SubmitProposalRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := s.engine.SubmitProposal(r.Context(), caller, req.Body); err != nil {
		s.writeEngineError(w, r, "SubmitProposal", err)
		return
	}
	writeJSON(w, http.StatusAccepted, ProposalResponse{
		Hash:      governance.HashProposal(req.Body).String(),
		Body:      req.Body,
		Submitter: string(caller),
	})
}

// handleSubmitVotes handles POST /api/v1/votes
func (s *Server) handleSubmitVotes(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	var req SubmitVotesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	votes := make([]governance.Vote, 0, len(req.Votes))
	for _, v := range req.Votes {
		var direction governance.VoteDirection
		if err := direction.UnmarshalText([]byte(v.Direction)); err != nil {
			s.writeEngineError(w, r, "SubmitVotes", err)
			return
		}
		votes = append(votes, governance.Vote{
			Amount:    v.Amount,
			Direction: direction,
		})
	}
	if err := s.engine.SubmitVotes(r.Context(), caller, votes); err != nil {
		s.writeEngineError(w, r, "SubmitVotes", err)
		return
	}
	s.writeVoter(w, r, caller)
}

// handleSubmitVote handles POST /api/v1/votes/{slot}
func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	slot, err := parseUint32(mux.Vars(r)["slot"])
	if err != nil {
		s.writeEngineError(w, r, "SubmitVote", governance.ErrInvalidProposalSlot)
		return
	}
	var req VoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	var direction governance.VoteDirection
	if err := direction.UnmarshalText([]byte(req.Direction)); err != nil {
		s.writeEngineError(w, r, "SubmitVote", err)
		return
	}
	err = s.engine.SubmitVote(r.Context(), caller, slot, direction, req.Amount)
	if err != nil {
		s.writeEngineError(w, r, "SubmitVote", err)
		return
	}
	s.writeVoter(w, r, caller)
}

// handleQueue handles GET /api/v1/proposals/queue
func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	queue, err := s.engine.QueuedProposals(r.Context())
	if err != nil {
		s.writeEngineError(w, r, "QueuedProposals", err)
		return
	}
	resp := QueueResponse{Proposals: make([]ProposalResponse, 0, len(queue))}
	for _, p := range queue {
		resp.Proposals = append(resp.Proposals, ProposalResponse{
			Hash:      governance.HashProposal(p.Body).String(),
			Body:      p.Body,
			Submitter: string(p.Submitter),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCurrentReferendum handles GET /api/v1/referenda/current
func (s *Server) handleCurrentReferendum(
	w http.ResponseWriter,
	r *http.Request,
) {
	status, err := s.engine.Status(r.Context())
	if err != nil {
		s.writeEngineError(w, r, "Status", err)
		return
	}
	writeJSON(w, http.StatusOK, CurrentReferendumResponse{
		Active: status.Active,
		Index:  status.Index,
		EndsAt: status.EndsAt,
		Slots:  slotResponses(status.Slots),
	})
}

// handleReferendum handles GET /api/v1/referenda/{index}
func (s *Server) handleReferendum(w http.ResponseWriter, r *http.Request) {
	index, err := parseUint32(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Bad Request", "invalid referendum index")
		return
	}
	slots, err := s.engine.Referendum(r.Context(), index)
	if err != nil {
		s.writeEngineError(w, r, "Referendum", err)
		return
	}
	records, err := s.engine.ProposalRecords(r.Context(), index)
	if err != nil {
		s.writeEngineError(w, r, "ProposalRecords", err)
		return
	}
	resp := ReferendumResponse{
		Index:     index,
		Slots:     slotResponses(slots),
		Proposals: make([]ArchivedProposalResponse, 0, len(records)),
	}
	for _, rec := range records {
		resp.Proposals = append(resp.Proposals, ArchivedProposalResponse{
			Slot:         rec.Slot,
			ProposalHash: rec.ProposalHash.String(),
			Submitter:    string(rec.Submitter),
			Aye:          rec.Tally.Aye,
			Nay:          rec.Tally.Nay,
			Approved:     rec.Approved,
			StartedAt:    rec.StartedAt,
			ClosedAt:     rec.ClosedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleVoter handles GET /api/v1/voters/{account}
func (s *Server) handleVoter(w http.ResponseWriter, r *http.Request) {
	s.writeVoter(w, r, governance.AccountID(mux.Vars(r)["account"]))
}

func (s *Server) writeVoter(
	w http.ResponseWriter,
	r *http.Request,
	account governance.AccountID,
) {
	points, err := s.engine.VoterPoints(r.Context(), account)
	if err != nil {
		if errors.Is(err, governance.ErrNotAVoter) {
			writeError(w, r, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		s.writeEngineError(w, r, "VoterPoints", err)
		return
	}
	status, err := s.engine.Status(r.Context())
	if err != nil {
		s.writeEngineError(w, r, "Status", err)
		return
	}
	voted := false
	if status.Active {
		voted, err = s.engine.HasVoted(r.Context(), status.Index, account)
		if err != nil {
			s.writeEngineError(w, r, "HasVoted", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, VoterResponse{
		Account: string(account),
		Points:  points,
		Voted:   voted,
	})
}

func slotResponses(slots []governance.SlotInfo) []SlotResponse {
	ret := make([]SlotResponse, 0, len(slots))
	for _, slot := range slots {
		resp := SlotResponse{Slot: slot.Slot}
		switch {
		case slot.Info.Ongoing != nil:
			resp.Ongoing = &OngoingResponse{
				ProposalHash: slot.Info.Ongoing.ProposalHash.String(),
				Aye:          slot.Info.Ongoing.Tally.Aye,
				Nay:          slot.Info.Ongoing.Tally.Nay,
			}
		case slot.Info.Finished != nil:
			resp.Finished = &FinishedResponse{
				Approved: slot.Info.Finished.Approved,
				End:      slot.Info.Finished.End,
			}
		}
		ret = append(ret, resp)
	}
	return ret
}
