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

package types

import (
	"encoding/binary"
	"slices"
)

const (
	QueuedProposalsKey        = "gq"
	ReferendumCountKey        = "gc"
	ReferendumEndsAtKey       = "ge"
	ActiveReferendumKey       = "ga"
	LastTickKey               = "gt"
	ReferendumInfoKeyPrefix   = "gr"
	VoterPointsKeyPrefix      = "gp"
	VotedKeyPrefix            = "gv"
	CommitTimestampBlobKey    = "metadata_commit_timestamp"
	referendumIndexByteLength = 4
)

func Uint32ToBytes(input uint32) []byte {
	ret := make([]byte, 4)
	binary.BigEndian.PutUint32(ret, input)
	return ret
}

func Uint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

// ReferendumInfoPrefix returns the key prefix shared by all proposal slots of
// a referendum
func ReferendumInfoPrefix(referendumIndex uint32) []byte {
	return slices.Concat(
		[]byte(ReferendumInfoKeyPrefix),
		Uint32ToBytes(referendumIndex),
	)
}

func ReferendumInfoKey(referendumIndex uint32, proposalIndex uint32) []byte {
	return slices.Concat(
		ReferendumInfoPrefix(referendumIndex),
		Uint32ToBytes(proposalIndex),
	)
}

// ReferendumInfoKeySlot extracts the proposal index from a referendum info key
func ReferendumInfoKeySlot(key []byte) (uint32, bool) {
	prefixLen := len(ReferendumInfoKeyPrefix) + referendumIndexByteLength
	if len(key) != prefixLen+4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(key[prefixLen:]), true
}

func VoterPointsKey(account string) []byte {
	return slices.Concat([]byte(VoterPointsKeyPrefix), []byte(account))
}

func VotedKey(referendumIndex uint32, account string) []byte {
	return slices.Concat(
		[]byte(VotedKeyPrefix),
		Uint32ToBytes(referendumIndex),
		[]byte(account),
	)
}

func BytesToUint32(input []byte) uint32 {
	return binary.BigEndian.Uint32(input)
}

func BytesToUint64(input []byte) uint64 {
	return binary.BigEndian.Uint64(input)
}
