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

package models

import "errors"

var ErrProposalRecordNotFound = errors.New("proposal record not found")

// ProposalRecord archives a proposal once it is put to a referendum. The row
// is created when the referendum opens and updated with the outcome when it
// closes.
type ProposalRecord struct {
	ID           uint   `gorm:"primarykey"`
	Referendum   uint32 `gorm:"uniqueIndex:idx_proposal_record_slot,priority:1;not null"`
	Slot         uint32 `gorm:"uniqueIndex:idx_proposal_record_slot,priority:2;not null"`
	ProposalHash []byte `gorm:"index;size:32;not null"`
	Body         []byte `gorm:"not null"`
	Submitter    string `gorm:"size:128;index;not null"`
	AyeVotes     uint32 `gorm:"not null"`
	NayVotes     uint32 `gorm:"not null"`
	Finished     bool   `gorm:"not null"`
	Approved     bool   `gorm:"not null"`
	StartedAt    uint64 `gorm:"not null"`
	ClosedAt     *uint64
}

// TableName returns the table name
func (ProposalRecord) TableName() string {
	return "proposal_record"
}
