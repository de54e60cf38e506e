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

// Vote direction constants
const (
	VoteDirectionAye = 1
	VoteDirectionNay = 2
)

// VoteRecord is the audit row for a single slot vote
type VoteRecord struct {
	ID         uint   `gorm:"primarykey"`
	Referendum uint32 `gorm:"index:idx_vote_record_voter,priority:1;not null"`
	Slot       uint32 `gorm:"not null"`
	Voter      string `gorm:"index:idx_vote_record_voter,priority:2;size:128;not null"`
	Direction  uint8  `gorm:"not null"` // 1=Aye, 2=Nay
	Amount     uint32 `gorm:"not null"`
	Cost       uint64 `gorm:"not null"`
	CreatedAt  int64  `gorm:"autoCreateTime:milli"`
}

// TableName returns the table name
func (VoteRecord) TableName() string {
	return "vote_record"
}
