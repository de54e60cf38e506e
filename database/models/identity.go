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

var ErrIdentityNotFound = errors.New("identity not found")

// Identity is the registered identity of a participant. Marker is an opaque
// 32-byte value, normally the Blake2b-256 hash of the display name
type Identity struct {
	ID        uint   `gorm:"primarykey"`
	Account   string `gorm:"size:128;uniqueIndex;not null"`
	Name      string `gorm:"size:256"`
	Marker    []byte `gorm:"size:32;not null"`
	Registrar string `gorm:"size:128"`
	CreatedAt int64  `gorm:"autoCreateTime:milli"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli"`
}

// TableName returns the table name
func (Identity) TableName() string {
	return "identity"
}
