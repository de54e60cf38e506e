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

package identity

import (
	"slices"

	"github.com/blinklabs-io/qvote/governance"
)

// Authorizer decides whether a caller may register identities
type Authorizer interface {
	CheckCaller(caller governance.AccountID) bool
}

// AllowAll lets any caller register identities
type AllowAll struct{}

func (AllowAll) CheckCaller(governance.AccountID) bool {
	return true
}

// Registrars only lets the listed accounts register identities
type Registrars []governance.AccountID

func (r Registrars) CheckCaller(caller governance.AccountID) bool {
	return caller != "" && slices.Contains(r, caller)
}

// NewAuthorizer returns AllowAll when no registrars are given
func NewAuthorizer(registrars []string) Authorizer {
	if len(registrars) == 0 {
		return AllowAll{}
	}
	ret := make(Registrars, 0, len(registrars))
	for _, registrar := range registrars {
		ret = append(ret, governance.AccountID(registrar))
	}
	return ret
}
