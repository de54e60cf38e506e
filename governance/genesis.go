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
	"fmt"
)

// GenesisVoter is an account registered as a voter when the engine starts
type GenesisVoter struct {
	Account AccountID `yaml:"account"`
	// Optional display name used to derive the identity marker when the
	// account has no identity yet
	Name string `yaml:"name"`
}

// RegisterGenesisVoters gives each genesis voter an identity if it lacks one
// and registers it. Voters that are already registered are left unchanged
func (e *Engine) RegisterGenesisVoters(
	ctx context.Context,
	voters []GenesisVoter,
) error {
	for _, voter := range voters {
		if voter.Account == "" {
			return fmt.Errorf("genesis voter: %w", ErrInvalidAccount)
		}
		hasIdentity, err := e.identity.HasIdentity(ctx, voter.Account)
		if err != nil {
			return fmt.Errorf("genesis voter %s: %w", voter.Account, err)
		}
		if !hasIdentity {
			var marker IdentityMarker
			if voter.Name != "" {
				marker = NewIdentityMarker(voter.Name)
			}
			if err := e.identity.SetIdentity(ctx, voter.Account, marker); err != nil {
				return fmt.Errorf("genesis voter %s: set identity: %w", voter.Account, err)
			}
		}
		err = e.RegisterVoter(ctx, voter.Account)
		if err != nil && !errors.Is(err, ErrVoterAlreadyRegistered) {
			return fmt.Errorf("genesis voter %s: %w", voter.Account, err)
		}
	}
	return nil
}
