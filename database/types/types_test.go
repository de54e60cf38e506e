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

package types_test

import (
	"bytes"
	"testing"

	"github.com/blinklabs-io/qvote/database/types"
)

func TestReferendumInfoKeySlot(t *testing.T) {
	testDefs := []struct {
		referendum uint32
		slot       uint32
	}{
		{referendum: 0, slot: 0},
		{referendum: 1, slot: 7},
		{referendum: 0xffffffff, slot: 0xfffffffe},
	}
	for _, testDef := range testDefs {
		key := types.ReferendumInfoKey(testDef.referendum, testDef.slot)
		if !bytes.HasPrefix(key, types.ReferendumInfoPrefix(testDef.referendum)) {
			t.Fatalf("key %x does not start with referendum prefix", key)
		}
		slot, ok := types.ReferendumInfoKeySlot(key)
		if !ok {
			t.Fatalf("could not decode slot from key %x", key)
		}
		if slot != testDef.slot {
			t.Fatalf("did not get expected slot: got %d, expected %d", slot, testDef.slot)
		}
	}
}

func TestReferendumInfoKeySlotInvalid(t *testing.T) {
	if _, ok := types.ReferendumInfoKeySlot([]byte("gr")); ok {
		t.Fatalf("expected short key to be rejected")
	}
}

func TestReferendumInfoKeyOrdering(t *testing.T) {
	// Badger iterates in byte order, which must match slot order
	prev := types.ReferendumInfoKey(3, 0)
	for slot := uint32(1); slot < 300; slot++ {
		key := types.ReferendumInfoKey(3, slot)
		if bytes.Compare(prev, key) >= 0 {
			t.Fatalf("key for slot %d does not sort after previous slot", slot)
		}
		prev = key
	}
}

func TestVotedKeyDistinctPerReferendum(t *testing.T) {
	a := types.VotedKey(1, "alice")
	b := types.VotedKey(2, "alice")
	if bytes.Equal(a, b) {
		t.Fatalf("voted keys should differ between referenda")
	}
	if !bytes.HasPrefix(a, []byte(types.VotedKeyPrefix)) {
		t.Fatalf("voted key missing prefix")
	}
}
