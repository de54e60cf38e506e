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

package sqlite_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/qvote/database/models"
	"github.com/blinklabs-io/qvote/database/plugin/metadata/sqlite"
)

func setupTestStore(t *testing.T) *sqlite.MetadataStoreSqlite {
	t.Helper()
	store, err := sqlite.New("", nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestInMemoryStoresAreIsolated(t *testing.T) {
	storeA := setupTestStore(t)
	storeB := setupTestStore(t)
	require.NoError(t, storeA.SetIdentity(&models.Identity{
		Account: "alice",
		Marker:  make([]byte, 32),
	}, nil))
	_, err := storeB.GetIdentity("alice", nil)
	require.ErrorIs(t, err, models.ErrIdentityNotFound)
}

func TestIdentityCRUD(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetIdentity("alice", nil)
	require.ErrorIs(t, err, models.ErrIdentityNotFound)

	marker := make([]byte, 32)
	marker[0] = 0xaa
	require.NoError(t, store.SetIdentity(&models.Identity{
		Account:   "alice",
		Name:      "Alice",
		Marker:    marker,
		Registrar: "root",
	}, nil))
	ident, err := store.GetIdentity("alice", nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice", ident.Name)
	assert.Equal(t, marker, ident.Marker)

	// Setting again replaces the existing row
	marker2 := make([]byte, 32)
	marker2[0] = 0xbb
	require.NoError(t, store.SetIdentity(&models.Identity{
		Account: "alice",
		Name:    "Alice B",
		Marker:  marker2,
	}, nil))
	ident, err = store.GetIdentity("alice", nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice B", ident.Name)
	assert.Equal(t, marker2, ident.Marker)

	idents, err := store.GetIdentities(nil)
	require.NoError(t, err)
	assert.Len(t, idents, 1)

	require.NoError(t, store.DeleteIdentity("alice", nil))
	_, err = store.GetIdentity("alice", nil)
	require.ErrorIs(t, err, models.ErrIdentityNotFound)
	// Deleting again is a no-op
	require.NoError(t, store.DeleteIdentity("alice", nil))
}

func TestProposalRecordLifecycle(t *testing.T) {
	store := setupTestStore(t)
	hash := make([]byte, 32)
	hash[31] = 1

	require.NoError(t, store.SetProposalRecord(&models.ProposalRecord{
		Referendum:   0,
		Slot:         0,
		ProposalHash: hash,
		Body:         []byte("raise the limit"),
		Submitter:    "alice",
		StartedAt:    2,
	}, nil))

	closedAt := uint64(3)
	require.NoError(t, store.SetProposalRecord(&models.ProposalRecord{
		Referendum:   0,
		Slot:         0,
		ProposalHash: hash,
		Body:         []byte("raise the limit"),
		Submitter:    "alice",
		AyeVotes:     5,
		Finished:     true,
		Approved:     true,
		StartedAt:    2,
		ClosedAt:     &closedAt,
	}, nil))

	records, err := store.GetProposalRecords(0, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Finished)
	assert.True(t, records[0].Approved)
	assert.Equal(t, uint32(5), records[0].AyeVotes)
	require.NotNil(t, records[0].ClosedAt)
	assert.Equal(t, closedAt, *records[0].ClosedAt)

	record, err := store.GetProposalRecordByHash(hash, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("raise the limit"), record.Body)

	_, err = store.GetProposalRecordByHash(make([]byte, 32), nil)
	require.ErrorIs(t, err, models.ErrProposalRecordNotFound)
}

func TestVoteRecordsInTransaction(t *testing.T) {
	store := setupTestStore(t)

	txn := store.Transaction()
	require.NoError(t, store.AddVoteRecords([]models.VoteRecord{
		{Referendum: 1, Slot: 0, Voter: "bob", Direction: models.VoteDirectionAye, Amount: 5, Cost: 25},
		{Referendum: 1, Slot: 1, Voter: "bob", Direction: models.VoteDirectionNay, Amount: 2, Cost: 4},
	}, txn))
	require.NoError(t, txn.Rollback())

	records, err := store.GetVoteRecords(1, nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	txn = store.Transaction()
	require.NoError(t, store.AddVoteRecords([]models.VoteRecord{
		{Referendum: 1, Slot: 0, Voter: "bob", Direction: models.VoteDirectionAye, Amount: 5, Cost: 25},
	}, txn))
	require.NoError(t, txn.Commit())
	// Using a finished transaction fails
	require.Error(t, store.AddVoteRecords([]models.VoteRecord{{Referendum: 1}}, txn))

	records, err = store.GetVoteRecords(1, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(25), records[0].Cost)
}

func TestCommitTimestamp(t *testing.T) {
	store := setupTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)

	txn := store.Transaction()
	require.NoError(t, store.SetCommitTimestamp(12345, txn))
	require.NoError(t, txn.Commit())
	txn = store.Transaction()
	require.NoError(t, store.SetCommitTimestamp(67890, txn))
	require.NoError(t, txn.Commit())

	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(67890), ts)
}

func TestPersistentStore(t *testing.T) {
	dataDir := t.TempDir()
	registry := prometheus.NewRegistry()
	store, err := sqlite.New(dataDir, nil, registry)
	require.NoError(t, err)
	require.NoError(t, store.SetIdentity(&models.Identity{
		Account: "carol",
		Marker:  make([]byte, 32),
	}, nil))
	require.NoError(t, store.Close())

	store, err = sqlite.New(dataDir, nil, nil)
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck
	ident, err := store.GetIdentity("carol", nil)
	require.NoError(t, err)
	assert.Equal(t, "carol", ident.Account)
}
