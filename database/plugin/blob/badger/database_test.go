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

package badger_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/qvote/database/plugin/blob/badger"
	"github.com/blinklabs-io/qvote/database/types"
)

func newTestStore(t *testing.T, opts ...badger.BlobStoreBadgerOptionFunc) *badger.BlobStoreBadger {
	t.Helper()
	store, err := badger.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestGetSetDelete(t *testing.T) {
	store := newTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("gq"), []byte("queue")))
	require.NoError(t, txn.Commit())

	readTxn := store.NewTransaction(false)
	val, err := store.Get(readTxn, []byte("gq"))
	require.NoError(t, err)
	assert.Equal(t, []byte("queue"), val)
	_, err = store.Get(readTxn, []byte("missing"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, readTxn.Rollback())

	delTxn := store.NewTransaction(true)
	require.NoError(t, store.Delete(delTxn, []byte("gq")))
	require.NoError(t, delTxn.Commit())

	readTxn = store.NewTransaction(false)
	defer readTxn.Rollback() //nolint:errcheck
	_, err = store.Get(readTxn, []byte("gq"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	store := newTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("ga"), []byte{1}))
	require.NoError(t, txn.Rollback())
	// Finished transactions are rejected
	require.Error(t, store.Set(txn, []byte("ga"), []byte{1}))

	readTxn := store.NewTransaction(false)
	defer readTxn.Rollback() //nolint:errcheck
	_, err := store.Get(readTxn, []byte("ga"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestTxnFromOtherStore(t *testing.T) {
	storeA := newTestStore(t)
	storeB := newTestStore(t)
	txn := storeA.NewTransaction(true)
	defer txn.Rollback() //nolint:errcheck
	require.Error(t, storeB.Set(txn, []byte("k"), []byte("v")))
	require.ErrorIs(t, storeB.Set(nil, []byte("k"), []byte("v")), types.ErrNilTxn)
}

func TestIteratorPrefixOrder(t *testing.T) {
	store := newTestStore(t)

	txn := store.NewTransaction(true)
	for _, slot := range []uint32{2, 0, 1} {
		require.NoError(t, store.Set(txn, types.ReferendumInfoKey(5, slot), []byte{byte(slot)}))
	}
	// Different referendum must not show up under the prefix
	require.NoError(t, store.Set(txn, types.ReferendumInfoKey(6, 0), []byte{9}))
	require.NoError(t, txn.Commit())

	readTxn := store.NewTransaction(false)
	defer readTxn.Rollback() //nolint:errcheck
	prefix := types.ReferendumInfoPrefix(5)
	iter := store.NewIterator(readTxn, types.BlobIteratorOptions{Prefix: prefix})
	defer iter.Close()
	var slots []uint32
	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		slot, ok := types.ReferendumInfoKeySlot(iter.Item().Key())
		require.True(t, ok)
		slots = append(slots, slot)
	}
	require.NoError(t, iter.Err())
	assert.Equal(t, []uint32{0, 1, 2}, slots)
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t)

	// A store that was never committed to reports 0
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)

	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1700000000123, txn))
	require.NoError(t, txn.Commit())

	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), ts)
	require.ErrorIs(t, store.SetCommitTimestamp(1, nil), types.ErrNilTxn)
}

func TestPersistentStoreWithMetrics(t *testing.T) {
	dataDir := t.TempDir()
	registry := prometheus.NewRegistry()
	store, err := badger.New(
		badger.WithDataDir(dataDir),
		badger.WithPromRegistry(registry),
		badger.WithGc(true),
	)
	require.NoError(t, err)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("gc"), types.Uint32ToBytes(3)))
	require.NoError(t, txn.Commit())
	require.NoError(t, store.Close())

	metrics, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, metrics)

	// Data survives a reopen
	store, err = badger.New(badger.WithDataDir(dataDir), badger.WithGc(false))
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck
	readTxn := store.NewTransaction(false)
	defer readTxn.Rollback() //nolint:errcheck
	val, err := store.Get(readTxn, []byte("gc"))
	require.NoError(t, err)
	assert.Equal(t, types.Uint32ToBytes(3), val)
}

func TestSyncWritesOption(t *testing.T) {
	assert.True(t, badger.NewWithOptions().SyncWrites())
	assert.False(t, badger.NewWithOptions(badger.WithSyncWrites(false)).SyncWrites())

	// Unsynced stores still persist on a clean close
	dataDir := t.TempDir()
	store, err := badger.New(
		badger.WithDataDir(dataDir),
		badger.WithSyncWrites(false),
		badger.WithCacheSizes(1<<20, 0),
	)
	require.NoError(t, err)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("gt"), types.Uint64ToBytes(9)))
	require.NoError(t, txn.Commit())
	require.NoError(t, store.Close())

	store, err = badger.New(badger.WithDataDir(dataDir))
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck
	readTxn := store.NewTransaction(false)
	defer readTxn.Rollback() //nolint:errcheck
	val, err := store.Get(readTxn, []byte("gt"))
	require.NoError(t, err)
	assert.Equal(t, types.Uint64ToBytes(9), val)
}
