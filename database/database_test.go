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

package database_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/qvote/database"
	"github.com/blinklabs-io/qvote/database/models"
	"github.com/blinklabs-io/qvote/database/plugin/blob/badger"
	"github.com/blinklabs-io/qvote/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/qvote/database/types"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestNewInMemory(t *testing.T) {
	db := newTestDatabase(t)
	assert.Empty(t, db.DataDir())
	require.NotNil(t, db.Blob())
	require.NotNil(t, db.Metadata())
	ts, err := db.Metadata().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)
}

func TestNewUnknownPlugin(t *testing.T) {
	_, err := database.New(&database.Config{
		InMemory:   true,
		BlobPlugin: "does-not-exist",
	})
	require.Error(t, err)
}

func TestTxnCommitWritesCommitTimestamp(t *testing.T) {
	db := newTestDatabase(t)
	txn := db.Transaction(true)
	require.NoError(t, db.Blob().Set(txn.Blob(), []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())

	metadataTs, err := db.Metadata().GetCommitTimestamp()
	require.NoError(t, err)
	blobTs, err := db.Blob().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Positive(t, metadataTs)
	assert.Equal(t, metadataTs, blobTs)

	// Committing twice is a no-op
	require.NoError(t, txn.Commit())
}

func TestTxnDoRollsBackOnError(t *testing.T) {
	db := newTestDatabase(t)
	errBoom := errors.New("boom")
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := db.Blob().Set(txn.Blob(), []byte("k"), []byte("v")); err != nil {
			return err
		}
		if err := db.SetIdentity(&models.Identity{
			Account: "alice",
			Marker:  make([]byte, 32),
		}, txn); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	txn := db.Transaction(false)
	_, err = db.Blob().Get(txn.Blob(), []byte("k"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	txn.Release()
	_, err = db.GetIdentity("alice", nil)
	require.ErrorIs(t, err, models.ErrIdentityNotFound)
}

func TestMetadataOnlyTxn(t *testing.T) {
	db := newTestDatabase(t)
	txn := database.NewMetadataOnlyTxn(db, true)
	assert.Nil(t, txn.Blob())
	require.NoError(t, db.SetIdentity(&models.Identity{
		Account: "bob",
		Name:    "Bob",
		Marker:  make([]byte, 32),
	}, txn))
	require.NoError(t, txn.Commit())

	ident, err := db.GetIdentity("bob", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bob", ident.Name)
	idents, err := db.GetIdentities(nil)
	require.NoError(t, err)
	assert.Len(t, idents, 1)
	require.NoError(t, db.DeleteIdentity("bob", nil))
	_, err = db.GetIdentity("bob", nil)
	require.ErrorIs(t, err, models.ErrIdentityNotFound)
}

func TestCommitTimestampMismatch(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	assert.Equal(t, dataDir, db.DataDir())
	txn := db.Transaction(true)
	require.NoError(t, db.Blob().Set(txn.Blob(), []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	require.NoError(t, db.Close())

	// Move the blob store timestamp away from the metadata store
	blobStore, err := badger.New(badger.WithDataDir(dataDir))
	require.NoError(t, err)
	blobTxn := blobStore.NewTransaction(true)
	require.NoError(t, blobStore.SetCommitTimestamp(1, blobTxn))
	require.NoError(t, blobTxn.Commit())
	require.NoError(t, blobStore.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	var tsErr database.CommitTimestampError
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, int64(1), tsErr.BlobTimestamp)
	require.NotNil(t, db, "database is returned for recovery")
	require.NoError(t, db.RecoverCommitTimestampConflict())
	require.NoError(t, db.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	ts, err := db.Metadata().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1), ts)
	require.NoError(t, db.Close())
}

func TestNewFreshOnDiskThenRestart(t *testing.T) {
	dataDir := t.TempDir()

	// Nothing has been committed to either store yet
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	blobTs, err := db.Blob().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), blobTs)
	require.NoError(t, db.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	txn := db.Transaction(true)
	require.NoError(t, db.Blob().Set(txn.Blob(), []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	committedTs, err := db.Blob().GetCommitTimestamp()
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()
	metadataTs, err := db.Metadata().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Positive(t, metadataTs)
	assert.Equal(t, committedTs, metadataTs)
}

func TestCommitTimestampsIncrease(t *testing.T) {
	db := newTestDatabase(t)
	var last int64
	for i := range 5 {
		txn := db.Transaction(true)
		require.NoError(t, db.Blob().Set(txn.Blob(), []byte("k"), types.Uint32ToBytes(uint32(i))))
		require.NoError(t, txn.Commit())
		ts, err := db.Blob().GetCommitTimestamp()
		require.NoError(t, err)
		require.Greater(t, ts, last)
		last = ts
	}
}

func TestCommitTimestampAfterClockSkew(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Both stores recorded a commit an hour ahead of the wall clock
	future := time.Now().Add(time.Hour).UnixMilli()
	blobStore, err := badger.New(badger.WithDataDir(dataDir))
	require.NoError(t, err)
	blobTxn := blobStore.NewTransaction(true)
	require.NoError(t, blobStore.SetCommitTimestamp(future, blobTxn))
	require.NoError(t, blobTxn.Commit())
	require.NoError(t, blobStore.Close())
	metadataStore, err := sqlite.New(dataDir, nil, nil)
	require.NoError(t, err)
	metadataTxn := metadataStore.Transaction()
	require.NoError(t, metadataStore.SetCommitTimestamp(future, metadataTxn))
	require.NoError(t, metadataTxn.Commit())
	require.NoError(t, metadataStore.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()
	txn := db.Transaction(true)
	require.NoError(t, db.Blob().Set(txn.Blob(), []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	ts, err := db.Metadata().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, future+1, ts)
}
