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

package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/qvote/database/plugin"
	"github.com/blinklabs-io/qvote/database/plugin/blob"
	"github.com/blinklabs-io/qvote/database/plugin/metadata"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// Config holds the settings used to open a Database
type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// Plugin names. Empty values select the defaults
	BlobPlugin     string
	MetadataPlugin string
	// DataDir overrides the data-dir option of the selected plugins when set
	DataDir string
	// InMemory keeps all data in memory and ignores DataDir
	InMemory bool
}

// Database combines the blob store holding canonical governance state with
// the metadata store holding identities and the governance archive
type Database struct {
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
	dataDir  string

	commitMu            sync.Mutex
	lastCommitTimestamp int64
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// nextCommitTimestamp returns a commit timestamp in milliseconds that is
// strictly greater than any previously issued by this database
func (d *Database) nextCommitTimestamp() int64 {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()
	ts := time.Now().UnixMilli()
	if ts <= d.lastCommitTimestamp {
		ts = d.lastCommitTimestamp + 1
	}
	d.lastCommitTimestamp = ts
	return ts
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

func (d *Database) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	// Commit timestamps continue after the last one written, even if the
	// wall clock has gone backwards since
	if ts, err := d.blob.GetCommitTimestamp(); err == nil {
		d.lastCommitTimestamp = ts
	}
	// Check commit timestamp
	if err := d.checkCommitTimestamp(); err != nil {
		return err
	}
	return nil
}

// New opens the configured blob and metadata plugins. When the stores
// disagree on the last commit the database is returned along with a
// CommitTimestampError so that it is available for recovery
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	blobPlugin := cfg.BlobPlugin
	if blobPlugin == "" {
		blobPlugin = DefaultBlobPlugin
	}
	metadataPlugin := cfg.MetadataPlugin
	if metadataPlugin == "" {
		metadataPlugin = DefaultMetadataPlugin
	}
	dataDir := cfg.DataDir
	if cfg.InMemory {
		dataDir = ""
	}
	if cfg.InMemory || cfg.DataDir != "" {
		for _, p := range []struct {
			pluginType plugin.PluginType
			name       string
		}{
			{plugin.PluginTypeBlob, blobPlugin},
			{plugin.PluginTypeMetadata, metadataPlugin},
		} {
			if err := plugin.SetPluginOption(p.pluginType, p.name, "data-dir", dataDir); err != nil {
				return nil, err
			}
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	metadataDb, err := metadata.New(metadataPlugin, logger, cfg.PromRegistry)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	blobDb, err := blob.New(blobPlugin, logger, cfg.PromRegistry)
	if err != nil {
		_ = metadataDb.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	db := &Database{
		logger:   logger.With("component", "database"),
		blob:     blobDb,
		metadata: metadataDb,
		dataDir:  dataDir,
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}
