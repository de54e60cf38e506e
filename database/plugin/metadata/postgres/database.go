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

package postgres

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/blinklabs-io/qvote/database/plugin/metadata/internal/gormstore"
)

const (
	defaultMaxIdleConns = 10
	defaultMaxOpenConns = 50
)

var schemaNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

var ErrInvalidSchema = errors.New("invalid postgres schema name")

// MetadataStorePostgres stores metadata in Postgres
type MetadataStorePostgres struct {
	*gormstore.Store

	promRegistry prometheus.Registerer
	logger       *slog.Logger

	conn         Connection
	schema       string
	dsn          string // Data source name (postgres connection string)
	maxOpenConns int
}

// NewWithOptions creates a new Postgres metadata store. The connection is
// established by Start
func NewWithOptions(opts ...PostgresOptionFunc) *MetadataStorePostgres {
	db := &MetadataStorePostgres{}
	for _, opt := range opts {
		opt(db)
	}
	db.conn = db.conn.withDefaults()
	if db.maxOpenConns <= 0 {
		db.maxOpenConns = defaultMaxOpenConns
	}
	return db
}

func (c Connection) withDefaults() Connection {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.User == "" {
		c.User = "postgres"
	}
	if c.Database == "" {
		c.Database = "postgres"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.TimeZone == "" {
		c.TimeZone = "UTC"
	}
	return c
}

// SetInstrumentation implements the plugin.Instrumented interface
func (d *MetadataStorePostgres) SetInstrumentation(
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) {
	d.logger = logger
	d.promRegistry = promRegistry
}

// DSN returns the connection string used by Start
func (d *MetadataStorePostgres) DSN() string {
	if dsn := strings.TrimSpace(d.dsn); dsn != "" {
		return dsn
	}
	parts := []string{
		"host=" + d.conn.Host,
		"user=" + d.conn.User,
		"password=" + d.conn.Password,
		"dbname=" + d.conn.Database,
		"port=" + strconv.FormatUint(uint64(d.conn.Port), 10),
		"sslmode=" + d.conn.SSLMode,
		"TimeZone=" + d.conn.TimeZone,
	}
	if d.schema != "" {
		parts = append(parts, "search_path="+d.schema)
	}
	return strings.Join(parts, " ")
}

// Start implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Start() error {
	if d.Store != nil {
		return nil
	}
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	useSchema := d.schema != "" && strings.TrimSpace(d.dsn) == ""
	if useSchema && !schemaNamePattern.MatchString(d.schema) {
		return fmt.Errorf("%w: %q", ErrInvalidSchema, d.schema)
	}
	metadataDb, err := gorm.Open(
		postgres.Open(d.DSN()),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
		},
	)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	d.logger.Info(
		"connected to postgres metadata store",
		"component", "database",
		"host", d.conn.Host,
		"port", d.conn.Port,
		"database", d.conn.Database,
		"schema", d.schema,
	)
	sqlDB, err := metadataDb.DB()
	if err != nil {
		return err
	}
	if useSchema {
		// The name is validated above and cannot be passed as a parameter
		if err := metadataDb.Exec("CREATE SCHEMA IF NOT EXISTS " + d.schema).Error; err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("create schema %s: %w", d.schema, err)
		}
	}
	sqlDB.SetMaxIdleConns(defaultMaxIdleConns)
	sqlDB.SetMaxOpenConns(d.maxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	store, err := gormstore.New(metadataDb, d.logger)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	d.Store = store
	if d.promRegistry != nil {
		d.promRegistry.MustRegister(
			collectors.NewDBStatsCollector(sqlDB, "metadata_postgres"),
		)
	}
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Stop() error {
	return d.Close()
}

// Close closes the connection pool. It is safe to call when Start failed or
// was never called
func (d *MetadataStorePostgres) Close() error {
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
