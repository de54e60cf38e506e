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
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type PostgresOptionFunc func(*MetadataStorePostgres)

// Connection describes the server the metadata store connects to. Empty
// fields take the defaults of NewWithOptions
type Connection struct {
	Host     string
	Port     uint
	User     string
	Password string
	Database string
	SSLMode  string
	TimeZone string
}

func WithLogger(logger *slog.Logger) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.logger = logger
	}
}

func WithPromRegistry(
	registry prometheus.Registerer,
) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.promRegistry = registry
	}
}

// WithConnection sets the server and credentials used to build the DSN
func WithConnection(conn Connection) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn = conn
	}
}

// WithSchema keeps the governance archive in its own schema, which is
// created on start. Ignored when a full DSN is given
func WithSchema(schema string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.schema = schema
	}
}

// WithDSN specifies a full connection string. It takes precedence over the
// connection and schema options
func WithDSN(dsn string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.dsn = dsn
	}
}

// WithMaxOpenConns limits the size of the connection pool
func WithMaxOpenConns(count int) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.maxOpenConns = count
	}
}
