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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/qvote/governance"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qvote.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfigFile(t, "config: {}\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, governance.DefaultParams(), cfg.Governance.Params())
	assert.Equal(t, "0.0.0.0:8080", cfg.ApiListenAddress())
}

func TestLoadConfigSectionsOverlayDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfigFile(t, `
config:
  databasePath: /var/lib/qvote
  apiPort: 9000
  tickLength: 2s
  genesisTime: "2026-01-01T00:00:00Z"
governance:
  maxVotes: 20
  launchPeriod: 30
  registrars:
    - root
  genesisVoters:
    - account: alice
      name: Alice
    - account: bob
database:
  blob:
    plugin: badger
  metadata:
    plugin: sqlite
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/qvote", cfg.DatabasePath)
	assert.Equal(t, uint(9000), cfg.ApiPort)
	// Keys missing from the file keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.BindAddr)
	assert.Equal(t, uint(12799), cfg.MetricsPort)

	tickLength, err := cfg.ParsedTickLength()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, tickLength)
	genesis, err := cfg.ParsedGenesisTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), genesis)

	params := cfg.Governance.Params()
	assert.Equal(t, uint32(20), params.MaxVotes)
	assert.Equal(t, uint64(30), params.LaunchPeriod)
	assert.Equal(t, governance.DefaultParams().VotingPeriod, params.VotingPeriod)
	assert.Equal(t, []string{"root"}, cfg.Governance.Registrars)
	assert.Equal(
		t,
		[]governance.GenesisVoter{
			{Account: "alice", Name: "Alice"},
			{Account: "bob"},
		},
		cfg.Governance.GenesisVoters,
	)
}

func TestLoadConfigSingleSection(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig(writeConfigFile(t, "governance:\n  votingPeriod: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), cfg.Governance.VotingPeriod)
	assert.Equal(t, uint(8080), cfg.ApiPort)

	cfg, err = LoadConfig(writeConfigFile(t, "config:\n  apiPort: 9001\n"))
	require.NoError(t, err)
	assert.Equal(t, uint(9001), cfg.ApiPort)
	assert.Equal(t, governance.DefaultParams(), cfg.Governance.Params())
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfigFile(t, "config:\n  apiPort: 9000\n")
	t.Setenv("QVOTE_API_PORT", "9100")
	t.Setenv("QVOTE_GOVERNANCE_MAX_VOTES", "7")
	t.Setenv("QVOTE_DATABASE_METADATA_PLUGIN", "postgres")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint(9100), cfg.ApiPort)
	assert.Equal(t, uint32(7), cfg.Governance.MaxVotes)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(
		t,
		os.WriteFile(
			filepath.Join(dir, DefaultEnvFile),
			[]byte("QVOTE_TICK_LENGTH=500ms\n"),
			0o600,
		),
	)
	t.Cleanup(func() { _ = os.Unsetenv("QVOTE_TICK_LENGTH") })
	cfg, err := LoadConfig(writeConfigFile(t, "config: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "500ms", cfg.TickLength)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	testDefs := []struct {
		name    string
		content string
	}{
		{"bad tick length", "config:\n  tickLength: soon\n"},
		{"negative tick length", "config:\n  tickLength: -1s\n"},
		{"bad genesis", "config:\n  genesisTime: yesterday\n"},
		{"bad params", "governance:\n  proposalsPerReferendum: 0\n"},
		{"bad yaml", "config: [\n"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, testDef.content))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestApiDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApiPort = 0
	assert.Empty(t, cfg.ApiListenAddress())
}

func TestContextRoundTrip(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
