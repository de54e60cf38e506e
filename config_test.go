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

package qvote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/qvote/governance"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.NotNil(t, cfg.logger)
	assert.Equal(t, governance.DefaultParams(), cfg.params)
	assert.Equal(t, DefaultTickLength, cfg.tickLength)
	assert.Equal(t, DefaultShutdownTimeout, cfg.shutdownTimeout)
	assert.Empty(t, cfg.apiListenAddress)
}

func TestConfigOptions(t *testing.T) {
	genesis := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	params := governance.DefaultParams()
	params.MaxVotes = 5
	cfg := NewConfig(
		WithDatabasePath("/tmp/qvote"),
		WithInMemory(true),
		WithBlobPlugin("badger"),
		WithMetadataPlugin("postgres"),
		WithGovernanceParams(params),
		WithGenesisVoters(governance.GenesisVoter{Account: "alice"}),
		WithRegistrars("root"),
		WithGenesisTime(genesis),
		WithTickLength(time.Second),
		WithApiListenAddress(":9000"),
		WithApiAllowedOrigins("https://example.org"),
		WithTracing(true),
		WithTracingStdout(true),
		WithShutdownTimeout(time.Minute),
	)
	assert.Equal(t, "/tmp/qvote", cfg.dataDir)
	assert.True(t, cfg.inMemory)
	assert.Equal(t, "badger", cfg.blobPlugin)
	assert.Equal(t, "postgres", cfg.metadataPlugin)
	assert.Equal(t, uint32(5), cfg.params.MaxVotes)
	assert.Len(t, cfg.genesisVoters, 1)
	assert.Equal(t, []string{"root"}, cfg.registrars)
	assert.Equal(t, genesis, cfg.genesisTime)
	assert.Equal(t, time.Second, cfg.tickLength)
	assert.Equal(t, ":9000", cfg.apiListenAddress)
	assert.Equal(t, []string{"https://example.org"}, cfg.apiAllowedOrigins)
	assert.True(t, cfg.tracing)
	assert.True(t, cfg.tracingStdout)
	assert.Equal(t, time.Minute, cfg.shutdownTimeout)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	badParams := governance.DefaultParams()
	badParams.ProposalsPerReferendum = 0
	testDefs := []struct {
		name string
		opts []ConfigOptionFunc
	}{
		{"bad params", []ConfigOptionFunc{WithGovernanceParams(badParams)}},
		{"zero tick length", []ConfigOptionFunc{WithTickLength(0)}},
		{
			"empty genesis voter",
			[]ConfigOptionFunc{WithGenesisVoters(governance.GenesisVoter{})},
		},
		{
			"duplicate genesis voter",
			[]ConfigOptionFunc{WithGenesisVoters(
				governance.GenesisVoter{Account: "alice"},
				governance.GenesisVoter{Account: "alice"},
			)},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			n, err := New(NewConfig(testDef.opts...))
			require.Error(t, err)
			assert.Nil(t, n)
		})
	}
}
