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

package node

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/qvote/governance"
	"github.com/blinklabs-io/qvote/internal/config"
)

func TestNewNodeFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.InMemory = true
	cfg.ApiPort = 0
	cfg.GenesisTime = time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	cfg.Governance.GenesisVoters = []governance.GenesisVoter{{Account: "alice"}}
	reg := prometheus.NewRegistry()

	n, err := NewNode(cfg, slog.New(slog.DiscardHandler), reg)
	require.NoError(t, err)

	runErr := make(chan error, 1)
	go func() {
		runErr <- n.Run()
	}()
	select {
	case <-n.Ready():
	case err := <-runErr:
		t.Fatalf("node failed to start: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for node")
	}
	points, err := n.Engine().VoterPoints(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, cfg.Governance.Params().InitialPoints(), points)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	assert.Contains(t, names, "governance_voters_registered_total")

	require.NoError(t, n.Stop())
	require.NoError(t, <-runErr)
}

func TestNewNodeRejectsBadDurations(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TickLength = "never"
	_, err := NewNode(cfg, slog.New(slog.DiscardHandler), nil)
	require.Error(t, err)

	cfg = config.DefaultConfig()
	cfg.ShutdownTimeout = "later"
	_, err = NewNode(cfg, slog.New(slog.DiscardHandler), nil)
	require.Error(t, err)
}
