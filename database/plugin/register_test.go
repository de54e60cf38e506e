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

package plugin_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/qvote/database/plugin"
)

type mockPlugin struct{}

func (m *mockPlugin) Start() error { return nil }
func (m *mockPlugin) Stop() error  { return nil }

type mockOptions struct {
	path    string
	enabled bool
	workers int
	size    uint64
}

func registerMockPlugin(t *testing.T, opts *mockOptions) string {
	t.Helper()
	name := "mock-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               name,
		Description:        "test plugin",
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "path",
				Type:         plugin.PluginOptionTypeString,
				DefaultValue: "default",
				Dest:         &opts.path,
			},
			{
				Name:         "enabled",
				Type:         plugin.PluginOptionTypeBool,
				DefaultValue: false,
				Dest:         &opts.enabled,
			},
			{
				Name:         "workers",
				Type:         plugin.PluginOptionTypeInt,
				DefaultValue: 2,
				Dest:         &opts.workers,
			},
			{
				Name:         "size",
				Type:         plugin.PluginOptionTypeUint,
				DefaultValue: uint64(64),
				Dest:         &opts.size,
			},
		},
	})
	return name
}

func TestRegisterAndGetPlugin(t *testing.T) {
	name := registerMockPlugin(t, &mockOptions{})

	p := plugin.GetPlugin(plugin.PluginTypeBlob, name)
	require.NotNil(t, p)
	_, ok := p.(*mockPlugin)
	assert.True(t, ok, "expected *mockPlugin, got %T", p)

	// Same name under a different type is a different plugin
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeMetadata, name))

	found := false
	for _, entry := range plugin.GetPlugins(plugin.PluginTypeBlob) {
		if entry.Name == name {
			found = true
		}
	}
	assert.True(t, found, "plugin not in GetPlugins list")
}

func TestStartPluginNotFound(t *testing.T) {
	_, err := plugin.StartPlugin(plugin.PluginTypeBlob, "does-not-exist", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPopulateCmdlineOptions(t *testing.T) {
	opts := &mockOptions{}
	name := registerMockPlugin(t, opts)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))

	// Defaults are applied when flags are registered
	assert.Equal(t, "default", opts.path)
	assert.Equal(t, 2, opts.workers)
	assert.Equal(t, uint64(64), opts.size)

	prefix := "blob-" + name + "-"
	require.NoError(t, fs.Parse([]string{
		"--" + prefix + "path=/srv/data",
		"--" + prefix + "enabled",
		"--" + prefix + "workers=8",
		"--" + prefix + "size=4096",
	}))
	assert.Equal(t, "/srv/data", opts.path)
	assert.True(t, opts.enabled)
	assert.Equal(t, 8, opts.workers)
	assert.Equal(t, uint64(4096), opts.size)
}

func TestProcessEnvVars(t *testing.T) {
	opts := &mockOptions{}
	registerMockPlugin(t, opts)
	// The env var name is derived from the upper-cased plugin name
	t.Setenv("QVOTETEST_BLOB_MOCK_TESTPROCESSENVVARS_PATH", "/from/env")
	t.Setenv("QVOTETEST_BLOB_MOCK_TESTPROCESSENVVARS_SIZE", "123")
	require.NoError(t, plugin.ProcessEnvVars("qvotetest"))
	assert.Equal(t, "/from/env", opts.path)
	assert.Equal(t, uint64(123), opts.size)

	t.Setenv("QVOTETEST_BLOB_MOCK_TESTPROCESSENVVARS_ENABLED", "maybe")
	assert.Error(t, plugin.ProcessEnvVars("qvotetest"))
}

func TestProcessConfig(t *testing.T) {
	opts := &mockOptions{}
	name := registerMockPlugin(t, opts)
	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"blob": {
			name: {
				"path":    "/from/config",
				"enabled": true,
				"workers": 4,
				"size":    2048,
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/from/config", opts.path)
	assert.True(t, opts.enabled)
	assert.Equal(t, 4, opts.workers)
	assert.Equal(t, uint64(2048), opts.size)

	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"blob": {name: {"size": -1}},
	})
	assert.Error(t, err)
}
