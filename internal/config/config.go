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
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/qvote/database/plugin"
	"github.com/blinklabs-io/qvote/governance"
)

type ctxKey string

const configContextKey ctxKey = "qvote.config"

const (
	EnvPrefix              = "qvote"
	DefaultEnvFile         = ".env"
	DefaultShutdownTimeout = "30s"
	DefaultTickLength      = "6s"
	DefaultBlobPlugin      = "badger"
	DefaultMetadataPlugin  = "sqlite"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config     yaml.Node                 `yaml:"config,omitempty"`
	Database   *databaseConfig           `yaml:"database,omitempty"`
	Governance yaml.Node                 `yaml:"governance,omitempty"`
	Blob       map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata   map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	DatabasePath      string   `yaml:"databasePath"      split_words:"true"`
	InMemory          bool     `yaml:"inMemory"          split_words:"true"`
	BlobPlugin        string   `yaml:"blobPlugin"        envconfig:"QVOTE_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin    string   `yaml:"metadataPlugin"    envconfig:"QVOTE_DATABASE_METADATA_PLUGIN"`
	BindAddr          string   `yaml:"bindAddr"          split_words:"true"`
	ApiPort           uint     `yaml:"apiPort"           split_words:"true"`
	ApiAllowedOrigins []string `yaml:"apiAllowedOrigins" split_words:"true"`
	MetricsPort       uint     `yaml:"metricsPort"       split_words:"true"`
	// RFC 3339 start of tick 0
	GenesisTime     string `yaml:"genesisTime"     split_words:"true"`
	TickLength      string `yaml:"tickLength"      split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout" split_words:"true"`
	Tracing         bool   `yaml:"tracing"`
	TracingStdout   bool   `yaml:"tracingStdout"   split_words:"true"`
	Debug           bool   `yaml:"debug"`

	Governance GovernanceConfig `yaml:"-"`
}

// GovernanceConfig is the governance: section of the config file
type GovernanceConfig struct {
	MaxProposalLength      uint32 `yaml:"maxProposalLength"      split_words:"true"`
	ProposalQueueSize      uint32 `yaml:"proposalQueueSize"      split_words:"true"`
	ProposalsPerReferendum uint32 `yaml:"proposalsPerReferendum" split_words:"true"`
	LaunchPeriod           uint64 `yaml:"launchPeriod"           split_words:"true"`
	VotingPeriod           uint64 `yaml:"votingPeriod"           split_words:"true"`
	MaxVotes               uint32 `yaml:"maxVotes"               split_words:"true"`
	// Accounts allowed to create identities. Anyone may when empty
	Registrars    []string                  `yaml:"registrars"`
	GenesisVoters []governance.GenesisVoter `yaml:"genesisVoters" ignored:"true"`
}

// Params returns the governance parameters described by the section
func (g GovernanceConfig) Params() governance.Params {
	return governance.Params{
		MaxProposalLength:      g.MaxProposalLength,
		ProposalQueueSize:      g.ProposalQueueSize,
		ProposalsPerReferendum: g.ProposalsPerReferendum,
		LaunchPeriod:           g.LaunchPeriod,
		VotingPeriod:           g.VotingPeriod,
		MaxVotes:               g.MaxVotes,
	}
}

// DefaultConfig returns a config populated with default values
func DefaultConfig() *Config {
	params := governance.DefaultParams()
	return &Config{
		DatabasePath:    ".qvote",
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		BindAddr:        "0.0.0.0",
		ApiPort:         8080,
		MetricsPort:     12799,
		TickLength:      DefaultTickLength,
		ShutdownTimeout: DefaultShutdownTimeout,
		Governance: GovernanceConfig{
			MaxProposalLength:      params.MaxProposalLength,
			ProposalQueueSize:      params.ProposalQueueSize,
			ProposalsPerReferendum: params.ProposalsPerReferendum,
			LaunchPeriod:           params.LaunchPeriod,
			VotingPeriod:           params.VotingPeriod,
			MaxVotes:               params.MaxVotes,
		},
	}
}

// LoadConfig builds the config from defaults, the YAML config file, the .env
// file and the environment, in increasing order of precedence
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := cfg.loadFile(configFile); err != nil {
			return nil, err
		}
	}
	// Values from .env never override variables that are already set
	if err := godotenv.Load(DefaultEnvFile); err != nil &&
		!errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading %s: %w", DefaultEnvFile, err)
	}
	// Process environment variables
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Process plugin environment variables
	if err := plugin.ProcessEnvVars(EnvPrefix); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile checks ~/.qvote/qvote.yaml and then /etc/qvote/qvote.yaml
func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".qvote", "qvote.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/qvote/qvote.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

func (c *Config) loadFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	// First unmarshal into temp config to handle the sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	// Decoding the raw sections onto the defaults only touches keys present
	// in the file. A zero Kind means the section is absent
	if tempCfg.Config.Kind != 0 {
		if err := tempCfg.Config.Decode(c); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	}
	if tempCfg.Governance.Kind != 0 {
		if err := tempCfg.Governance.Decode(&c.Governance); err != nil {
			return fmt.Errorf("error parsing governance section: %w", err)
		}
	}
	// Process plugin configurations
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			if name, ok := extractPluginName(tempCfg.Database.Blob); ok {
				c.BlobPlugin = name
			}
			mergePluginConfig(pluginConfig, "blob", tempCfg.Database.Blob)
		}
		if tempCfg.Database.Metadata != nil {
			if name, ok := extractPluginName(tempCfg.Database.Metadata); ok {
				c.MetadataPlugin = name
			}
			mergePluginConfig(pluginConfig, "metadata", tempCfg.Database.Metadata)
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// extractPluginName removes and returns the plugin key of a database
// subsection
func extractPluginName(section map[string]any) (string, bool) {
	val, exists := section["plugin"]
	if !exists {
		return "", false
	}
	name, ok := val.(string)
	if !ok {
		return "", false
	}
	delete(section, "plugin")
	return name, true
}

func mergePluginConfig(
	pluginConfig map[string]map[string]map[string]any,
	pluginType string,
	section map[string]any,
) {
	typeConfig := make(map[string]map[string]any)
	for k, v := range section {
		switch val := v.(type) {
		case map[string]any:
			typeConfig[k] = val
		case map[any]any:
			// Convert map[any]any to map[string]any
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			typeConfig[k] = stringAnyMap
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				pluginType,
				k,
				v,
			)
		}
	}
	// Merge with existing config instead of overwriting
	if pluginConfig[pluginType] == nil {
		pluginConfig[pluginType] = typeConfig
	} else {
		maps.Copy(pluginConfig[pluginType], typeConfig)
	}
}

// Validate checks values that cannot be checked by the parsers
func (c *Config) Validate() error {
	if _, err := c.ParsedTickLength(); err != nil {
		return err
	}
	if _, err := c.ParsedShutdownTimeout(); err != nil {
		return err
	}
	if _, err := c.ParsedGenesisTime(); err != nil {
		return err
	}
	if err := c.Governance.Params().Validate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) ParsedTickLength() (time.Duration, error) {
	d, err := time.ParseDuration(c.TickLength)
	if err != nil {
		return 0, fmt.Errorf("invalid tickLength %q: %w", c.TickLength, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid tickLength %q: must be positive", c.TickLength)
	}
	return d, nil
}

func (c *Config) ParsedShutdownTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf(
			"invalid shutdownTimeout %q: %w",
			c.ShutdownTimeout,
			err,
		)
	}
	return d, nil
}

// ParsedGenesisTime returns the configured genesis time, or the Unix epoch
// when none is set
func (c *Config) ParsedGenesisTime() (time.Time, error) {
	if c.GenesisTime == "" {
		return time.Unix(0, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, c.GenesisTime)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"invalid genesisTime %q: %w",
			c.GenesisTime,
			err,
		)
	}
	return t, nil
}

// ApiListenAddress returns the API listen address, or an empty string when
// the API is disabled
func (c *Config) ApiListenAddress() string {
	if c.ApiPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.BindAddr, c.ApiPort)
}
