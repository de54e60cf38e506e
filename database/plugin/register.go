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

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota + 1
	PluginTypeMetadata
)

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

type PluginEntry struct {
	Type               PluginType
	Name               string
	Description        string
	NewFromOptionsFunc func() Plugin
	Options            []PluginOption
}

var pluginEntries []PluginEntry

// Register adds a plugin entry to the registry. It is meant to be called from
// the init() function of each plugin package
func Register(pluginEntry PluginEntry) {
	pluginEntries = append(pluginEntries, pluginEntry)
}

// GetPlugins returns all registered plugins of the given type
func GetPlugins(pluginType PluginType) []PluginEntry {
	ret := []PluginEntry{}
	for _, entry := range pluginEntries {
		if entry.Type == pluginType {
			ret = append(ret, entry)
		}
	}
	return ret
}

// GetPlugin creates a new instance of the named plugin from its current
// option values. It returns nil if no such plugin is registered
func GetPlugin(pluginType PluginType, name string) Plugin {
	for _, entry := range pluginEntries {
		if entry.Type == pluginType && entry.Name == name {
			return entry.NewFromOptionsFunc()
		}
	}
	return nil
}

// PopulateCmdlineOptions adds command line flags for all registered plugin
// options to the provided flagset. Flags are named
// <type>-<plugin>-<option>, for example "blob-badger-data-dir"
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	for _, entry := range pluginEntries {
		for _, option := range entry.Options {
			flagName := fmt.Sprintf(
				"%s-%s-%s",
				PluginTypeName(entry.Type),
				entry.Name,
				option.Name,
			)
			if err := option.AddToFlagSet(fs, flagName); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessEnvVars applies option values from environment variables. Variables
// are named <PREFIX>_<TYPE>_<PLUGIN>_<OPTION> in upper case with dashes
// replaced by underscores, for example QVOTE_BLOB_BADGER_DATA_DIR
func ProcessEnvVars(prefix string) error {
	for _, entry := range pluginEntries {
		for _, option := range entry.Options {
			envName := envVarName(
				prefix,
				PluginTypeName(entry.Type),
				entry.Name,
				option.Name,
			)
			val, ok := os.LookupEnv(envName)
			if !ok {
				continue
			}
			if err := option.ProcessEnvVar(val); err != nil {
				return fmt.Errorf("environment variable %s: %w", envName, err)
			}
		}
	}
	return nil
}

// ProcessConfig applies option values from a config file section. The data
// is keyed by plugin type, then plugin name, then option name
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for _, entry := range pluginEntries {
		typeData, ok := pluginConfig[PluginTypeName(entry.Type)]
		if !ok {
			continue
		}
		pluginData, ok := typeData[entry.Name]
		if !ok {
			continue
		}
		for _, option := range entry.Options {
			val, ok := pluginData[option.Name]
			if !ok {
				continue
			}
			if err := option.ProcessConfig(val); err != nil {
				return fmt.Errorf(
					"%s plugin '%s' option '%s': %w",
					PluginTypeName(entry.Type),
					entry.Name,
					option.Name,
					err,
				)
			}
		}
	}
	return nil
}

func envVarName(parts ...string) string {
	ret := strings.Join(parts, "_")
	ret = strings.ReplaceAll(ret, "-", "_")
	return strings.ToUpper(ret)
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

type PluginOption struct {
	Name         string
	Type         PluginOptionType
	Description  string
	DefaultValue any
	Dest         any
}

func (p *PluginOption) AddToFlagSet(fs *pflag.FlagSet, flagName string) error {
	switch p.Type {
	case PluginOptionTypeString:
		dest, ok := p.Dest.(*string)
		if !ok {
			return p.destTypeError("*string")
		}
		def, _ := p.DefaultValue.(string)
		fs.StringVar(dest, flagName, def, p.Description)
	case PluginOptionTypeBool:
		dest, ok := p.Dest.(*bool)
		if !ok {
			return p.destTypeError("*bool")
		}
		def, _ := p.DefaultValue.(bool)
		fs.BoolVar(dest, flagName, def, p.Description)
	case PluginOptionTypeInt:
		dest, ok := p.Dest.(*int)
		if !ok {
			return p.destTypeError("*int")
		}
		def, _ := p.DefaultValue.(int)
		fs.IntVar(dest, flagName, def, p.Description)
	case PluginOptionTypeUint:
		dest, ok := p.Dest.(*uint64)
		if !ok {
			return p.destTypeError("*uint64")
		}
		def, _ := p.DefaultValue.(uint64)
		fs.Uint64Var(dest, flagName, def, p.Description)
	default:
		return fmt.Errorf(
			"unknown plugin option type %d for option %s",
			p.Type,
			p.Name,
		)
	}
	return nil
}

func (p *PluginOption) ProcessEnvVar(value string) error {
	switch p.Type {
	case PluginOptionTypeString:
		return p.assign(value)
	case PluginOptionTypeBool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		return p.assign(v)
	case PluginOptionTypeInt:
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		return p.assign(v)
	case PluginOptionTypeUint:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		return p.assign(v)
	default:
		return fmt.Errorf(
			"unknown plugin option type %d for option %s",
			p.Type,
			p.Name,
		)
	}
}

// ProcessConfig assigns a value decoded from YAML. Numbers from YAML arrive
// as int, so they are converted to the option's type
func (p *PluginOption) ProcessConfig(value any) error {
	switch p.Type {
	case PluginOptionTypeUint:
		switch v := value.(type) {
		case int:
			if v < 0 {
				return fmt.Errorf("invalid value for option %s: negative int", p.Name)
			}
			return p.assign(uint64(v))
		case uint64:
			return p.assign(v)
		}
	case PluginOptionTypeInt:
		if v, ok := value.(int); ok {
			return p.assign(v)
		}
	case PluginOptionTypeString:
		if v, ok := value.(string); ok {
			return p.assign(v)
		}
	case PluginOptionTypeBool:
		if v, ok := value.(bool); ok {
			return p.assign(v)
		}
	}
	return fmt.Errorf("invalid type %T for option %s", value, p.Name)
}

func (p *PluginOption) assign(value any) error {
	switch p.Type {
	case PluginOptionTypeString:
		return assignTyped[string](p, value, "string")
	case PluginOptionTypeBool:
		return assignTyped[bool](p, value, "bool")
	case PluginOptionTypeInt:
		return assignTyped[int](p, value, "int")
	case PluginOptionTypeUint:
		if v, ok := value.(int); ok {
			if v < 0 {
				return fmt.Errorf("invalid value for option %s: negative int", p.Name)
			}
			value = uint64(v)
		}
		return assignTyped[uint64](p, value, "uint64")
	default:
		return fmt.Errorf(
			"unknown plugin option type %d for option %s",
			p.Type,
			p.Name,
		)
	}
}

func assignTyped[T any](p *PluginOption, value any, typeName string) error {
	v, ok := value.(T)
	if !ok {
		return fmt.Errorf(
			"invalid type for option %s: expected %s",
			p.Name,
			typeName,
		)
	}
	if p.Dest == nil {
		return fmt.Errorf("nil destination for option %s", p.Name)
	}
	dest, ok := p.Dest.(*T)
	if !ok {
		return p.destTypeError("*" + typeName)
	}
	if dest == nil {
		return fmt.Errorf("nil destination pointer for option %s", p.Name)
	}
	*dest = v
	return nil
}

func (p *PluginOption) destTypeError(expected string) error {
	return fmt.Errorf(
		"invalid destination type for option %s: expected %s",
		p.Name,
		expected,
	)
}
