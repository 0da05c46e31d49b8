/**
 * Copyright (c) 2024 Peking University and Peking University
 * Changsha Institute for Computing and Digital Economy
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package util

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	// Minimum driver major version accepted before any operation.
	MinDriverVersion int `mapstructure:"MinDriverVersion" yaml:"MinDriverVersion"`

	// Architectures on which mutating operations are allowed. Info works
	// everywhere.
	AllowedArchitectures []string `mapstructure:"AllowedArchitectures" yaml:"AllowedArchitectures"`

	History HistoryConfig `mapstructure:"History" yaml:"History"`
}

type HistoryConfig struct {
	// "none", "sqlite" or "influxdb".
	Type     string          `mapstructure:"Type" yaml:"Type"`
	SQLite   *SQLiteConfig   `mapstructure:"Sqlite" yaml:"Sqlite,omitempty"`
	InfluxDB *InfluxDBConfig `mapstructure:"Influxdb" yaml:"Influxdb,omitempty"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"Path" yaml:"Path"`
}

type InfluxDBConfig struct {
	URL         string `mapstructure:"Url" yaml:"Url"`
	Token       string `mapstructure:"Token" yaml:"Token"`
	Org         string `mapstructure:"Org" yaml:"Org"`
	Bucket      string `mapstructure:"Bucket" yaml:"Bucket"`
	Measurement string `mapstructure:"Measurement" yaml:"Measurement"`
}

func DefaultConfig() *Config {
	return &Config{
		MinDriverVersion:     550,
		AllowedArchitectures: []string{"Blackwell"},
		History:              HistoryConfig{Type: "none"},
	}
}

// ParseConfig loads path, fills defaults and validates. A missing file at the
// default path is not an error: the tool runs with built-in defaults unless
// the operator pointed at a config explicitly.
func ParseConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if path == DefaultConfigPath {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("config file %s does not exist", path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.MinDriverVersion <= 0 {
		cfg.MinDriverVersion = DefaultConfig().MinDriverVersion
	}
	if len(cfg.AllowedArchitectures) == 0 {
		cfg.AllowedArchitectures = DefaultConfig().AllowedArchitectures
	}

	switch cfg.History.Type {
	case "", "none":
		cfg.History.Type = "none"
	case "sqlite":
		if cfg.History.SQLite == nil || cfg.History.SQLite.Path == "" {
			return fmt.Errorf("sqlite history requires History.Sqlite.Path")
		}
	case "influxdb":
		db := cfg.History.InfluxDB
		if db == nil {
			return fmt.Errorf("influxdb history requires a History.Influxdb section")
		}
		if db.URL == "" || db.Token == "" || db.Org == "" || db.Bucket == "" {
			return fmt.Errorf("incomplete influxdb configuration")
		}
		if db.Measurement == "" {
			db.Measurement = "NvocOperations"
		}
	default:
		return fmt.Errorf("unsupported history type: %s", cfg.History.Type)
	}

	return nil
}
