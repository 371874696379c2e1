// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/kryptobaseddev/aris/pkg/types"
)

// loadEngineConfig builds the engine configuration: YAML config file if
// viper found one, defaults for everything unset, then the environment
// overrides viper exposes for the common knobs.
func loadEngineConfig() (types.EngineConfig, error) {
	var cfg types.EngineConfig

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if dir := viper.GetString("store.dir"); dir != "" {
		cfg.Store.Dir = dir
	}
	if email := viper.GetString("search.email"); email != "" {
		cfg.Search.Email = email
	}

	cfg.Normalize()
	if cfg.Search.Email == "" {
		cfg.Search.Email = loadedSecrets.Get("openalex-email", "")
	}
	return cfg, nil
}
