// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API credentials from a directory of plain-text
// files, with environment overrides. Each file in the directory is one
// secret: the filename is the key and the trimmed contents are the
// value. An ARIS_SECRET_* environment variable overrides the file of
// the same key, with underscores mapped to hyphens (ARIS_SECRET_ANTHROPIC_API_KEY
// overrides anthropic-api-key).
//
// Supported keys: anthropic-api-key, openalex-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// envPrefix marks environment variables that carry secret overrides.
const envPrefix = "ARIS_SECRET_"

// Store holds loaded secrets.
type Store map[string]string

// Get returns the secret for key, or fallback when the key is absent.
// A non-empty fallback always wins so explicit flags beat stored
// credentials.
func (s Store) Get(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return s[key]
}

// Load reads every file in dir and merges ARIS_SECRET_* environment
// variables over the result. A missing directory is not an error;
// unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (Store, error) {
	store := Store{}

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", entry.Name(), err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			store[entry.Name()] = value
		}
	}

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, envPrefix) {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, envPrefix), "_", "-"))
		if key == "" {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			store[key] = value
		}
	}

	return store, nil
}
