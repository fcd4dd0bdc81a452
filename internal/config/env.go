package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by the provider resolver
const (
	ProviderEnv = "SHIPIT_PROVIDER"
	ModelEnv    = "SHIPIT_MODEL"
)

// dotenvFiles are read from the repository root, later files win
var dotenvFiles = []string{".env", ".env.local"}

// Env is an immutable snapshot of the environment a run sees.
// Business logic receives it explicitly instead of reading the process environment.
type Env map[string]string

// Lookup returns the value of key and whether it is present
func (e Env) Lookup(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e[key]
	return v, ok
}

// Get returns the value of key or "" when it is absent
func (e Env) Get(key string) string {
	v, _ := e.Lookup(key)
	return v
}

// IsSet reports whether key is present with a non-empty value
func (e Env) IsSet(key string) bool {
	return e.Get(key) != ""
}

// LoadEnv snapshots the process environment, layered over .env files found in dir.
// Process variables always take precedence over file values.
func LoadEnv(dir string) (Env, error) {
	env := Env{}

	for _, name := range dotenvFiles {
		path := filepath.Join(dir, name)
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for k, v := range values {
			env[k] = v
		}
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}

	return env, nil
}
