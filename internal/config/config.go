// Copyright (c) 2026 John Earle
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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RewriteConfig holds settings for the tone-rewrite backend.
type RewriteConfig struct {
	APIKey  string        // bearer key for the completions API
	BaseURL string        // API base URL
	Model   string        // model identifier recorded in feedback metadata
	Timeout time.Duration // per-call deadline
}

// Config holds all configuration for the inbound pipeline service.
type Config struct {
	// Postgres
	DatabaseURL string

	// Redis
	RedisURL     string
	ForwardQueue string

	// Rewrite backend
	Rewrite RewriteConfig

	// TransformerURL is where the forwarding worker delivers envelopes.
	// Defaults to this process's own /transform endpoint.
	TransformerURL string

	// Workers is the number of forwarding workers draining the queue.
	Workers int

	// Server
	Port int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL    string `yaml:"url"`
		Queues struct {
			Forward string `yaml:"forward"`
		} `yaml:"queues"`
	} `yaml:"redis"`
	Rewrite struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"rewrite"`
	Transformer struct {
		URL string `yaml:"url"`
	} `yaml:"transformer"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings. The YAML file is optional;
// every setting has an environment fallback.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "/app/config/config.yaml")

	var raw rawConfig
	if data, err := os.ReadFile(configPath); err == nil {
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	port := envOrDefaultInt("PORT", 8080)

	cfg := &Config{
		DatabaseURL:  firstNonEmpty(raw.Database.URL, os.Getenv("DATABASE_URL")),
		RedisURL:     firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		ForwardQueue: firstNonEmpty(raw.Redis.Queues.Forward, envOrDefault("FORWARD_QUEUE", "feedback:forward")),
		Rewrite: RewriteConfig{
			APIKey:  firstNonEmpty(raw.Rewrite.APIKey, os.Getenv("OPENAI_API_KEY")),
			BaseURL: firstNonEmpty(raw.Rewrite.BaseURL, envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")),
			Model:   firstNonEmpty(raw.Rewrite.Model, envOrDefault("REWRITE_MODEL", "gpt-4o-mini")),
			Timeout: envOrDefaultDuration("REWRITE_TIMEOUT", 30*time.Second),
		},
		TransformerURL: firstNonEmpty(
			raw.Transformer.URL,
			envOrDefault("TRANSFORMER_URL", fmt.Sprintf("http://localhost:%d/transform", port)),
		),
		Workers: envOrDefaultInt("FORWARD_WORKERS", 2),
		Port:    port,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required — set it in the environment or config.yaml")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
