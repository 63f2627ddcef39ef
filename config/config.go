// Copyright 2025 Weftworks
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

// Package config loads the application configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5m".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the full application configuration.
type Config struct {
	// DataDir is where the database files live.
	DataDir string `yaml:"data_dir"`

	AI        AIConfig        `yaml:"ai"`
	Inference InferenceConfig `yaml:"inference"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// AIConfig configures the AI service endpoints and models.
type AIConfig struct {
	EmbeddingHost     string  `yaml:"embedding_host"`
	ChatHost          string  `yaml:"chat_host"`
	EmbeddingModel    string  `yaml:"embedding_model"`
	ChatModel         string  `yaml:"chat_model"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	RequestBurst      int     `yaml:"request_burst"`
}

// InferenceConfig configures relationship inference.
type InferenceConfig struct {
	// NeighborCount is how many nearest neighbors are judged per item.
	NeighborCount int `yaml:"neighbor_count"`

	// MinConfidence discards judgments below this threshold.
	MinConfidence float64 `yaml:"min_confidence"`

	// ClassifyTimeout bounds each classifier call.
	ClassifyTimeout Duration `yaml:"classify_timeout"`
}

// IngestConfig configures the ingestion path.
type IngestConfig struct {
	// AsyncDispatch runs post-ingest analysis on a worker pool of this
	// size. Zero means inline dispatch.
	AsyncDispatch int `yaml:"async_dispatch"`

	// ValueScoring enables content value scoring during enrichment.
	ValueScoring bool `yaml:"value_scoring"`
}

// SchedulerConfig configures source polling.
type SchedulerConfig struct {
	// Interval between polling rounds.
	Interval Duration `yaml:"interval"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir: "./data",
		AI: AIConfig{
			EmbeddingHost:     "http://localhost:11434/v1",
			ChatHost:          "http://localhost:11434/v1",
			EmbeddingModel:    "embeddinggemma",
			ChatModel:         "qwen2.5:3b",
			RequestsPerSecond: 4,
			RequestBurst:      2,
		},
		Inference: InferenceConfig{
			NeighborCount:   10,
			MinConfidence:   0,
			ClassifyTimeout: Duration(30 * time.Second),
		},
		Scheduler: SchedulerConfig{
			Interval: Duration(15 * time.Minute),
		},
	}
}

// Load reads configuration from a YAML file, filling unset fields with
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: data_dir is required")
	}
	if c.AI.EmbeddingModel == "" || c.AI.ChatModel == "" {
		return errors.New("config: ai models are required")
	}
	if c.Inference.NeighborCount < 1 {
		return errors.New("config: inference.neighbor_count must be at least 1")
	}
	if c.Inference.MinConfidence < 0 || c.Inference.MinConfidence > 1 {
		return errors.New("config: inference.min_confidence must be in [0, 1]")
	}
	if c.Inference.ClassifyTimeout <= 0 {
		return errors.New("config: inference.classify_timeout must be positive")
	}
	if c.Scheduler.Interval <= 0 {
		return errors.New("config: scheduler.interval must be positive")
	}
	if c.Ingest.AsyncDispatch < 0 {
		return errors.New("config: ingest.async_dispatch must not be negative")
	}
	return nil
}
