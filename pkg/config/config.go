// Copyright 2025 walteh LLC
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
	"os"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📦 StoreArgs represents the remote store connection settings
type StoreArgs struct {
	URL      string `json:"url" yaml:"url"`                             // Base URL of the remote store API
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`     // Static auth token (preferred over login)
	Username string `json:"username,omitempty" yaml:"username,omitempty"` // Login username (used when no token)
	Password string `json:"password,omitempty" yaml:"password,omitempty"` // Login password (used when no token)
}

// ⏱️ ReadinessArgs tunes the size-stability detector
type ReadinessArgs struct {
	CheckIntervalSeconds int `json:"check_interval,omitempty" yaml:"check_interval,omitempty"` // Seconds between samples
	WaitBudgetSeconds    int `json:"wait_budget,omitempty" yaml:"wait_budget,omitempty"`       // Total seconds before giving up
	StableSamples        int `json:"stable_samples,omitempty" yaml:"stable_samples,omitempty"` // Consecutive equal-size samples required
}

// ⏱️ ConfirmArgs tunes the copy/delete confirmation polls
type ConfirmArgs struct {
	IntervalSeconds int `json:"interval,omitempty" yaml:"interval,omitempty"`               // Seconds between confirmation polls
	CopyAttempts    int `json:"copy_attempts,omitempty" yaml:"copy_attempts,omitempty"`     // Max polls waiting for the copy to land
	DeleteAttempts  int `json:"delete_attempts,omitempty" yaml:"delete_attempts,omitempty"` // Max polls waiting for the delete to land
}

// 🔧 MonitorArgs represents the monitoring loop configuration
type MonitorArgs struct {
	SourcePath           string        `json:"source_path" yaml:"source_path"`                                 // Remote directory to watch
	DestPath             string        `json:"dest_path" yaml:"dest_path"`                                     // Remote directory to copy into
	CheckIntervalSeconds int           `json:"check_interval" yaml:"check_interval"`                           // Seconds between source listings
	DeleteSource         *bool         `json:"delete_source,omitempty" yaml:"delete_source,omitempty"`         // Delete the source copy after a confirmed copy (default true)
	IgnorePatterns       []string      `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty"`     // Glob patterns for filenames to skip
	Readiness            ReadinessArgs `json:"readiness,omitempty" yaml:"readiness,omitempty"`
	Confirm              ConfirmArgs   `json:"confirm,omitempty" yaml:"confirm,omitempty"`
}

// 📣 NotificationArgs represents the webhook side-channel configuration
type NotificationArgs struct {
	DiscordWebhook string `json:"discord_webhook,omitempty" yaml:"discord_webhook,omitempty"` // Webhook URL; empty disables notifications
	NotifyOnCopy   *bool  `json:"notify_on_copy,omitempty" yaml:"notify_on_copy,omitempty"`   // Default true
	NotifyOnDelete *bool  `json:"notify_on_delete,omitempty" yaml:"notify_on_delete,omitempty"` // Default true
	NotifyOnError  *bool  `json:"notify_on_error,omitempty" yaml:"notify_on_error,omitempty"` // Default true
}

// 📚 Config represents the complete configuration
type Config struct {
	Store        StoreArgs        `json:"store" yaml:"store"`
	Monitor      MonitorArgs      `json:"monitor" yaml:"monitor"`
	Notification NotificationArgs `json:"notification,omitempty" yaml:"notification,omitempty"`
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// ✅ Validate checks required fields and fills defaults
func (c *Config) Validate() error {
	if c.Store.URL == "" {
		return errors.New("store.url is required")
	}
	if c.Store.Token == "" && (c.Store.Username == "" || c.Store.Password == "") {
		return errors.New("store requires either a token or both username and password")
	}
	if c.Monitor.SourcePath == "" {
		return errors.New("monitor.source_path is required")
	}
	if c.Monitor.DestPath == "" {
		return errors.New("monitor.dest_path is required")
	}
	if c.Monitor.CheckIntervalSeconds <= 0 {
		return errors.New("monitor.check_interval must be a positive number of seconds")
	}

	// Defaults for the readiness detector
	if c.Monitor.Readiness.CheckIntervalSeconds == 0 {
		c.Monitor.Readiness.CheckIntervalSeconds = 5
	}
	if c.Monitor.Readiness.WaitBudgetSeconds == 0 {
		c.Monitor.Readiness.WaitBudgetSeconds = 60
	}
	if c.Monitor.Readiness.StableSamples == 0 {
		c.Monitor.Readiness.StableSamples = 3
	}
	if c.Monitor.Readiness.CheckIntervalSeconds < 0 || c.Monitor.Readiness.WaitBudgetSeconds < 0 || c.Monitor.Readiness.StableSamples < 0 {
		return errors.New("monitor.readiness values must be positive")
	}
	if c.Monitor.Readiness.WaitBudgetSeconds < c.Monitor.Readiness.CheckIntervalSeconds {
		return errors.New("monitor.readiness.wait_budget must be at least one check interval")
	}

	// Defaults for the confirmation polls
	if c.Monitor.Confirm.IntervalSeconds == 0 {
		c.Monitor.Confirm.IntervalSeconds = 5
	}
	if c.Monitor.Confirm.CopyAttempts == 0 {
		c.Monitor.Confirm.CopyAttempts = 10
	}
	if c.Monitor.Confirm.DeleteAttempts == 0 {
		c.Monitor.Confirm.DeleteAttempts = 3
	}
	if c.Monitor.Confirm.IntervalSeconds < 0 || c.Monitor.Confirm.CopyAttempts < 0 || c.Monitor.Confirm.DeleteAttempts < 0 {
		return errors.New("monitor.confirm values must be positive")
	}

	// Flags that default to true
	if c.Monitor.DeleteSource == nil {
		c.Monitor.DeleteSource = boolPtr(true)
	}
	if c.Notification.NotifyOnCopy == nil {
		c.Notification.NotifyOnCopy = boolPtr(true)
	}
	if c.Notification.NotifyOnDelete == nil {
		c.Notification.NotifyOnDelete = boolPtr(true)
	}
	if c.Notification.NotifyOnError == nil {
		c.Notification.NotifyOnError = boolPtr(true)
	}

	return nil
}

// ⏱️ PollInterval returns the monitor loop cadence
func (m MonitorArgs) PollInterval() time.Duration {
	return time.Duration(m.CheckIntervalSeconds) * time.Second
}

// ⏱️ CheckInterval returns the readiness sampling cadence
func (r ReadinessArgs) CheckInterval() time.Duration {
	return time.Duration(r.CheckIntervalSeconds) * time.Second
}

// 🧮 MaxSamples returns how many readiness samples fit in the wait budget
func (r ReadinessArgs) MaxSamples() int {
	return r.WaitBudgetSeconds / r.CheckIntervalSeconds
}

// ⏱️ Interval returns the confirmation poll cadence
func (c ConfirmArgs) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func boolPtr(b bool) *bool {
	return &b
}
