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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclConfig struct {
		Store struct {
			URL      string `hcl:"url"`
			Token    string `hcl:"token,optional"`
			Username string `hcl:"username,optional"`
			Password string `hcl:"password,optional"`
		} `hcl:"store,block"`
		Monitor struct {
			SourcePath     string   `hcl:"source_path"`
			DestPath       string   `hcl:"dest_path"`
			CheckInterval  int      `hcl:"check_interval"`
			DeleteSource   *bool    `hcl:"delete_source,optional"`
			IgnorePatterns []string `hcl:"ignore_patterns,optional"`
			Readiness      *struct {
				CheckInterval int `hcl:"check_interval,optional"`
				WaitBudget    int `hcl:"wait_budget,optional"`
				StableSamples int `hcl:"stable_samples,optional"`
			} `hcl:"readiness,block"`
			Confirm *struct {
				Interval       int `hcl:"interval,optional"`
				CopyAttempts   int `hcl:"copy_attempts,optional"`
				DeleteAttempts int `hcl:"delete_attempts,optional"`
			} `hcl:"confirm,block"`
		} `hcl:"monitor,block"`
		Notification *struct {
			DiscordWebhook string `hcl:"discord_webhook,optional"`
			NotifyOnCopy   *bool  `hcl:"notify_on_copy,optional"`
			NotifyOnDelete *bool  `hcl:"notify_on_delete,optional"`
			NotifyOnError  *bool  `hcl:"notify_on_error,optional"`
		} `hcl:"notification,block"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Store: StoreArgs{
			URL:      hclCfg.Store.URL,
			Token:    hclCfg.Store.Token,
			Username: hclCfg.Store.Username,
			Password: hclCfg.Store.Password,
		},
		Monitor: MonitorArgs{
			SourcePath:           hclCfg.Monitor.SourcePath,
			DestPath:             hclCfg.Monitor.DestPath,
			CheckIntervalSeconds: hclCfg.Monitor.CheckInterval,
			DeleteSource:         hclCfg.Monitor.DeleteSource,
			IgnorePatterns:       hclCfg.Monitor.IgnorePatterns,
		},
	}

	if hclCfg.Monitor.Readiness != nil {
		cfg.Monitor.Readiness = ReadinessArgs{
			CheckIntervalSeconds: hclCfg.Monitor.Readiness.CheckInterval,
			WaitBudgetSeconds:    hclCfg.Monitor.Readiness.WaitBudget,
			StableSamples:        hclCfg.Monitor.Readiness.StableSamples,
		}
	}

	if hclCfg.Monitor.Confirm != nil {
		cfg.Monitor.Confirm = ConfirmArgs{
			IntervalSeconds: hclCfg.Monitor.Confirm.Interval,
			CopyAttempts:    hclCfg.Monitor.Confirm.CopyAttempts,
			DeleteAttempts:  hclCfg.Monitor.Confirm.DeleteAttempts,
		}
	}

	if hclCfg.Notification != nil {
		cfg.Notification = NotificationArgs{
			DiscordWebhook: hclCfg.Notification.DiscordWebhook,
			NotifyOnCopy:   hclCfg.Notification.NotifyOnCopy,
			NotifyOnDelete: hclCfg.Notification.NotifyOnDelete,
			NotifyOnError:  hclCfg.Notification.NotifyOnError,
		}
	}

	return cfg, nil
}
