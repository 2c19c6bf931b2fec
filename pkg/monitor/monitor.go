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

// Package monitor owns the long-running loop: list the source directory,
// hand every new file to the transfer orchestrator, remember what has
// been fully handled, repeat.
package monitor

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/shuttle/pkg/config"
	"github.com/walteh/shuttle/pkg/notify"
	"github.com/walteh/shuttle/pkg/poll"
	"github.com/walteh/shuttle/pkg/store"
	"github.com/walteh/shuttle/pkg/transfer"
	"github.com/walteh/shuttle/pkg/userlog"
	"gitlab.com/tozd/go/errors"
)

// ⏲️ networkBackoff is the fixed pause after a transport-level listing
// failure. Deliberately not exponential: the loop is the retry policy.
const networkBackoff = 30 * time.Second

// 🛠️ Options wires a monitor together
type Options struct {
	Store     store.Lister
	Transfers transfer.Transferer
	Notifier  notify.Notifier
	UserLog   *userlog.Logger
	Config    config.MonitorArgs

	// Backoff overrides the transport-failure pause; zero means 30s
	Backoff time.Duration
}

// 🎯 Monitor runs the polling loop. It is the exclusive owner of the
// processed set, which lives for the process lifetime only: a restart
// forgets prior progress, and since handled files are normally deleted
// from the source this is self-healing in practice.
type Monitor struct {
	store     store.Lister
	transfers transfer.Transferer
	notifier  notify.Notifier
	user      *userlog.Logger
	cfg       config.MonitorArgs
	backoff   time.Duration

	processed map[string]struct{}
}

// 🏭 New creates a monitor
func New(opts Options) *Monitor {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	user := opts.UserLog
	if user == nil {
		user = userlog.New()
	}
	backoff := opts.Backoff
	if backoff == 0 {
		backoff = networkBackoff
	}
	return &Monitor{
		store:     opts.Store,
		transfers: opts.Transfers,
		notifier:  notifier,
		user:      user,
		cfg:       opts.Config,
		backoff:   backoff,
		processed: make(map[string]struct{}),
	}
}

// 🏃 Run polls until ctx is cancelled. Cancellation is cooperative and
// coarse: it is observed between iterations and inside sleeps, and an
// in-flight request is allowed to complete. A nil return means a clean
// shutdown; any non-nil error is unexpected and should terminate the
// process visibly.
func (m *Monitor) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	startup := fmt.Sprintf("🚀 Monitoring started\nSource: %s\nDestination: %s\nInterval: %ds",
		m.cfg.SourcePath, m.cfg.DestPath, m.cfg.CheckIntervalSeconds)
	logger.Info().
		Str("source", m.cfg.SourcePath).
		Str("dest", m.cfg.DestPath).
		Int("interval_seconds", m.cfg.CheckIntervalSeconds).
		Msg("monitoring started")
	m.user.StateChange("Monitoring " + m.cfg.SourcePath + " -> " + m.cfg.DestPath)
	m.notifier.Notify(ctx, notify.Event{Message: startup, Severity: notify.SeverityInfo})

	if m.deleteSource() {
		logger.Info().Msg("source files will be deleted after a confirmed copy")
	}

loop:
	for ctx.Err() == nil {
		listing, err := m.store.ListDirectory(ctx, m.cfg.SourcePath)
		if err != nil {
			if ctx.Err() != nil {
				break loop
			}
			// Transport-level failure: back off and keep going
			logger.Error().Err(err).Msg("listing source directory failed")
			m.notifier.Notify(ctx, notify.Event{
				Message:  fmt.Sprintf("⚠️ Network request failed: %s\nRetrying in %s...", err.Error(), m.backoff),
				Severity: notify.SeverityError,
			})
			if err := poll.Sleep(ctx, m.backoff); err != nil {
				break loop
			}
			continue
		}

		logger.Debug().Int("files", len(listing)).Msg("checking for new files")

		for _, name := range m.newFiles(ctx, listing) {
			entry := listing[name]
			if err := m.handleFile(ctx, entry); err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					break loop
				}
				return errors.Errorf("handling file %s: %w", name, err)
			}
		}

		if err := poll.Sleep(ctx, m.cfg.PollInterval()); err != nil {
			break loop
		}
	}

	m.shutdown(ctx)
	return nil
}

// 📄 handleFile runs the configured terminal step (copy, or copy+delete)
// for one file and records it as processed only when that step fully
// succeeds. Anything less leaves the file unprocessed so the next poll
// cycle retries it.
func (m *Monitor) handleFile(ctx context.Context, entry store.FileEntry) error {
	logger := zerolog.Ctx(ctx)

	srcPath := path.Join(m.cfg.SourcePath, entry.Name)
	dstPath := path.Join(m.cfg.DestPath, entry.Name)

	logger.Info().Str("file", entry.Name).Int64("size", entry.Size).Msg("found new file")
	m.user.FileChange(userlog.FileChange{Type: userlog.FileDiscovered, Name: entry.Name, Description: sizeDesc(entry.Size)})

	outcome, err := m.transfers.Move(ctx, srcPath, dstPath)
	if err != nil {
		return err
	}
	if !outcome.OK {
		logger.Error().Str("file", entry.Name).Stringer("reason", outcome.Reason).Str("detail", outcome.Detail).Msg("processing failed")
		m.user.FileChange(userlog.FileChange{Type: userlog.FileFailed, Name: entry.Name, Description: outcome.Reason.String()})
		m.notifier.Notify(ctx, notify.Event{
			Message:  fmt.Sprintf("❌ File %s processing failed: %s", entry.Name, outcome.Reason),
			Severity: notify.SeverityError,
		})
		return nil
	}
	m.user.FileChange(userlog.FileChange{Type: userlog.FileCopied, Name: entry.Name})

	if m.deleteSource() {
		outcome, err := m.transfers.Delete(ctx, srcPath)
		if err != nil {
			return err
		}
		if !outcome.OK {
			logger.Error().Str("file", entry.Name).Stringer("reason", outcome.Reason).Msg("copied but source delete failed")
			m.user.FileChange(userlog.FileChange{Type: userlog.FileFailed, Name: entry.Name, Description: "copied but " + outcome.Reason.String()})
			m.notifier.Notify(ctx, notify.Event{
				Message:  fmt.Sprintf("⚠️ File %s copied but deleting the source failed", entry.Name),
				Severity: notify.SeverityError,
			})
			return nil
		}
		m.user.FileChange(userlog.FileChange{Type: userlog.FileDeleted, Name: entry.Name})
	}

	m.processed[entry.Name] = struct{}{}
	logger.Info().Str("file", entry.Name).Msg("file fully processed")
	return nil
}

// 🔍 newFiles returns the names in the listing that are neither already
// processed nor ignored, in sorted order so retries and logs are
// deterministic.
func (m *Monitor) newFiles(ctx context.Context, listing store.DirectoryListing) []string {
	names := make([]string, 0, len(listing))
	for name := range listing {
		if _, done := m.processed[name]; done {
			continue
		}
		if m.ignored(ctx, name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// 🙈 ignored checks the filename against the configured glob patterns
func (m *Monitor) ignored(ctx context.Context, name string) bool {
	for _, pattern := range m.cfg.IgnorePatterns {
		matched, err := doublestar.Match(pattern, name)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("pattern", pattern).Msg("invalid ignore pattern")
			continue
		}
		if matched {
			zerolog.Ctx(ctx).Debug().Str("file", name).Str("pattern", pattern).Msg("ignoring file")
			return true
		}
	}
	return false
}

// 🛑 shutdown reports what this run handled
func (m *Monitor) shutdown(ctx context.Context) {
	logger := zerolog.Ctx(ctx)

	names := m.Processed()
	logger.Info().Int("processed", len(names)).Msg("monitoring stopped")
	m.user.Summary(names)

	msg := fmt.Sprintf("🛑 Monitoring stopped\nProcessed files: %d", len(names))
	if len(names) > 0 {
		msg += "\n" + strings.Join(prefixEach(names, "  - "), "\n")
	}
	// The loop context is done by now; give the farewell its own deadline
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	m.notifier.Notify(notifyCtx, notify.Event{Message: msg, Severity: notify.SeverityInfo})
}

// 📋 Processed returns the sorted names handled so far in this run
func (m *Monitor) Processed() []string {
	names := make([]string, 0, len(m.processed))
	for name := range m.processed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Monitor) deleteSource() bool {
	return m.cfg.DeleteSource == nil || *m.cfg.DeleteSource
}

func sizeDesc(bytes int64) string {
	return fmt.Sprintf("%.2fMB", float64(bytes)/(1024*1024))
}

func prefixEach(items []string, prefix string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = prefix + item
	}
	return out
}
