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

// Package transfer sequences readiness-check, copy, confirmation and
// deletion for a single file against a remote store whose copy/delete
// endpoints only acknowledge "request accepted". Completion is never
// assumed: every mutation is confirmed by re-polling a listing.
package transfer

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/shuttle/pkg/notify"
	"github.com/walteh/shuttle/pkg/poll"
	"github.com/walteh/shuttle/pkg/store"
)

// 🔌 Transferer is what the monitor loop drives
type Transferer interface {
	Move(ctx context.Context, srcPath, dstPath string) (Outcome, error)
	Delete(ctx context.Context, filePath string) (Outcome, error)
}

// ⏱️ ReadinessParams tunes the size-stability detector
type ReadinessParams struct {
	CheckInterval time.Duration // Pause between samples
	MaxSamples    int           // Wait budget expressed in samples
	StableSamples int           // Consecutive equal-size samples required
}

// ⏱️ ConfirmParams tunes the copy/delete confirmation polls
type ConfirmParams struct {
	Interval       time.Duration // Pause between confirmation polls
	CopyAttempts   int           // Max polls waiting for the copy to land
	DeleteAttempts int           // Max polls waiting for the delete to land
}

// 🛠️ Options wires an orchestrator together
type Options struct {
	Store     store.Store
	Notifier  notify.Notifier
	Readiness ReadinessParams
	Confirm   ConfirmParams
}

// 🎯 Orchestrator performs single-file operations. It is stateless
// between invocations; all state lives in call-scoped variables. It
// performs no automatic retry — retry policy belongs to the caller.
type Orchestrator struct {
	store     store.Store
	notifier  notify.Notifier
	readiness ReadinessParams
	confirm   ConfirmParams
}

var _ Transferer = (*Orchestrator)(nil)

// 🏭 NewOrchestrator creates an orchestrator
func NewOrchestrator(opts Options) *Orchestrator {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Orchestrator{
		store:     opts.Store,
		notifier:  notifier,
		readiness: opts.Readiness,
		confirm:   opts.Confirm,
	}
}

// 🚚 Move copies one file from srcPath to dstPath and confirms it landed.
//
// The outcome carries every expected failure; the error return is only
// for cancellation and genuinely unexpected conditions. Re-invoking on a
// file that is already in the desired state is safe: the listing checks
// detect it.
func (o *Orchestrator) Move(ctx context.Context, srcPath, dstPath string) (Outcome, error) {
	logger := zerolog.Ctx(ctx)

	srcDir, name := path.Dir(srcPath), path.Base(srcPath)
	dstDir := path.Dir(dstPath)

	// Confirm the source file is visible before committing to anything
	listing, err := o.listing(ctx, srcDir)
	if err != nil {
		return Outcome{}, err
	}
	entry, ok := listing[name]
	if !ok {
		o.notifyError(ctx, fmt.Sprintf("❌ Source file does not exist: %s", srcPath))
		return Failure(ReasonSourceMissing, srcPath), nil
	}

	// Wait for the download to settle
	ready, err := o.waitUntilStable(ctx, srcDir, name)
	if err != nil {
		return Outcome{}, err
	}
	if !ready.ready {
		o.notifyError(ctx, fmt.Sprintf("⚠️ Cannot copy file %s: %s", name, ready.reason))
		return Failure(ReasonNotReady, ready.reason), nil
	}

	logger.Info().Str("file", name).Str("from", srcDir).Str("to", dstDir).Msg("copying file")
	o.notifier.Notify(ctx, notify.Event{
		Message: fmt.Sprintf("📋 Starting copy\nFile: %s\nSize: %s\nFrom: %s\nTo: %s",
			name, formatSize(entry.Size), srcDir, dstDir),
		Severity: notify.SeverityInfo,
		Kind:     notify.KindCopy,
	})

	// The copy endpoint only accepts the request; the remote performs it
	// asynchronously
	if err := o.store.Copy(ctx, srcDir, dstDir, []string{name}); err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		logger.Error().Err(err).Str("file", name).Msg("copy request failed")
		o.notifyError(ctx, fmt.Sprintf("❌ Copy request failed for %s: %s", name, err.Error()))
		return Failure(ReasonCopyRequestFailed, err.Error()), nil
	}

	// Confirm the file shows up in the destination listing
	err = poll.Until(ctx, o.confirm.Interval, o.confirm.CopyAttempts, func(ctx context.Context) (bool, error) {
		dstListing, err := o.listing(ctx, dstDir)
		if err != nil {
			return false, err
		}
		_, present := dstListing[name]
		return present, nil
	})
	if err != nil {
		if poll.IsTimeout(err) {
			// Confirmation timed out; the remote copy may still complete
			// later, so no rollback is assumed
			logger.Error().Str("file", name).Msg("copy confirmation timed out")
			o.notifyError(ctx, fmt.Sprintf("❌ Copy timed out, file never appeared in destination: %s", name))
			return Failure(ReasonCopyTimeout, name), nil
		}
		return Outcome{}, err
	}

	logger.Info().Str("file", name).Msg("file copied")
	o.notifier.Notify(ctx, notify.Event{
		Message:  fmt.Sprintf("✅ File copied: %s", name),
		Severity: notify.SeverityInfo,
		Kind:     notify.KindCopy,
	})
	return Success(), nil
}

// 🗑️ Delete removes one file and confirms it is gone from the listing
func (o *Orchestrator) Delete(ctx context.Context, filePath string) (Outcome, error) {
	logger := zerolog.Ctx(ctx)

	dir, name := path.Dir(filePath), path.Base(filePath)

	logger.Info().Str("file", filePath).Msg("deleting file")
	o.notifier.Notify(ctx, notify.Event{
		Message:  fmt.Sprintf("🗑️ Deleting file: %s", name),
		Severity: notify.SeverityInfo,
		Kind:     notify.KindDelete,
	})

	if err := o.store.Delete(ctx, dir, []string{name}); err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		logger.Error().Err(err).Str("file", name).Msg("delete request failed")
		o.notifyError(ctx, fmt.Sprintf("❌ Delete request failed for %s: %s", name, err.Error()))
		return Failure(ReasonDeleteRequestFailed, err.Error()), nil
	}

	// Confirm the file is absent from the listing
	err := poll.Until(ctx, o.confirm.Interval, o.confirm.DeleteAttempts, func(ctx context.Context) (bool, error) {
		listing, err := o.listing(ctx, dir)
		if err != nil {
			return false, err
		}
		_, present := listing[name]
		return !present, nil
	})
	if err != nil {
		if poll.IsTimeout(err) {
			logger.Error().Str("file", name).Msg("delete confirmation timed out")
			o.notifyError(ctx, fmt.Sprintf("❌ Delete timed out, file still listed: %s", name))
			return Failure(ReasonDeleteTimeout, name), nil
		}
		return Outcome{}, err
	}

	logger.Info().Str("file", name).Msg("file deleted")
	o.notifier.Notify(ctx, notify.Event{
		Message:  fmt.Sprintf("✅ File deleted: %s", name),
		Severity: notify.SeverityInfo,
		Kind:     notify.KindDelete,
	})
	return Success(), nil
}

// 📂 listing fetches a directory listing, treating everything except
// cancellation as "no files visible right now": listings are re-polled,
// so a transient failure here surfaces as a recoverable per-file result
// rather than an abort.
func (o *Orchestrator) listing(ctx context.Context, dir string) (store.DirectoryListing, error) {
	listing, err := o.store.ListDirectory(ctx, dir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		zerolog.Ctx(ctx).Warn().Err(err).Str("dir", dir).Msg("listing unavailable, treating as empty")
		return store.DirectoryListing{}, nil
	}
	return listing, nil
}

// 🚨 notifyError fires an error-severity event on the side-channel
func (o *Orchestrator) notifyError(ctx context.Context, msg string) {
	o.notifier.Notify(ctx, notify.Event{Message: msg, Severity: notify.SeverityError})
}
