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

package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/walteh/shuttle/pkg/notify"
	"github.com/walteh/shuttle/pkg/poll"
	"gitlab.com/tozd/go/errors"
)

// 🚫 errFileMissing terminates a readiness poll early: a file that
// vanished from the listing is not coming back within the budget.
var errFileMissing = errors.New("file missing from listing")

// 📊 readiness is the result of one detection attempt
type readiness struct {
	ready  bool
	size   int64
	reason string
}

// 🔎 waitUntilStable samples the file's size at a fixed interval until it
// has held the same value for StableSamples consecutive samples, the
// wait budget runs out, or the file disappears.
//
// Remote listings can be stale or racy, so a single unchanged reading is
// not trusted: a fast write can look momentarily idle at a polling
// boundary. Requiring a streak of identical sizes is a heuristic, not a
// guarantee, but it is the strongest signal the listing API offers.
func (o *Orchestrator) waitUntilStable(ctx context.Context, dir, name string) (readiness, error) {
	var (
		lastSize int64
		seen     bool
		streak   int
		result   readiness
	)

	err := poll.Until(ctx, o.readiness.CheckInterval, o.readiness.MaxSamples, func(ctx context.Context) (bool, error) {
		listing, err := o.listing(ctx, dir)
		if err != nil {
			return false, err
		}

		entry, ok := listing[name]
		if !ok {
			return false, errors.WithStack(errFileMissing)
		}

		// The streak counts consecutive samples observed at the current
		// size; the first observation of a size counts as one.
		if !seen || entry.Size != lastSize {
			if seen {
				o.notifier.Notify(ctx, notify.Event{
					Message:  fmt.Sprintf("⏳ File %s is still downloading...\nCurrent size: %s", name, formatSize(entry.Size)),
					Severity: notify.SeverityInfo,
				})
			}
			seen = true
			lastSize = entry.Size
			streak = 1
			return false, nil
		}

		streak++
		if streak >= o.readiness.StableSamples {
			result = readiness{ready: true, size: entry.Size}
			return true, nil
		}
		return false, nil
	})

	switch {
	case err == nil:
		result.reason = fmt.Sprintf("file size %s stable", formatSize(result.size))
		return result, nil
	case errors.Is(err, errFileMissing):
		return readiness{reason: "file no longer present in listing"}, nil
	case errors.Is(err, poll.ErrTimeout):
		budget := o.readiness.CheckInterval * time.Duration(o.readiness.MaxSamples)
		return readiness{reason: fmt.Sprintf("wait budget (%s) exhausted, file may still be downloading", budget)}, nil
	default:
		return readiness{}, err
	}
}

// 📐 formatSize renders a byte count in MB the way the notifications show it
func formatSize(bytes int64) string {
	return fmt.Sprintf("%.2fMB", float64(bytes)/(1024*1024))
}
