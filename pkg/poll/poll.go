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

// Package poll provides the one bounded-retry loop shared by readiness
// detection and copy/delete confirmation: run a predicate up to N times,
// sleeping a fixed interval between attempts.
package poll

import (
	"context"
	"time"

	"gitlab.com/tozd/go/errors"
)

// ⏰ ErrTimeout is returned when every attempt was exhausted without the
// predicate reporting done.
var ErrTimeout = errors.New("poll: attempts exhausted")

// 🔍 IsTimeout reports whether err came from an exhausted poll
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// 🔍 Func is one poll attempt. Returning done stops the poll with
// success; returning an error stops it immediately (terminal failure).
type Func func(ctx context.Context) (done bool, err error)

// 🔄 Until runs fn up to maxAttempts times, sleeping interval between
// attempts. The sleep is context-aware and is the only suspension point;
// cancellation mid-sleep returns ctx.Err().
func Until(ctx context.Context, interval time.Duration, maxAttempts int, fn Func) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := Sleep(ctx, interval); err != nil {
				return err
			}
		}

		done, err := fn(ctx)
		if err != nil {
			return errors.Errorf("poll attempt %d: %w", attempt+1, err)
		}
		if done {
			return nil
		}
	}
	return errors.WithStack(ErrTimeout)
}

// 💤 Sleep blocks for d or until ctx is cancelled
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// Still observe cancellation even when there is nothing to wait for
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
