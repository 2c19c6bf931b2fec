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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/shuttle/pkg/store"
)

func TestWaitUntilStable_ReadyAfterThreeEqualSamples(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	// Size sequence [S, S, S]
	st.On("ListDirectory", mock.Anything, "/downloads").Return(listingOf(entry("movie.mkv", 1000)), nil)

	result, err := orch.waitUntilStable(context.Background(), "/downloads", "movie.mkv")
	require.NoError(t, err, "detection should not error")
	assert.True(t, result.ready, "file should be ready")
	assert.Equal(t, int64(1000), result.size, "size should be the stable value")
	assert.Equal(t, 3, listCalls(st, "/downloads"), "ready on the third sample, not earlier and not later")
	assert.Empty(t, notifier.events, "no progress notifications for an already-stable file")
}

func TestWaitUntilStable_StreakResetsOnSizeChange(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	// Size sequence [S1, S2, S2, S2] with S1 != S2
	st.On("ListDirectory", mock.Anything, "/downloads").Return(listingOf(entry("movie.mkv", 500)), nil).Once()
	st.On("ListDirectory", mock.Anything, "/downloads").Return(listingOf(entry("movie.mkv", 1000)), nil)

	result, err := orch.waitUntilStable(context.Background(), "/downloads", "movie.mkv")
	require.NoError(t, err, "detection should not error")
	assert.True(t, result.ready, "file should be ready")
	assert.Equal(t, int64(1000), result.size, "size should be the final stable value")
	assert.Equal(t, 4, listCalls(st, "/downloads"), "exactly four samples: the streak restarts at the size change")

	require.Len(t, notifier.events, 1, "the size change should emit one progress notification")
	assert.Contains(t, notifier.events[0].Message, "still downloading", "progress message should say the file is still downloading")
}

func TestWaitUntilStable_MissingFileFailsFast(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	st.On("ListDirectory", mock.Anything, "/downloads").Return(listingOf(entry("movie.mkv", 1000)), nil).Once()
	// The file disappears on the second sample
	st.On("ListDirectory", mock.Anything, "/downloads").Return(store.DirectoryListing{}, nil)

	result, err := orch.waitUntilStable(context.Background(), "/downloads", "movie.mkv")
	require.NoError(t, err, "detection should not error")
	assert.False(t, result.ready, "file should not be ready")
	assert.Contains(t, result.reason, "no longer present", "reason should say the file is missing")
	assert.Equal(t, 2, listCalls(st, "/downloads"), "detection should stop immediately, not wait out the budget")
}

func TestWaitUntilStable_BudgetExhausted(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	// The size never repeats, so stability is never reached
	for i := int64(1); i <= 12; i++ {
		st.On("ListDirectory", mock.Anything, "/downloads").Return(listingOf(entry("movie.mkv", i*100)), nil).Once()
	}

	result, err := orch.waitUntilStable(context.Background(), "/downloads", "movie.mkv")
	require.NoError(t, err, "detection should not error")
	assert.False(t, result.ready, "file should not be ready")
	assert.Contains(t, result.reason, "wait budget", "reason should mention the budget")
	assert.Equal(t, 12, listCalls(st, "/downloads"), "every sample in the budget should be used")
}

func TestWaitUntilStable_ListingBlipReadsAsMissing(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	st.On("ListDirectory", mock.Anything, "/downloads").Return(listingOf(entry("movie.mkv", 1000)), nil).Once()
	// A transport blip mid-detection degrades to an empty listing
	st.On("ListDirectory", mock.Anything, "/downloads").Return(nil, assertableError("connection reset"))

	result, err := orch.waitUntilStable(context.Background(), "/downloads", "movie.mkv")
	require.NoError(t, err, "detection should not error")
	assert.False(t, result.ready, "file should not be ready")
	assert.True(t, strings.Contains(result.reason, "no longer present"), "a vanished listing reads as a missing file")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "1.00MB", formatSize(1024*1024), "one MiB should format as 1.00MB")
	assert.Equal(t, "0.00MB", formatSize(0), "zero should format cleanly")
	assert.Equal(t, "1536.00MB", formatSize(1536*1024*1024), "large sizes stay in MB")
}
