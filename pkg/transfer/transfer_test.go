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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/shuttle/pkg/notify"
	"github.com/walteh/shuttle/pkg/store"
)

// 🔧 MockStore is a mock implementation of the store.Store interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListDirectory(ctx context.Context, path string) (store.DirectoryListing, error) {
	result := m.Called(ctx, path)
	if result.Get(0) == nil {
		return nil, result.Error(1)
	}
	return result.Get(0).(store.DirectoryListing), result.Error(1)
}

func (m *MockStore) Copy(ctx context.Context, srcDir, dstDir string, names []string) error {
	result := m.Called(ctx, srcDir, dstDir, names)
	return result.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, dir string, names []string) error {
	result := m.Called(ctx, dir, names)
	return result.Error(0)
}

// 📼 recordingNotifier captures events for assertions
type recordingNotifier struct {
	events []notify.Event
}

func (r *recordingNotifier) Notify(ctx context.Context, ev notify.Event) {
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) messages() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Message
	}
	return out
}

// 🧰 listingOf builds a listing from name/size pairs
func listingOf(entries ...store.FileEntry) store.DirectoryListing {
	listing := make(store.DirectoryListing, len(entries))
	for _, e := range entries {
		listing[e.Name] = e
	}
	return listing
}

func entry(name string, size int64) store.FileEntry {
	return store.FileEntry{Name: name, Size: size, Modified: time.Unix(1700000000, 0)}
}

// 🏭 newTestOrchestrator uses millisecond pacing so the polls run fast
func newTestOrchestrator(st store.Store, notifier notify.Notifier) *Orchestrator {
	return NewOrchestrator(Options{
		Store:    st,
		Notifier: notifier,
		Readiness: ReadinessParams{
			CheckInterval: time.Millisecond,
			MaxSamples:    12,
			StableSamples: 3,
		},
		Confirm: ConfirmParams{
			Interval:       time.Millisecond,
			CopyAttempts:   10,
			DeleteAttempts: 3,
		},
	})
}

// 🧮 listCalls counts ListDirectory invocations for one path
func listCalls(m *MockStore, path string) int {
	count := 0
	for _, call := range m.Calls {
		if call.Method == "ListDirectory" && call.Arguments.String(1) == path {
			count++
		}
	}
	return count
}

func TestMove_Success(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	stable := listingOf(entry("movie.mkv", 1000))
	st.On("ListDirectory", mock.Anything, "/downloads").Return(stable, nil)
	st.On("Copy", mock.Anything, "/downloads", "/media", []string{"movie.mkv"}).Return(nil)
	st.On("ListDirectory", mock.Anything, "/media").Return(listingOf(entry("movie.mkv", 1000)), nil)

	outcome, err := orch.Move(context.Background(), "/downloads/movie.mkv", "/media/movie.mkv")
	require.NoError(t, err, "move should not error")
	assert.True(t, outcome.OK, "move should succeed")

	st.AssertCalled(t, "Copy", mock.Anything, "/downloads", "/media", []string{"movie.mkv"})
	assert.Equal(t, 4, listCalls(st, "/downloads"), "one existence check plus three readiness samples")
	assert.Equal(t, 1, listCalls(st, "/media"), "first confirmation poll should already see the file")

	msgs := strings.Join(notifier.messages(), "\n---\n")
	assert.Contains(t, msgs, "Starting copy", "a starting-copy notification should fire")
	assert.Contains(t, msgs, "File copied", "a success notification should fire")
}

func TestMove_SourceMissing(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	st.On("ListDirectory", mock.Anything, "/downloads").Return(store.DirectoryListing{}, nil)

	outcome, err := orch.Move(context.Background(), "/downloads/movie.mkv", "/media/movie.mkv")
	require.NoError(t, err, "expected failure should not error")
	assert.False(t, outcome.OK, "move should fail")
	assert.Equal(t, ReasonSourceMissing, outcome.Reason, "reason should be source missing")

	st.AssertNotCalled(t, "Copy", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMove_NotReady(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	// Size keeps growing: the wait budget runs out before stability
	sizes := []int64{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000, 1100, 1200, 1300}
	for _, size := range sizes {
		st.On("ListDirectory", mock.Anything, "/downloads").Return(listingOf(entry("movie.mkv", size)), nil).Once()
	}

	outcome, err := orch.Move(context.Background(), "/downloads/movie.mkv", "/media/movie.mkv")
	require.NoError(t, err, "expected failure should not error")
	assert.False(t, outcome.OK, "move should fail")
	assert.Equal(t, ReasonNotReady, outcome.Reason, "reason should be not ready")
	assert.Contains(t, outcome.Detail, "wait budget", "detail should mention the exhausted budget")

	st.AssertNotCalled(t, "Copy", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMove_CopyRequestFailed(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	st.On("ListDirectory", mock.Anything, "/downloads").Return(listingOf(entry("movie.mkv", 1000)), nil)
	st.On("Copy", mock.Anything, "/downloads", "/media", []string{"movie.mkv"}).Return(assertableError("copy rejected: storage full"))

	outcome, err := orch.Move(context.Background(), "/downloads/movie.mkv", "/media/movie.mkv")
	require.NoError(t, err, "expected failure should not error")
	assert.False(t, outcome.OK, "move should fail")
	assert.Equal(t, ReasonCopyRequestFailed, outcome.Reason, "reason should be copy request failed")
	assert.Equal(t, 0, listCalls(st, "/media"), "no confirmation polls after a rejected request")
}

func TestMove_ConfirmationTimeout(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	st.On("ListDirectory", mock.Anything, "/downloads").Return(listingOf(entry("movie.mkv", 1000)), nil)
	st.On("Copy", mock.Anything, "/downloads", "/media", []string{"movie.mkv"}).Return(nil)
	// The file never shows up in the destination
	st.On("ListDirectory", mock.Anything, "/media").Return(store.DirectoryListing{}, nil)

	outcome, err := orch.Move(context.Background(), "/downloads/movie.mkv", "/media/movie.mkv")
	require.NoError(t, err, "expected failure should not error")
	assert.False(t, outcome.OK, "move should fail")
	assert.Equal(t, ReasonCopyTimeout, outcome.Reason, "reason should be confirmation timeout")
	assert.Equal(t, 10, listCalls(st, "/media"), "every confirmation attempt should be used")

	// Timeout is not proof of remote failure, and nothing may be deleted
	st.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_Success(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	st.On("Delete", mock.Anything, "/downloads", []string{"movie.mkv"}).Return(nil)
	st.On("ListDirectory", mock.Anything, "/downloads").Return(store.DirectoryListing{}, nil)

	outcome, err := orch.Delete(context.Background(), "/downloads/movie.mkv")
	require.NoError(t, err, "delete should not error")
	assert.True(t, outcome.OK, "delete should succeed")

	msgs := strings.Join(notifier.messages(), "\n---\n")
	assert.Contains(t, msgs, "File deleted", "a success notification should fire")
}

func TestDelete_ConfirmationTimeout(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	st.On("Delete", mock.Anything, "/downloads", []string{"movie.mkv"}).Return(nil)
	// The file stubbornly stays in the listing
	st.On("ListDirectory", mock.Anything, "/downloads").Return(listingOf(entry("movie.mkv", 1000)), nil)

	outcome, err := orch.Delete(context.Background(), "/downloads/movie.mkv")
	require.NoError(t, err, "expected failure should not error")
	assert.False(t, outcome.OK, "delete should fail")
	assert.Equal(t, ReasonDeleteTimeout, outcome.Reason, "reason should be delete timeout")
	assert.Equal(t, 3, listCalls(st, "/downloads"), "every confirmation attempt should be used")
}

func TestDelete_RequestFailed(t *testing.T) {
	st := &MockStore{}
	notifier := &recordingNotifier{}
	orch := newTestOrchestrator(st, notifier)

	st.On("Delete", mock.Anything, "/downloads", []string{"movie.mkv"}).Return(assertableError("delete rejected: read only"))

	outcome, err := orch.Delete(context.Background(), "/downloads/movie.mkv")
	require.NoError(t, err, "expected failure should not error")
	assert.False(t, outcome.OK, "delete should fail")
	assert.Equal(t, ReasonDeleteRequestFailed, outcome.Reason, "reason should be delete request failed")
	assert.Equal(t, 0, listCalls(st, "/downloads"), "no confirmation polls after a rejected request")
}

// assertableError keeps the mock returns readable
type assertableError string

func (e assertableError) Error() string {
	return string(e)
}
