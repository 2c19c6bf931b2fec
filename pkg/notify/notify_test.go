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

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/shuttle/pkg/config"
)

func boolPtr(b bool) *bool {
	return &b
}

func TestDiscordNotifier(t *testing.T) {
	tests := []struct {
		name     string
		args     config.NotificationArgs
		event    Event
		wantSent bool
	}{
		{
			name:     "info_event_is_posted",
			args:     config.NotificationArgs{},
			event:    Event{Message: "hello", Severity: SeverityInfo},
			wantSent: true,
		},
		{
			name:     "copy_event_gated_off",
			args:     config.NotificationArgs{NotifyOnCopy: boolPtr(false)},
			event:    Event{Message: "copying", Severity: SeverityInfo, Kind: KindCopy},
			wantSent: false,
		},
		{
			name:     "copy_event_gated_on_by_default",
			args:     config.NotificationArgs{},
			event:    Event{Message: "copying", Severity: SeverityInfo, Kind: KindCopy},
			wantSent: true,
		},
		{
			name:     "delete_event_gated_off",
			args:     config.NotificationArgs{NotifyOnDelete: boolPtr(false)},
			event:    Event{Message: "deleting", Severity: SeverityInfo, Kind: KindDelete},
			wantSent: false,
		},
		{
			name:     "error_event_gated_off",
			args:     config.NotificationArgs{NotifyOnError: boolPtr(false)},
			event:    Event{Message: "boom", Severity: SeverityError},
			wantSent: false,
		},
		{
			name:     "error_event_ignores_kind_gates",
			args:     config.NotificationArgs{NotifyOnCopy: boolPtr(false)},
			event:    Event{Message: "copy boom", Severity: SeverityError, Kind: KindCopy},
			wantSent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]string
			sent := false
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sent = true
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got), "payload should decode")
				w.WriteHeader(http.StatusNoContent)
			}))
			defer srv.Close()

			tt.args.DiscordWebhook = srv.URL
			n := NewDiscord(tt.args)
			n.Notify(context.Background(), tt.event)

			assert.Equal(t, tt.wantSent, sent, "delivery should match the gating")
			if tt.wantSent {
				assert.Equal(t, tt.event.Message, got["content"], "content should carry the message")
				assert.Equal(t, "shuttle", got["username"], "username should be the fixed display name")
			}
		})
	}
}

func TestDiscordNotifier_FailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewDiscord(config.NotificationArgs{DiscordWebhook: srv.URL})
	// Notify has no error return; a rejected or unreachable webhook must not panic
	n.Notify(context.Background(), Event{Message: "hi", Severity: SeverityInfo})

	srv.Close()
	n.Notify(context.Background(), Event{Message: "after close", Severity: SeverityInfo})
}

func TestFromConfig(t *testing.T) {
	t.Run("no_webhook_yields_nop", func(t *testing.T) {
		n := FromConfig(config.NotificationArgs{})
		_, isNop := n.(NopNotifier)
		assert.True(t, isNop, "missing webhook should disable notifications")
	})

	t.Run("webhook_yields_discord", func(t *testing.T) {
		n := FromConfig(config.NotificationArgs{DiscordWebhook: "https://discord.com/api/webhooks/1/x"})
		_, isDiscord := n.(*DiscordNotifier)
		assert.True(t, isDiscord, "webhook should enable the discord notifier")
	})
}
