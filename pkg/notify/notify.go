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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/shuttle/pkg/config"
)

// 🎨 Severity classifies an event for gating and display
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

// 📣 Kind is the event type the per-kind config flags gate on
type Kind int

const (
	KindGeneral Kind = iota // startup, shutdown, progress — always sent
	KindCopy                // gated by notify_on_copy
	KindDelete              // gated by notify_on_delete
)

// ✉️ Event is one side-channel message. It has no identity and is never
// persisted.
type Event struct {
	Message  string
	Severity Severity
	Kind     Kind
}

// 🔌 Notifier is the side-channel capability. Delivery failures are
// logged by implementations and never returned: a broken webhook must
// not abort a transfer.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// 🚫 NopNotifier is used when no webhook is configured, so business
// logic never has to nil-check the side-channel.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, ev Event) {}

// 🏭 FromConfig returns a Discord notifier when a webhook is configured,
// and a no-op otherwise.
func FromConfig(args config.NotificationArgs) Notifier {
	if args.DiscordWebhook == "" {
		return NopNotifier{}
	}
	return NewDiscord(args)
}

// 💬 DiscordNotifier posts events to a Discord-compatible webhook
type DiscordNotifier struct {
	webhookURL string
	username   string
	onCopy     bool
	onDelete   bool
	onError    bool
	http       *http.Client
}

// 🏭 NewDiscord creates a Discord webhook notifier
func NewDiscord(args config.NotificationArgs) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: args.DiscordWebhook,
		username:   "shuttle",
		onCopy:     args.NotifyOnCopy == nil || *args.NotifyOnCopy,
		onDelete:   args.NotifyOnDelete == nil || *args.NotifyOnDelete,
		onError:    args.NotifyOnError == nil || *args.NotifyOnError,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// 📬 Notify posts one message. Gating by kind and severity happens here
// so callers fire events unconditionally.
func (n *DiscordNotifier) Notify(ctx context.Context, ev Event) {
	logger := zerolog.Ctx(ctx)

	// Errors are gated only by notify_on_error; the per-kind flags apply
	// to the informational traffic.
	if ev.Severity == SeverityError {
		if !n.onError {
			return
		}
	} else {
		switch ev.Kind {
		case KindCopy:
			if !n.onCopy {
				return
			}
		case KindDelete:
			if !n.onDelete {
				return
			}
		}
	}

	payload, err := json.Marshal(map[string]string{
		"content":  ev.Message,
		"username": n.username,
	})
	if err != nil {
		logger.Error().Err(err).Msg("encoding notification payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		logger.Error().Err(err).Msg("creating notification request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("sending notification")
		return
	}
	defer resp.Body.Close()

	// Discord answers 204 on success; accept any 2xx for compatible relays
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		logger.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("notification rejected")
	}
}
