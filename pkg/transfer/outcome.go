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

// 🏷️ Reason tags why a transfer operation did not reach its goal
type Reason int

const (
	ReasonNone Reason = iota
	ReasonSourceMissing
	ReasonNotReady
	ReasonCopyRequestFailed
	ReasonCopyTimeout
	ReasonDeleteRequestFailed
	ReasonDeleteTimeout
)

// 📛 String returns a short human-readable tag
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonSourceMissing:
		return "source missing"
	case ReasonNotReady:
		return "not ready"
	case ReasonCopyRequestFailed:
		return "copy request failed"
	case ReasonCopyTimeout:
		return "copy confirmation timeout"
	case ReasonDeleteRequestFailed:
		return "delete request failed"
	case ReasonDeleteTimeout:
		return "delete confirmation timeout"
	default:
		return "unknown"
	}
}

// 🎯 Outcome is the tagged result of a copy or delete operation.
// Expected failures travel as values, not errors: the caller inspects
// the reason and decides the next action (usually: retry next cycle).
type Outcome struct {
	OK     bool
	Reason Reason
	Detail string
}

// ✅ Success returns a successful outcome
func Success() Outcome {
	return Outcome{OK: true}
}

// ❌ Failure returns a failed outcome with a reason tag and detail text
func Failure(reason Reason, detail string) Outcome {
	return Outcome{Reason: reason, Detail: detail}
}
