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

// Package userlog provides user-friendly console feedback about the
// monitoring run, mirrored into zerolog for debugging.
package userlog

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/shuttle/pkg/status"
)

// 📢 Logger prints user-facing progress with pterm prefix printers
type Logger struct {
	log zerolog.Logger
}

// 🎨 FileChangeType represents what happened to a file
type FileChangeType int

const (
	FileDiscovered FileChangeType = iota
	FileCopied
	FileDeleted
	FileSkipped
	FileFailed
)

// 🖼️ FileChange represents one per-file event
type FileChange struct {
	Type        FileChangeType
	Name        string
	Description string
}

// 🏭 New creates a logger that only prints (no zerolog mirroring)
func New() *Logger {
	return &Logger{log: zerolog.Nop()}
}

// 🏭 NewForContext creates a logger that mirrors into the context logger
func NewForContext(ctx context.Context) *Logger {
	return &Logger{log: *zerolog.Ctx(ctx)}
}

// 📝 FileChange prints a file event with the matching prefix printer
func (u *Logger) FileChange(change FileChange) {
	var (
		verb    string
		result  status.Result
		printer *pterm.PrefixPrinter
	)
	switch change.Type {
	case FileDiscovered:
		verb = "discovered"
		result = status.ResultPending
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "🔍"})
	case FileCopied:
		verb = "copied"
		result = status.ResultOK
		printer = pterm.Success.WithPrefix(pterm.Prefix{Text: "📋"})
	case FileDeleted:
		verb = "deleted"
		result = status.ResultOK
		printer = pterm.Success.WithPrefix(pterm.Prefix{Text: "🗑️"})
	case FileSkipped:
		verb = "skipped"
		result = status.ResultPending
		printer = pterm.Debug.WithPrefix(pterm.Prefix{Text: "⏭️"})
	case FileFailed:
		verb = "failed"
		result = status.ResultFailed
		printer = pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"})
	}

	line := status.FormatTransfer(change.Name, verb, change.Description, result)
	printer.Println(line)
	u.log.Debug().Str("file", change.Name).Str("verb", verb).Msg(change.Description)
}

// 📊 StateChange logs a change to the overall run state
func (u *Logger) StateChange(description string) {
	pterm.Info.WithPrefix(pterm.Prefix{Text: "📦"}).Println(description)
	u.log.Info().Msg(description)
}

// 🧾 Summary prints what the run handled
func (u *Logger) Summary(processed []string) {
	pterm.Info.WithPrefix(pterm.Prefix{Text: "🛑"}).Println(fmt.Sprintf("Stopped; processed %d file(s)", len(processed)))
	for _, name := range processed {
		pterm.Success.WithPrefix(pterm.Prefix{Text: "  ✓"}).Println(name)
	}
	u.log.Info().Strs("files", processed).Msg("run summary")
}
