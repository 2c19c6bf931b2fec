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

// Package status formats per-file transfer lines for console output.
package status

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	verbWidth   = 12 // Width for the transfer verb
	detailWidth = 20 // Width for detail text
)

// 🏷️ Result classifies a transfer line for its prefix symbol
type Result int

const (
	ResultOK Result = iota
	ResultPending
	ResultFailed
)

// 🎯 FormatTransfer formats one per-file transfer line for display
func FormatTransfer(name, verb, detail string, result Result) string {
	var prefix string
	switch result {
	case ResultOK:
		prefix = color.GreenString("✓")
	case ResultPending:
		prefix = color.YellowString("⟳")
	case ResultFailed:
		prefix = color.RedString("✗")
	default:
		prefix = color.HiBlackString("-")
	}

	// Format parts with padding
	namePart := fmt.Sprintf("%-*s", nameWidth, name)
	verbPart := fmt.Sprintf("%-*s", verbWidth, verb)
	detailPart := fmt.Sprintf("%-*s", detailWidth, detail)

	// Build final string with indentation
	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		namePart,
		verbPart,
		detailPart,
	)
}
