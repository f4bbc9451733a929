// Copyright 2026 the dbxmcp authors
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

// Package shared holds state common to all commands.
package shared

import "sync"

var (
	versionMu sync.RWMutex
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// SetVersion stores build metadata injected by main via ldflags.
func SetVersion(v, c, b string) {
	versionMu.Lock()
	defer versionMu.Unlock()
	if v != "" {
		version = v
	}
	if c != "" {
		commit = c
	}
	if b != "" {
		buildDate = b
	}
}

// GetVersion returns the stored version, commit, and build date.
func GetVersion() (string, string, string) {
	versionMu.RLock()
	defer versionMu.RUnlock()
	return version, commit, buildDate
}
