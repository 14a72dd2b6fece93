/*
 * Copyright (c) 2024-Present, BMX Contributors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package okta

import (
	"encoding/json"
	"os"
	"time"

	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/utils"
)

// SessionCacheEntry one cached Okta session in $HOME/.bmx/sessions
type SessionCacheEntry struct {
	UserID    string    `json:"userId"`
	Org       string    `json:"org"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionCache dumb full-file JSON list store for Okta sessions. Load never
// fails, a missing or corrupt file reads as an empty list. Expiry filtering is
// the caller's job.
type SessionCache struct {
	clock config.Clock
}

// NewSessionCache SessionCache constructor
func NewSessionCache(cfg *config.Config) *SessionCache {
	return &SessionCache{clock: cfg.Clock()}
}

// Load all cached session entries
func (sc *SessionCache) Load() []SessionCacheEntry {
	entries := []SessionCacheEntry{}
	path, err := utils.SessionsPath()
	if err != nil {
		return entries
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return entries
	}
	if err = json.Unmarshal(raw, &entries); err != nil {
		return []SessionCacheEntry{}
	}
	return entries
}

// Save full overwrite of the session file
func (sc *SessionCache) Save(entries []SessionCacheEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return utils.WriteDotBmxFile(utils.SessionsFileName, raw)
}

// Store saves a session, superseding any prior entry for the same (org, user)
// pair and shedding entries that have already expired.
func (sc *SessionCache) Store(entry SessionCacheEntry) error {
	now := sc.clock.Now()
	entries := sc.Load()
	kept := make([]SessionCacheEntry, 0, len(entries)+1)
	for _, e := range entries {
		if e.Org == entry.Org && e.UserID == entry.UserID {
			continue
		}
		if !e.ExpiresAt.After(now) {
			continue
		}
		kept = append(kept, e)
	}
	kept = append(kept, entry)
	return sc.Save(kept)
}

// Lookup the cached session for (org, user) that is still live at now
func (sc *SessionCache) Lookup(org, user string) (SessionCacheEntry, bool) {
	now := sc.clock.Now()
	for _, e := range sc.Load() {
		if e.Org == org && e.UserID == user && e.ExpiresAt.After(now) {
			return e, true
		}
	}
	return SessionCacheEntry{}, false
}
