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

package aws

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/utils"
)

// CredentialCacheEntry one cached credential in $HOME/.bmx/accounts. Many
// entries can exist per user; writes compact to one per (account, role).
type CredentialCacheEntry struct {
	Org         string      `json:"org"`
	User        string      `json:"user"`
	AccountName string      `json:"accountName"`
	RoleName    string      `json:"roleName"`
	Credentials Credentials `json:"credentials"`
}

// CredentialCache full-file JSON list store for brokered AWS credentials.
// Load never fails, a missing or corrupt file reads as an empty list.
type CredentialCache struct {
	clock config.Clock
}

// NewCredentialCache CredentialCache constructor
func NewCredentialCache(cfg *config.Config) *CredentialCache {
	return &CredentialCache{clock: cfg.Clock()}
}

// Load all cached credential entries
func (cc *CredentialCache) Load() []CredentialCacheEntry {
	entries := []CredentialCacheEntry{}
	path, err := utils.CredentialsCachePath()
	if err != nil {
		return entries
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return entries
	}
	if err = json.Unmarshal(raw, &entries); err != nil {
		return []CredentialCacheEntry{}
	}
	return entries
}

// Save full overwrite of the credentials cache file
func (cc *CredentialCache) Save(entries []CredentialCacheEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return utils.WriteDotBmxFile(utils.CredentialsCacheFileName, raw)
}

// freshnessThreshold the minimum acceptable expiration for a cached credential
// to satisfy a request of durationMinutes. Durations over 20 minutes demand 15
// minutes of remaining life, shorter ones demand duration-5, which goes
// non-positive below 5 minutes and then accepts already-expired entries.
func (cc *CredentialCache) freshnessThreshold(durationMinutes int) time.Time {
	window := durationMinutes - 5
	if durationMinutes > 20 {
		window = 15
	}
	return cc.clock.Now().Add(time.Duration(window) * time.Minute)
}

// Get the first cached credential for (org, user, account, role) still
// satisfying the freshness window for durationMinutes. Account and role match
// case-insensitively.
func (cc *CredentialCache) Get(org, user, account, role string, durationMinutes int) (*Credentials, bool) {
	threshold := cc.freshnessThreshold(durationMinutes)
	for _, e := range cc.Load() {
		if e.Org != org || e.User != user {
			continue
		}
		if !strings.EqualFold(e.AccountName, account) || !strings.EqualFold(e.RoleName, role) {
			continue
		}
		if e.Credentials.Expiration.Before(threshold) {
			continue
		}
		creds := e.Credentials
		return &creds, true
	}
	return nil, false
}

// Set appends a fresh credential and compacts the file: only entries for the
// current (org, user) survive, entries expiring within 10 minutes are shed,
// and each (account, role) pair keeps just its latest expiration.
func (cc *CredentialCache) Set(org, user, account, role string, creds Credentials) error {
	entries := append(cc.Load(), CredentialCacheEntry{
		Org:         org,
		User:        user,
		AccountName: account,
		RoleName:    role,
		Credentials: creds,
	})

	cutoff := cc.clock.Now().Add(10 * time.Minute)
	latest := map[string]CredentialCacheEntry{}
	order := []string{}
	for _, e := range entries {
		if e.Org != org || e.User != user {
			continue
		}
		if e.Credentials.Expiration.Before(cutoff) {
			continue
		}
		key := strings.ToLower(e.AccountName) + "\x00" + strings.ToLower(e.RoleName)
		if kept, ok := latest[key]; ok {
			if e.Credentials.Expiration.After(kept.Credentials.Expiration) {
				latest[key] = e
			}
			continue
		}
		latest[key] = e
		order = append(order, key)
	}

	pruned := make([]CredentialCacheEntry, 0, len(order))
	for _, key := range order {
		pruned = append(pruned, latest[key])
	}
	return cc.Save(pruned)
}
