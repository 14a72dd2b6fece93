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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/testutils"
	"github.com/bmxcli/bmx/internal/utils"
)

func setupCacheTest(t *testing.T) *SessionCache {
	t.Setenv("HOME", t.TempDir())
	attrs := &config.Attributes{Org: "acme", User: "bob"}
	cfg, err := config.NewConfig(attrs)
	require.NoError(t, err)
	cfg.SetClock(testutils.NewTestClock())
	return NewSessionCache(cfg)
}

func TestSessionCacheRoundTrip(t *testing.T) {
	sc := setupCacheTest(t)
	now := testutils.TestClock{}.Now()

	entries := []SessionCacheEntry{
		{UserID: "bob", Org: "acme", SessionID: "101W_juydrDRByB7fUdRyE2JQ", ExpiresAt: now.Add(time.Hour).UTC()},
		{UserID: "eve", Org: "acme", SessionID: "102XYZ", ExpiresAt: now.Add(2 * time.Hour).UTC()},
	}
	require.NoError(t, sc.Save(entries))
	require.Equal(t, entries, sc.Load())

	path, err := utils.SessionsPath()
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSessionCacheLoadSelfHeals(t *testing.T) {
	sc := setupCacheTest(t)

	// missing file
	require.Empty(t, sc.Load())

	// corrupt file
	path, err := utils.SessionsPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	require.Empty(t, sc.Load())
}

func TestSessionCacheStoreSupersedesSlot(t *testing.T) {
	sc := setupCacheTest(t)
	now := testutils.TestClock{}.Now()

	require.NoError(t, sc.Store(SessionCacheEntry{
		UserID: "bob", Org: "acme", SessionID: "old", ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, sc.Store(SessionCacheEntry{
		UserID: "eve", Org: "acme", SessionID: "other-user", ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, sc.Store(SessionCacheEntry{
		UserID: "bob", Org: "acme", SessionID: "new", ExpiresAt: now.Add(2 * time.Hour),
	}))

	entries := sc.Load()
	require.Len(t, entries, 2)

	entry, ok := sc.Lookup("acme", "bob")
	require.True(t, ok)
	require.Equal(t, "new", entry.SessionID)

	entry, ok = sc.Lookup("acme", "eve")
	require.True(t, ok)
	require.Equal(t, "other-user", entry.SessionID)
}

func TestSessionCacheStoreShedsExpired(t *testing.T) {
	sc := setupCacheTest(t)
	now := testutils.TestClock{}.Now()

	require.NoError(t, sc.Save([]SessionCacheEntry{
		{UserID: "eve", Org: "acme", SessionID: "stale", ExpiresAt: now.Add(-time.Minute)},
	}))
	require.NoError(t, sc.Store(SessionCacheEntry{
		UserID: "bob", Org: "acme", SessionID: "fresh", ExpiresAt: now.Add(time.Hour),
	}))

	entries := sc.Load()
	require.Len(t, entries, 1)
	require.Equal(t, "fresh", entries[0].SessionID)
}

func TestSessionCacheLookupIgnoresExpired(t *testing.T) {
	sc := setupCacheTest(t)
	now := testutils.TestClock{}.Now()

	require.NoError(t, sc.Save([]SessionCacheEntry{
		{UserID: "bob", Org: "acme", SessionID: "stale", ExpiresAt: now.Add(-time.Minute)},
	}))
	_, ok := sc.Lookup("acme", "bob")
	require.False(t, ok)
}
