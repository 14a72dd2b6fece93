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

package utils

import (
	"os"
	"path/filepath"
)

const (
	// ContentType http header content type
	ContentType = "Content-Type"
	// ApplicationJSON content value for json
	ApplicationJSON = "application/json"
	// ApplicationXFORM content type value for web form
	ApplicationXFORM = "application/x-www-form-urlencoded"
	// UserAgentHeader user agent header
	UserAgentHeader = "User-Agent"
	// Accept HTTP Accept header
	Accept = "Accept"
	// PassThroughStringNewLineFMT string formatter to make lint happy
	PassThroughStringNewLineFMT = "%s\n"

	// DotBmxDir the dot directory for bmx state
	DotBmxDir = ".bmx"
	// ConfigFileName global bmx config file name inside DotBmxDir
	ConfigFileName = "config"
	// SessionsFileName cached Okta sessions file name inside DotBmxDir
	SessionsFileName = "sessions"
	// CredentialsCacheFileName cached AWS credentials file name inside DotBmxDir
	CredentialsCacheFileName = "accounts"
)

// DotBmxDirPath path to $HOME/.bmx
func DotBmxDirPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, DotBmxDir), nil
}

// ConfigPath path to the global config file $HOME/.bmx/config
func ConfigPath() (string, error) {
	dir, err := DotBmxDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// SessionsPath path to the cached Okta sessions file $HOME/.bmx/sessions
func SessionsPath() (string, error) {
	dir, err := DotBmxDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SessionsFileName), nil
}

// CredentialsCachePath path to the cached AWS credentials file $HOME/.bmx/accounts
func CredentialsCachePath() (string, error) {
	dir, err := DotBmxDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, CredentialsCacheFileName), nil
}

// ConfigFileExists reports whether the global config file is present. Session
// caching is only enabled on machines that have run `bmx configure`.
func ConfigFileExists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteDotBmxFile writes data to $HOME/.bmx/<name> with owner-only permissions,
// creating the directory if needed. Write is temp-file-then-rename so readers
// never observe a partial file.
func WriteDotBmxFile(name string, data []byte) error {
	dir, err := DotBmxDirPath()
	if err != nil {
		return err
	}
	// noop if dir exists
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err = os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, name))
}
