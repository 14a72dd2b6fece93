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

package output

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"

	"github.com/bmxcli/bmx/internal/aws"
	"github.com/bmxcli/bmx/internal/config"
)

type captureLogger struct {
	infos []string
	warns []string
}

func (l *captureLogger) Info(format string, a ...any) (int, error) {
	l.infos = append(l.infos, fmt.Sprintf(format, a...))
	return 0, nil
}

func (l *captureLogger) Warn(format string, a ...any) (int, error) {
	l.warns = append(l.warns, fmt.Sprintf(format, a...))
	return 0, nil
}

func testCreds() *aws.Credentials {
	return &aws.Credentials{
		AccessKeyID:     "AKIA1",
		SecretAccessKey: "secret",
		SessionToken:    "token",
		Expiration:      time.Date(2009, 11, 11, 0, 0, 0, 0, time.UTC),
		Version:         aws.CredentialsVersion,
	}
}

func outputConfig(t *testing.T, attrs *config.Attributes) (*config.Config, *captureLogger) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.NewConfig(attrs)
	require.NoError(t, err)
	l := &captureLogger{}
	cfg.SetLogger(l)
	return cfg, l
}

func TestEnvVarOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell output only")
	}
	t.Setenv("PSModulePath", "")
	cfg, l := outputConfig(t, &config.Attributes{Org: "acme", User: "bob"})

	require.NoError(t, NewEnvVar().Output(cfg, testCreds()))

	joined := strings.Join(l.infos, "")
	require.Contains(t, joined, "export AWS_ACCESS_KEY_ID=AKIA1\n")
	require.Contains(t, joined, "export AWS_SECRET_ACCESS_KEY=secret\n")
	require.Contains(t, joined, "export AWS_SESSION_TOKEN=token\n")
}

func TestJSONOutput(t *testing.T) {
	cfg, l := outputConfig(t, &config.Attributes{Org: "acme", User: "bob", Output: config.JSONFormat})

	require.NoError(t, NewJSON().Output(cfg, testCreds()))

	require.Len(t, l.infos, 1)
	require.Contains(t, l.infos[0], `"Version": 1`)
	require.Contains(t, l.infos[0], `"AccessKeyId": "AKIA1"`)
	require.Contains(t, l.infos[0], `"Expiration": "2009-11-11T00:00:00Z"`)
}

func TestRenderCredentialsDefaultsToEnvVar(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell output only")
	}
	t.Setenv("PSModulePath", "")
	cfg, l := outputConfig(t, &config.Attributes{Org: "acme", User: "bob"})

	require.NoError(t, RenderCredentials(cfg, testCreds()))
	require.Contains(t, strings.Join(l.infos, ""), "export AWS_ACCESS_KEY_ID=AKIA1")
}

func TestAWSCredentialsFileOutput(t *testing.T) {
	dir := t.TempDir()
	credsPath := filepath.Join(dir, "credentials")
	cfg, _ := outputConfig(t, &config.Attributes{
		Org: "acme", User: "bob",
		Output:         config.AWSCredentialsFormat,
		Profile:        "bmx-dev",
		AWSCredentials: credsPath,
	})

	require.NoError(t, NewAWSCredentialsFile("bmx-dev").Output(cfg, testCreds()))

	file, err := ini.Load(credsPath)
	require.NoError(t, err)
	section := file.Section("bmx-dev")
	require.Equal(t, "AKIA1", section.Key("aws_access_key_id").String())
	require.Equal(t, "secret", section.Key("aws_secret_access_key").String())
	require.Equal(t, "token", section.Key("aws_session_token").String())

	info, err := os.Stat(credsPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAWSCredentialsFilePreservesOtherProfiles(t *testing.T) {
	dir := t.TempDir()
	credsPath := filepath.Join(dir, "credentials")
	require.NoError(t, os.WriteFile(credsPath, []byte("[other]\naws_access_key_id = KEEP\n"), 0o600))

	cfg, _ := outputConfig(t, &config.Attributes{
		Org: "acme", User: "bob",
		Output:         config.AWSCredentialsFormat,
		Profile:        "bmx-dev",
		AWSCredentials: credsPath,
	})

	require.NoError(t, NewAWSCredentialsFile("bmx-dev").Output(cfg, testCreds()))

	file, err := ini.Load(credsPath)
	require.NoError(t, err)
	require.Equal(t, "KEEP", file.Section("other").Key("aws_access_key_id").String())
	require.Equal(t, "AKIA1", file.Section("bmx-dev").Key("aws_access_key_id").String())
}
