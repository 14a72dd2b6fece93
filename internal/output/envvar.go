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
	"os"
	"runtime"

	"github.com/bmxcli/bmx/internal/aws"
	"github.com/bmxcli/bmx/internal/config"
)

// EnvVar shell export statement output formatter
type EnvVar struct{}

// NewEnvVar Creates a new EnvVar
func NewEnvVar() *EnvVar {
	return &EnvVar{}
}

// Output writes the credentials as statements for the invoking shell: $Env:
// assignments under PowerShell, setx on cmd, export everywhere else.
func (e *EnvVar) Output(cfg *config.Config, creds *aws.Credentials) error {
	l := cfg.Logger()
	if os.Getenv("PSModulePath") != "" {
		// we're on powershell
		l.Info("$Env:AWS_ACCESS_KEY_ID = \"%s\"\n", creds.AccessKeyID)
		l.Info("$Env:AWS_SECRET_ACCESS_KEY = \"%s\"\n", creds.SecretAccessKey)
		l.Info("$Env:AWS_SESSION_TOKEN = \"%s\"\n", creds.SessionToken)
	} else if runtime.GOOS == "windows" {
		l.Info("setx AWS_ACCESS_KEY_ID %s\n", creds.AccessKeyID)
		l.Info("setx AWS_SECRET_ACCESS_KEY %s\n", creds.SecretAccessKey)
		l.Info("setx AWS_SESSION_TOKEN %s\n", creds.SessionToken)
	} else {
		l.Info("export AWS_ACCESS_KEY_ID=%s\n", creds.AccessKeyID)
		l.Info("export AWS_SECRET_ACCESS_KEY=%s\n", creds.SecretAccessKey)
		l.Info("export AWS_SESSION_TOKEN=%s\n", creds.SessionToken)
	}
	return nil
}
