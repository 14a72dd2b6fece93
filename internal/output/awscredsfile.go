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
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"github.com/bmxcli/bmx/internal/aws"
	"github.com/bmxcli/bmx/internal/config"
)

// AWSCredentialsFile AWS credentials file output formatter
type AWSCredentialsFile struct {
	profile string
}

// NewAWSCredentialsFile Creates a new AWSCredentialsFile
func NewAWSCredentialsFile(profile string) *AWSCredentialsFile {
	return &AWSCredentialsFile{profile: profile}
}

type credsFileSection struct {
	AccessKeyID     string `ini:"aws_access_key_id"`
	SecretAccessKey string `ini:"aws_secret_access_key"`
	SessionToken    string `ini:"aws_session_token"`
}

// DefaultCredentialsPath ~/.aws/credentials
func DefaultCredentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".aws", "credentials"), nil
}

// Output upserts the profile section in the credentials file, leaving every
// other profile untouched
func (e *AWSCredentialsFile) Output(cfg *config.Config, creds *aws.Credentials) error {
	filename := cfg.AWSCredentials()
	if filename == "" {
		var err error
		if filename, err = DefaultCredentialsPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o700); err != nil {
		return errors.Wrapf(err, "unable to create %s", filepath.Dir(filename))
	}

	file, err := ini.LooseLoad(filename)
	if err != nil {
		return errors.Wrapf(err, "unable to load %s", filename)
	}
	file.DeleteSection(e.profile)
	section, err := file.NewSection(e.profile)
	if err != nil {
		return err
	}
	if err = section.ReflectFrom(&credsFileSection{
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		SessionToken:    creds.SessionToken,
	}); err != nil {
		return err
	}

	if err = file.SaveTo(filename); err != nil {
		return errors.Wrapf(err, "unable to write %s", filename)
	}
	return os.Chmod(filename, 0o600)
}
