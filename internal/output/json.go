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
	"encoding/json"
	"time"

	"github.com/tidwall/pretty"

	"github.com/bmxcli/bmx/internal/aws"
	"github.com/bmxcli/bmx/internal/config"
)

// JSON credential_process compatible JSON output formatter
type JSON struct{}

// NewJSON Creates a new JSON
func NewJSON() *JSON {
	return &JSON{}
}

// jsonCredential the shape the AWS CLI credential_process contract expects
type jsonCredential struct {
	Version         int    `json:"Version"`
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	SessionToken    string `json:"SessionToken"`
	Expiration      string `json:"Expiration,omitempty"`
}

// Output writes the credentials as pretty printed JSON on stdout
func (j *JSON) Output(cfg *config.Config, creds *aws.Credentials) error {
	payload := jsonCredential{
		Version:         creds.Version,
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		SessionToken:    creds.SessionToken,
	}
	if !creds.Expiration.IsZero() {
		payload.Expiration = creds.Expiration.Format(time.RFC3339)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	cfg.Logger().Info("%s", pretty.Pretty(raw))
	return nil
}
