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

// Package output renders brokered AWS credentials in the formats bmx print
// supports.
package output

import (
	"github.com/bmxcli/bmx/internal/aws"
	"github.com/bmxcli/bmx/internal/config"
)

// Outputter renders credentials in one format
type Outputter interface {
	Output(cfg *config.Config, creds *aws.Credentials) error
}

// RenderCredentials renders the credentials in the configured format
func RenderCredentials(cfg *config.Config, creds *aws.Credentials) error {
	var o Outputter
	switch cfg.Output() {
	case config.JSONFormat:
		o = NewJSON()
	case config.AWSCredentialsFormat:
		o = NewAWSCredentialsFile(cfg.Profile())
	default:
		o = NewEnvVar()
	}
	return o.Output(cfg, creds)
}
