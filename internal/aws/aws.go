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

// Package aws brokers a SAML assertion into short lived AWS credentials and
// caches them on disk.
package aws

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sts"

	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/saml"
)

// CredentialsVersion schema version tag persisted with each credential
const CredentialsVersion = 1

// Credentials short lived AWS credentials
type Credentials struct {
	AccessKeyID     string    `json:"accessKeyId"`
	SecretAccessKey string    `json:"secretAccessKey"`
	SessionToken    string    `json:"sessionToken"`
	Expiration      time.Time `json:"expiration"`
	Version         int       `json:"version"`
}

// RoleState the roles offered by one account's SAML assertion, kept together
// with the assertion they came from so the exchange can reuse it
type RoleState struct {
	Roles      []saml.Role
	SamlString string
}

// RoleNotFoundError the requested role is not in the assertion
type RoleNotFoundError struct {
	Role string
}

func (e *RoleNotFoundError) Error() string {
	return fmt.Sprintf("role %q could not be found", e.Role)
}

// AccountNotFoundError the requested account has no matching federation app
type AccountNotFoundError struct {
	Account string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %q could not be found", e.Account)
}

// Broker wraps SAML role listing and the STS token exchange
type Broker struct {
	cfg *config.Config
}

// NewBroker Broker constructor
func NewBroker(cfg *config.Config) *Broker {
	return &Broker{cfg: cfg}
}

// GetRoles lists the assumable roles carried by an encoded SAML assertion
func (b *Broker) GetRoles(encodedSaml string) (*RoleState, error) {
	roles, err := saml.ExtractRoles(encodedSaml)
	if err != nil {
		return nil, err
	}
	return &RoleState{Roles: roles, SamlString: encodedSaml}, nil
}

// FindRole case-insensitive role lookup in the state
func (s *RoleState) FindRole(roleName string) (saml.Role, bool) {
	for _, r := range s.Roles {
		if strings.EqualFold(r.RoleName, roleName) {
			return r, true
		}
	}
	return saml.Role{}, false
}

// GetTokens exchanges the state's assertion for credentials of the selected
// role via STS AssumeRoleWithSAML. durationMinutes is threaded through for the
// cache freshness check only; the STS call issues its default lifetime.
func (b *Broker) GetTokens(state *RoleState, roleName string, durationMinutes int) (*Credentials, error) {
	role, ok := state.FindRole(roleName)
	if !ok {
		return nil, &RoleNotFoundError{Role: roleName}
	}

	sess, err := session.NewSession(aws.NewConfig().WithHTTPClient(b.cfg.HTTPClient()))
	if err != nil {
		return nil, err
	}
	svc := sts.New(sess)
	input := &sts.AssumeRoleWithSAMLInput{
		PrincipalArn:  aws.String(role.PrincipalArn),
		RoleArn:       aws.String(role.RoleArn),
		SAMLAssertion: aws.String(state.SamlString),
	}
	svcResp, err := svc.AssumeRoleWithSAML(input)
	if err != nil {
		return nil, err
	}

	creds := &Credentials{
		AccessKeyID:     *svcResp.Credentials.AccessKeyId,
		SecretAccessKey: *svcResp.Credentials.SecretAccessKey,
		SessionToken:    *svcResp.Credentials.SessionToken,
		Version:         CredentialsVersion,
	}
	if svcResp.Credentials.Expiration != nil {
		creds.Expiration = *svcResp.Credentials.Expiration
	}
	return creds, nil
}
