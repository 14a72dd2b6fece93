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

// Package awscreds turns an authenticated Okta context into AWS credentials:
// pick the federation app, pull the SAML assertion off its login page, pick a
// role, and exchange or short-circuit through the credential cache.
package awscreds

import (
	"context"
	"strings"

	"github.com/bmxcli/bmx/internal/aws"
	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/okta"
	"github.com/bmxcli/bmx/internal/oktaauth"
	"github.com/bmxcli/bmx/internal/prompter"
	"github.com/bmxcli/bmx/internal/saml"
)

// Result brokered credentials plus the resolved names that produced them
type Result struct {
	Credentials aws.Credentials
	Account     string
	Role        string
}

type oktaAPI interface {
	GetAwsAccountApps(ctx context.Context) ([]okta.ApplicationLink, error)
	GetPage(ctx context.Context, pageURL string) (string, error)
}

type roleBroker interface {
	GetRoles(encodedSaml string) (*aws.RoleState, error)
	GetTokens(state *aws.RoleState, roleName string, durationMinutes int) (*aws.Credentials, error)
}

type credentialStore interface {
	Get(org, user, account, role string, durationMinutes int) (*aws.Credentials, bool)
	Set(org, user, account, role string, creds aws.Credentials) error
}

// Creator drives the account/role resolution and the STS exchange
type Creator struct {
	cfg      *config.Config
	prompter prompter.Prompter
	broker   roleBroker
	cache    credentialStore
	aliases  *config.Aliases
}

// NewCreator Creator constructor
func NewCreator(cfg *config.Config, p prompter.Prompter) *Creator {
	return &Creator{
		cfg:      cfg,
		prompter: p,
		broker:   aws.NewBroker(cfg),
		cache:    aws.NewCredentialCache(cfg),
		aliases:  config.LoadAliases(),
	}
}

// Create resolves account and role, then returns cached credentials when a
// live-enough entry exists, else performs the STS exchange and caches the
// outcome. The client argument is the authenticated context's Okta client.
func (c *Creator) Create(ctx context.Context, authCtx *oktaauth.Context, client oktaAPI) (*Result, error) {
	apps, err := client.GetAwsAccountApps(ctx)
	if err != nil {
		return nil, err
	}

	account := c.cfg.Account()
	if account == "" {
		if c.cfg.NonInteractive() {
			return nil, &oktaauth.MissingInputError{Field: "account"}
		}
		labels := make([]string, len(apps))
		for i, app := range apps {
			labels[i] = app.Label
		}
		if account, err = c.promptWithAliases(labels, c.aliases.AccountLabel, c.prompter.PromptAccount); err != nil {
			return nil, err
		}
	}

	var app *okta.ApplicationLink
	for i := range apps {
		if strings.EqualFold(apps[i].Label, account) {
			app = &apps[i]
			break
		}
	}
	if app == nil {
		return nil, &aws.AccountNotFoundError{Account: account}
	}

	loginHTML, err := client.GetPage(ctx, app.LinkURL)
	if err != nil {
		return nil, err
	}
	encodedSaml, err := saml.ExtractFromLoginPage(loginHTML)
	if err != nil {
		return nil, err
	}
	state, err := c.broker.GetRoles(encodedSaml)
	if err != nil {
		return nil, err
	}

	role := c.cfg.Role()
	if role == "" {
		if c.cfg.NonInteractive() {
			return nil, &oktaauth.MissingInputError{Field: "role"}
		}
		names := make([]string, len(state.Roles))
		for i, r := range state.Roles {
			names[i] = r.RoleName
		}
		if role, err = c.promptWithAliases(names, c.aliases.RoleLabel, c.prompter.PromptRole); err != nil {
			return nil, err
		}
	}
	selected, ok := state.FindRole(role)
	if !ok {
		return nil, &aws.RoleNotFoundError{Role: role}
	}

	duration := c.cfg.Duration()

	if c.cfg.CacheAWSCredentials() {
		if creds, ok := c.cache.Get(authCtx.Org, authCtx.User, app.Label, selected.RoleName, duration); ok {
			return &Result{Credentials: *creds, Account: app.Label, Role: selected.RoleName}, nil
		}
	}

	creds, err := c.broker.GetTokens(state, selected.RoleName, duration)
	if err != nil {
		return nil, err
	}
	if c.cfg.CacheAWSCredentials() {
		if err := c.cache.Set(authCtx.Org, authCtx.User, app.Label, selected.RoleName, *creds); err != nil {
			return nil, err
		}
	}
	return &Result{Credentials: *creds, Account: app.Label, Role: selected.RoleName}, nil
}

// promptWithAliases shows friendly labels from aliases.yaml when present and
// maps the pick back to the real name
func (c *Creator) promptWithAliases(names []string, labelFor func(string) string, pick func([]string) (string, error)) (string, error) {
	displays := make([]string, len(names))
	byDisplay := make(map[string]string, len(names))
	for i, name := range names {
		display := labelFor(name)
		if display != name {
			display = display + " (" + name + ")"
		}
		displays[i] = display
		byDisplay[display] = name
	}
	picked, err := pick(displays)
	if err != nil {
		return "", err
	}
	return byDisplay[picked], nil
}
