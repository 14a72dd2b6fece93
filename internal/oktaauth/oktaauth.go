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

// Package oktaauth composes the session cache, desktop SSO probe, and the
// password+MFA state machine into one authentication decision procedure.
package oktaauth

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/dsso"
	"github.com/bmxcli/bmx/internal/logger"
	"github.com/bmxcli/bmx/internal/okta"
	"github.com/bmxcli/bmx/internal/prompter"
	"github.com/bmxcli/bmx/internal/utils"
)

// MissingInputError a required value is absent and prompting is not allowed
type MissingInputError struct {
	Field string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s value was not provided", e.Field)
}

// AuthenticationError Okta rejected the credentials, or no authentication
// path was available at all
type AuthenticationError struct {
	StatusCode int
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed (status %d)", e.StatusCode)
	}
	return "authentication failed"
}

// MfaUnsupportedError no usable MFA factor
type MfaUnsupportedError struct {
	Reason string
}

func (e *MfaUnsupportedError) Error() string {
	return fmt.Sprintf("MFA not supported: %s", e.Reason)
}

// MfaVerificationError the challenge response was rejected
type MfaVerificationError struct {
	StatusCode int
}

func (e *MfaVerificationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("MFA verification failed (status %d)", e.StatusCode)
	}
	return "MFA verification failed"
}

// Context an authenticated Okta client plus the identity it belongs to
type Context struct {
	Org    string
	User   string
	Client *okta.AuthenticatedClient
}

// anonymousAPI the pre-session Okta surface the flow drives
type anonymousAPI interface {
	Authenticate(ctx context.Context, user, password string) (*okta.AuthResult, error)
	IssueMfaChallenge(ctx context.Context, stateToken, factorID string) error
	VerifyMfaChallengeResponse(ctx context.Context, stateToken, factorID, response string) (*okta.AuthResult, error)
	CreateSession(ctx context.Context, sessionToken string) (*okta.Session, error)
}

type dssoProber interface {
	TryDsso(ctx context.Context, orgURL *url.URL, user string) (string, error)
}

// Authenticator the decision procedure over all authentication paths
type Authenticator struct {
	cfg      *config.Config
	prompter prompter.Prompter
	sessions *okta.SessionCache
	prober   dssoProber

	newAnonymousClient func(cfg *config.Config, org string) (anonymousAPI, error)
}

// NewAuthenticator Authenticator constructor
func NewAuthenticator(cfg *config.Config, p prompter.Prompter) *Authenticator {
	return &Authenticator{
		cfg:      cfg,
		prompter: p,
		sessions: okta.NewSessionCache(cfg),
		prober:   dsso.NewProber(cfg),
		newAnonymousClient: func(cfg *config.Config, org string) (anonymousAPI, error) {
			return okta.NewAnonymousClient(cfg, org)
		},
	}
}

// Authenticate resolves org/user, then tries the cached session, desktop SSO,
// and finally interactive password+MFA, in that order. There is no retry on
// any failure branch; the user re-invokes the command.
func (a *Authenticator) Authenticate(ctx context.Context) (*Context, error) {
	org, user, err := a.resolveInputs()
	if err != nil {
		return nil, err
	}

	if !a.cfg.IgnoreCache() {
		if entry, ok := a.sessions.Lookup(org, user); ok {
			// the cache is trusted optimistically; a revoked session only
			// surfaces as a downstream request failure
			client, err := okta.NewAuthenticatedClient(a.cfg, org, entry.SessionID)
			if err != nil {
				return nil, err
			}
			return &Context{Org: org, User: user, Client: client}, nil
		}
	}

	if a.cfg.DssoEnabled() {
		if authCtx, ok := a.tryDsso(ctx, org, user); ok {
			return authCtx, nil
		}
	}

	if a.cfg.NonInteractive() {
		return nil, &AuthenticationError{}
	}

	return a.authenticateInteractive(ctx, org, user)
}

// resolveInputs fills org and user from config, then prompts, then fails
func (a *Authenticator) resolveInputs() (string, string, error) {
	org := a.cfg.Org()
	user := a.cfg.User()
	var err error

	if org == "" {
		if a.cfg.NonInteractive() {
			return "", "", &MissingInputError{Field: "org"}
		}
		if org, err = a.prompter.PromptOrg(); err != nil {
			return "", "", err
		}
	}
	if user == "" {
		if a.cfg.NonInteractive() {
			return "", "", &MissingInputError{Field: "user"}
		}
		if user, err = a.prompter.PromptUser(); err != nil {
			return "", "", err
		}
	}
	return org, user, nil
}

// tryDsso a failed probe is never fatal, it just falls through
func (a *Authenticator) tryDsso(ctx context.Context, org, user string) (*Context, bool) {
	orgURL, err := okta.OrgURL(org)
	if err != nil {
		return nil, false
	}
	sessionID, err := a.prober.TryDsso(ctx, orgURL, user)
	if err != nil {
		return nil, false
	}

	client, err := okta.NewAuthenticatedClient(a.cfg, org, sessionID)
	if err != nil {
		return nil, false
	}
	session, err := client.GetCurrentSession(ctx)
	if err != nil {
		logger.Warning(a.cfg.Logger(), "desktop SSO session could not be validated: %v", err)
		return nil, false
	}

	a.cacheSession(org, user, sessionID, session)
	return &Context{Org: org, User: user, Client: client}, true
}

func (a *Authenticator) authenticateInteractive(ctx context.Context, org, user string) (*Context, error) {
	password, err := a.prompter.PromptPassword(user, org)
	if err != nil {
		return nil, err
	}

	anon, err := a.newAnonymousClient(a.cfg, org)
	if err != nil {
		return nil, err
	}
	result, err := anon.Authenticate(ctx, user, password)
	if err != nil {
		return nil, err
	}

	if result.Status == okta.AuthStatusMfaRequired {
		if result, err = a.verifyMfa(ctx, anon, result); err != nil {
			return nil, err
		}
	}

	switch result.Status {
	case okta.AuthStatusSuccess:
		session, err := anon.CreateSession(ctx, result.SessionToken)
		if err != nil {
			return nil, err
		}
		client, err := okta.NewAuthenticatedClient(a.cfg, org, session.ID)
		if err != nil {
			return nil, err
		}
		a.cacheSession(org, user, session.ID, session)
		return &Context{Org: org, User: user, Client: client}, nil
	default:
		return nil, &AuthenticationError{StatusCode: result.StatusCode}
	}
}

// verifyMfa drives one factor selection and challenge round. Only Success or
// Failure can come back from the verify call.
func (a *Authenticator) verifyMfa(ctx context.Context, anon anonymousAPI, result *okta.AuthResult) (*okta.AuthResult, error) {
	factor, err := a.prompter.SelectMfa(result.Factors)
	if err != nil {
		return nil, &MfaUnsupportedError{Reason: err.Error()}
	}

	if factor.RequiresChallengeIssue() {
		if err = anon.IssueMfaChallenge(ctx, result.StateToken, factor.ID); err != nil {
			return nil, err
		}
	}

	prompt := "PassCode:"
	masked := true
	if factor.Kind() == okta.MfaKindQuestion {
		prompt = "Answer:"
		if factor.Profile.QuestionText != "" {
			prompt = factor.Profile.QuestionText
		}
		masked = false
	}
	response, err := a.prompter.GetMfaResponse(prompt, masked)
	if err != nil {
		return nil, err
	}

	verified, err := anon.VerifyMfaChallengeResponse(ctx, result.StateToken, factor.ID, response)
	if err != nil {
		return nil, err
	}
	if verified.Status != okta.AuthStatusSuccess {
		return nil, &MfaVerificationError{StatusCode: verified.StatusCode}
	}
	return verified, nil
}

// cacheSession persists the session for reuse, but only on configured
// machines; an unconfigured machine gets a hint instead of a cache file.
func (a *Authenticator) cacheSession(org, user, sessionID string, session *okta.Session) {
	if !utils.ConfigFileExists() {
		logger.Warning(a.cfg.Logger(),
			"No config file found. Your Okta session will not be cached. Consider running `bmx configure` if you own this machine.")
		return
	}
	if err := a.sessions.Store(okta.SessionCacheEntry{
		UserID:    user,
		Org:       org,
		SessionID: sessionID,
		ExpiresAt: session.ExpiresAt,
	}); err != nil {
		logger.Warning(a.cfg.Logger(), "failed to cache okta session: %v", err)
	}
}
