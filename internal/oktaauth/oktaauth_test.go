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

package oktaauth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/okta"
	"github.com/bmxcli/bmx/internal/testutils"
	"github.com/bmxcli/bmx/internal/utils"
)

func writeConfigFile(t *testing.T) {
	require.NoError(t, utils.WriteDotBmxFile(utils.ConfigFileName, []byte("org = acme\n")))
}

type fakePrompter struct {
	password    string
	mfaResponse string

	passwordCalls int
	mfaPrompt     string
	mfaMasked     bool
}

func (p *fakePrompter) PromptOrg() (string, error)  { return "", errors.New("unexpected org prompt") }
func (p *fakePrompter) PromptUser() (string, error) { return "", errors.New("unexpected user prompt") }

func (p *fakePrompter) PromptPassword(user, org string) (string, error) {
	p.passwordCalls++
	return p.password, nil
}

func (p *fakePrompter) PromptAccount(accounts []string) (string, error) {
	return "", errors.New("unexpected account prompt")
}

func (p *fakePrompter) PromptRole(roles []string) (string, error) {
	return "", errors.New("unexpected role prompt")
}

func (p *fakePrompter) SelectMfa(factors []okta.MfaFactor) (okta.MfaFactor, error) {
	for _, f := range factors {
		if f.Kind() != okta.MfaKindUnknown {
			return f, nil
		}
	}
	return okta.MfaFactor{}, errors.New("no supported MFA factors are enrolled")
}

func (p *fakePrompter) GetMfaResponse(prompt string, masked bool) (string, error) {
	p.mfaPrompt = prompt
	p.mfaMasked = masked
	return p.mfaResponse, nil
}

type fakeAnonClient struct {
	authResult   *okta.AuthResult
	verifyResult *okta.AuthResult
	session      *okta.Session

	issuedFactorIDs   []string
	verifiedResponses []string
}

func (c *fakeAnonClient) Authenticate(_ context.Context, user, password string) (*okta.AuthResult, error) {
	return c.authResult, nil
}

func (c *fakeAnonClient) IssueMfaChallenge(_ context.Context, stateToken, factorID string) error {
	c.issuedFactorIDs = append(c.issuedFactorIDs, factorID)
	return nil
}

func (c *fakeAnonClient) VerifyMfaChallengeResponse(_ context.Context, stateToken, factorID, response string) (*okta.AuthResult, error) {
	c.verifiedResponses = append(c.verifiedResponses, response)
	return c.verifyResult, nil
}

func (c *fakeAnonClient) CreateSession(_ context.Context, sessionToken string) (*okta.Session, error) {
	return c.session, nil
}

type fakeProber struct {
	sessionID string
	err       error
	calls     int
}

func (p *fakeProber) TryDsso(_ context.Context, _ *url.URL, _ string) (string, error) {
	p.calls++
	return p.sessionID, p.err
}

func setupAuthTest(t *testing.T, attrs *config.Attributes) (*Authenticator, *fakePrompter) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.NewConfig(attrs)
	require.NoError(t, err)
	cfg.SetClock(testutils.NewTestClock())

	fp := &fakePrompter{password: "hunter2", mfaResponse: "123456"}
	a := NewAuthenticator(cfg, fp)
	a.prober = &fakeProber{err: errors.New("browser unavailable")}
	return a, fp
}

func TestAuthenticateUsesCachedSession(t *testing.T) {
	a, fp := setupAuthTest(t, &config.Attributes{Org: "acme", User: "bob", NoDsso: true})
	now := testutils.TestClock{}.Now()

	require.NoError(t, a.sessions.Store(okta.SessionCacheEntry{
		UserID:    "bob",
		Org:       "acme",
		SessionID: "101W_juydrDRByB7fUdRyE2JQ",
		ExpiresAt: now.Add(time.Hour),
	}))

	authCtx, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "acme", authCtx.Org)
	require.Equal(t, "bob", authCtx.User)
	require.Equal(t, "101W_juydrDRByB7fUdRyE2JQ", authCtx.Client.SessionID())
	require.Zero(t, fp.passwordCalls)
}

func TestAuthenticateIgnoreCacheSkipsLookup(t *testing.T) {
	a, _ := setupAuthTest(t, &config.Attributes{
		Org: "acme", User: "bob", NoDsso: true, IgnoreCache: true, NonInteractive: true,
	})
	now := testutils.TestClock{}.Now()

	require.NoError(t, a.sessions.Store(okta.SessionCacheEntry{
		UserID:    "bob",
		Org:       "acme",
		SessionID: "101W_juydrDRByB7fUdRyE2JQ",
		ExpiresAt: now.Add(time.Hour),
	}))

	_, err := a.Authenticate(context.Background())
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestAuthenticateNonInteractiveMissingOrg(t *testing.T) {
	a, _ := setupAuthTest(t, &config.Attributes{User: "bob", NoDsso: true, NonInteractive: true})

	_, err := a.Authenticate(context.Background())
	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "org", missing.Field)
}

func TestAuthenticateNonInteractiveNoSession(t *testing.T) {
	a, fp := setupAuthTest(t, &config.Attributes{
		Org: "acme", User: "bob", NoDsso: true, NonInteractive: true,
	})

	_, err := a.Authenticate(context.Background())
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Zero(t, fp.passwordCalls)
}

func TestAuthenticateDssoFailureFallsThrough(t *testing.T) {
	a, _ := setupAuthTest(t, &config.Attributes{
		Org: "acme", User: "bob", NonInteractive: true,
	})
	prober := &fakeProber{err: errors.New("browser unavailable")}
	a.prober = prober

	_, err := a.Authenticate(context.Background())
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, 1, prober.calls)
}

func TestAuthenticatePasswordSuccess(t *testing.T) {
	a, fp := setupAuthTest(t, &config.Attributes{Org: "acme", User: "bob", NoDsso: true})
	anon := &fakeAnonClient{
		authResult: &okta.AuthResult{Status: okta.AuthStatusSuccess, SessionToken: "20111aKnsMEBKLPcTlByyoOV"},
		session: &okta.Session{
			ID:        "101W_juydrDRByB7fUdRyE2JQ",
			ExpiresAt: testutils.TestClock{}.Now().Add(2 * time.Hour),
		},
	}
	a.newAnonymousClient = func(*config.Config, string) (anonymousAPI, error) { return anon, nil }

	authCtx, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, fp.passwordCalls)
	require.Equal(t, "101W_juydrDRByB7fUdRyE2JQ", authCtx.Client.SessionID())

	// no config file on this machine, so the session must not be cached
	_, ok := a.sessions.Lookup("acme", "bob")
	require.False(t, ok)
}

func TestAuthenticatePasswordFailure(t *testing.T) {
	a, _ := setupAuthTest(t, &config.Attributes{Org: "acme", User: "bob", NoDsso: true})
	anon := &fakeAnonClient{
		authResult: &okta.AuthResult{Status: okta.AuthStatusFailure, StatusCode: 401},
	}
	a.newAnonymousClient = func(*config.Config, string) (anonymousAPI, error) { return anon, nil }

	_, err := a.Authenticate(context.Background())
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, 401, authErr.StatusCode)
}

func TestAuthenticateMfaSmsFlow(t *testing.T) {
	a, fp := setupAuthTest(t, &config.Attributes{Org: "acme", User: "bob", NoDsso: true})
	anon := &fakeAnonClient{
		authResult: &okta.AuthResult{
			Status:     okta.AuthStatusMfaRequired,
			StateToken: "00lMJySRYNz3SYyM3xcP",
			Factors: []okta.MfaFactor{
				{ID: "sms9hmdk2qvhjOQQ30g3", FactorType: "sms", Provider: "OKTA"},
			},
		},
		verifyResult: &okta.AuthResult{Status: okta.AuthStatusSuccess, SessionToken: "20111aKnsMEBKLPcTlByyoOV"},
		session: &okta.Session{
			ID:        "101W_juydrDRByB7fUdRyE2JQ",
			ExpiresAt: testutils.TestClock{}.Now().Add(2 * time.Hour),
		},
	}
	a.newAnonymousClient = func(*config.Config, string) (anonymousAPI, error) { return anon, nil }

	authCtx, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "101W_juydrDRByB7fUdRyE2JQ", authCtx.Client.SessionID())

	// sms needs the out-of-band challenge issued before the response prompt
	require.Equal(t, []string{"sms9hmdk2qvhjOQQ30g3"}, anon.issuedFactorIDs)
	require.Equal(t, []string{"123456"}, anon.verifiedResponses)
	require.True(t, fp.mfaMasked)
	require.Equal(t, "PassCode:", fp.mfaPrompt)
}

func TestAuthenticateMfaQuestionEchoes(t *testing.T) {
	a, fp := setupAuthTest(t, &config.Attributes{Org: "acme", User: "bob", NoDsso: true})
	factor := okta.MfaFactor{ID: "qst1abc", FactorType: "question", Provider: "OKTA"}
	factor.Profile.QuestionText = "What was your first pet's name?"
	anon := &fakeAnonClient{
		authResult: &okta.AuthResult{
			Status:     okta.AuthStatusMfaRequired,
			StateToken: "00lMJySRYNz3SYyM3xcP",
			Factors:    []okta.MfaFactor{factor},
		},
		verifyResult: &okta.AuthResult{Status: okta.AuthStatusSuccess, SessionToken: "20111aKnsMEBKLPcTlByyoOV"},
		session: &okta.Session{
			ID:        "101W_juydrDRByB7fUdRyE2JQ",
			ExpiresAt: testutils.TestClock{}.Now().Add(2 * time.Hour),
		},
	}
	a.newAnonymousClient = func(*config.Config, string) (anonymousAPI, error) { return anon, nil }

	_, err := a.Authenticate(context.Background())
	require.NoError(t, err)

	require.Empty(t, anon.issuedFactorIDs)
	require.False(t, fp.mfaMasked)
	require.Equal(t, "What was your first pet's name?", fp.mfaPrompt)
}

func TestAuthenticateMfaUnsupported(t *testing.T) {
	a, _ := setupAuthTest(t, &config.Attributes{Org: "acme", User: "bob", NoDsso: true})
	anon := &fakeAnonClient{
		authResult: &okta.AuthResult{
			Status:     okta.AuthStatusMfaRequired,
			StateToken: "00lMJySRYNz3SYyM3xcP",
			Factors: []okta.MfaFactor{
				{ID: "u2f1abc", FactorType: "u2f", Provider: "OKTA"},
			},
		},
	}
	a.newAnonymousClient = func(*config.Config, string) (anonymousAPI, error) { return anon, nil }

	_, err := a.Authenticate(context.Background())
	var unsupported *MfaUnsupportedError
	require.ErrorAs(t, err, &unsupported)
}

func TestAuthenticateMfaVerificationFailure(t *testing.T) {
	a, _ := setupAuthTest(t, &config.Attributes{Org: "acme", User: "bob", NoDsso: true})
	anon := &fakeAnonClient{
		authResult: &okta.AuthResult{
			Status:     okta.AuthStatusMfaRequired,
			StateToken: "00lMJySRYNz3SYyM3xcP",
			Factors: []okta.MfaFactor{
				{ID: "ostf2gsyictRQDSGS0g3", FactorType: "token:software:totp", Provider: "OKTA"},
			},
		},
		verifyResult: &okta.AuthResult{Status: okta.AuthStatusFailure, StatusCode: 403},
	}
	a.newAnonymousClient = func(*config.Config, string) (anonymousAPI, error) { return anon, nil }

	_, err := a.Authenticate(context.Background())
	var verifyErr *MfaVerificationError
	require.ErrorAs(t, err, &verifyErr)
	require.Equal(t, 403, verifyErr.StatusCode)
	require.Equal(t, "MFA verification failed (status 403)", verifyErr.Error())
}

func TestAuthenticateCachesSessionWhenConfigured(t *testing.T) {
	a, _ := setupAuthTest(t, &config.Attributes{Org: "acme", User: "bob", NoDsso: true})
	writeConfigFile(t)

	anon := &fakeAnonClient{
		authResult: &okta.AuthResult{Status: okta.AuthStatusSuccess, SessionToken: "20111aKnsMEBKLPcTlByyoOV"},
		session: &okta.Session{
			ID:        "101W_juydrDRByB7fUdRyE2JQ",
			ExpiresAt: testutils.TestClock{}.Now().Add(2 * time.Hour),
		},
	}
	a.newAnonymousClient = func(*config.Config, string) (anonymousAPI, error) { return anon, nil }

	_, err := a.Authenticate(context.Background())
	require.NoError(t, err)

	entry, ok := a.sessions.Lookup("acme", "bob")
	require.True(t, ok)
	require.Equal(t, "101W_juydrDRByB7fUdRyE2JQ", entry.SessionID)
}
