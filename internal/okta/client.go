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

// Package okta is the REST boundary to Okta. The anonymous client covers the
// authn and MFA endpoints used before a session exists; the authenticated
// client rides a session cookie for app listing and page fetches.
package okta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/paginator"
	"github.com/bmxcli/bmx/internal/utils"
)

const (
	amazonAWS     = "amazon_aws"
	sidCookieName = "sid"
)

// OrgURL resolves an org value to its Okta base URL. Bare names become
// name.okta.com, anything with a dot is taken as a full domain.
func OrgURL(org string) (*url.URL, error) {
	if !strings.Contains(org, "://") {
		if strings.Contains(org, ".") {
			org = "https://" + org
		} else {
			org = fmt.Sprintf("https://%s.okta.com", org)
		}
	}
	u, err := url.Parse(org)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid org %q", org)
	}
	return u, nil
}

// AnonymousClient Okta API surface available before authentication
type AnonymousClient struct {
	orgURL     *url.URL
	httpClient *http.Client
}

// NewAnonymousClient AnonymousClient constructor
func NewAnonymousClient(cfg *config.Config, org string) (*AnonymousClient, error) {
	u, err := OrgURL(org)
	if err != nil {
		return nil, err
	}
	return &AnonymousClient{
		orgURL:     u,
		httpClient: cfg.HTTPClient(),
	}, nil
}

func (c *AnonymousClient) apiURL(p string) string {
	u := *c.orgURL
	u.Path = "/api/v1/" + p
	return u.String()
}

func (c *AnonymousClient) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL(path), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set(utils.ContentType, utils.ApplicationJSON)
	req.Header.Set(utils.Accept, utils.ApplicationJSON)
	req.Header.Set(utils.UserAgentHeader, "bmx/"+config.Version)
	return c.httpClient.Do(req)
}

// Authenticate primary credentials check against the authn endpoint. A bad
// password is not an error, it is an AuthResult failure variant.
func (c *AnonymousClient) Authenticate(ctx context.Context, user, password string) (*AuthResult, error) {
	resp, err := c.post(ctx, "authn", map[string]string{
		"username": user,
		"password": password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "okta authentication request failed")
	}
	defer resp.Body.Close()

	var raw authnResponse
	if err = json.NewDecoder(resp.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "okta returned an invalid authn response")
	}
	switch {
	case raw.SessionToken != "" && raw.Status == string(AuthStatusSuccess):
		return &AuthResult{Status: AuthStatusSuccess, SessionToken: raw.SessionToken}, nil
	case raw.StateToken != "" && raw.Status == string(AuthStatusMfaRequired) && raw.Embedded.Factors != nil:
		return &AuthResult{
			Status:     AuthStatusMfaRequired,
			StateToken: raw.StateToken,
			Factors:    raw.Embedded.Factors,
		}, nil
	}
	return &AuthResult{Status: AuthStatusFailure, StatusCode: resp.StatusCode}, nil
}

// IssueMfaChallenge asks Okta to deliver an out-of-band challenge, e.g. send
// the SMS code. The response payload carries nothing the flow needs.
func (c *AnonymousClient) IssueMfaChallenge(ctx context.Context, stateToken, factorID string) error {
	resp, err := c.post(ctx, fmt.Sprintf("authn/factors/%s/verify", factorID), map[string]string{
		"stateToken": stateToken,
	})
	if err != nil {
		return errors.Wrap(err, "error starting MFA challenge")
	}
	defer resp.Body.Close()
	return NewAPIError(resp)
}

// VerifyMfaChallengeResponse submits the user's challenge response
func (c *AnonymousClient) VerifyMfaChallengeResponse(ctx context.Context, stateToken, factorID, response string) (*AuthResult, error) {
	resp, err := c.post(ctx, fmt.Sprintf("authn/factors/%s/verify", factorID), map[string]string{
		"stateToken": stateToken,
		"passCode":   response,
	})
	if err != nil {
		return nil, errors.Wrap(err, "okta MFA verification request failed")
	}
	defer resp.Body.Close()

	var raw authnResponse
	if err = json.NewDecoder(resp.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "okta returned an invalid MFA verify response")
	}
	if raw.SessionToken != "" {
		return &AuthResult{Status: AuthStatusSuccess, SessionToken: raw.SessionToken}, nil
	}
	return &AuthResult{Status: AuthStatusFailure, StatusCode: resp.StatusCode}, nil
}

// CreateSession exchanges a session token for a long lived session
func (c *AnonymousClient) CreateSession(ctx context.Context, sessionToken string) (*Session, error) {
	resp, err := c.post(ctx, "sessions", map[string]string{
		"sessionToken": sessionToken,
	})
	if err != nil {
		return nil, errors.Wrap(err, "request to create okta session failed")
	}
	defer resp.Body.Close()
	if err = NewAPIError(resp); err != nil {
		return nil, err
	}

	var session Session
	if err = json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, errors.Wrap(err, "okta returned an invalid session response")
	}
	return &session, nil
}

// AuthenticatedClient Okta API surface keyed by a session cookie
type AuthenticatedClient struct {
	orgURL     *url.URL
	sessionID  string
	httpClient *http.Client
}

// NewAuthenticatedClient AuthenticatedClient constructor
func NewAuthenticatedClient(cfg *config.Config, org, sessionID string) (*AuthenticatedClient, error) {
	u, err := OrgURL(org)
	if err != nil {
		return nil, err
	}
	return &AuthenticatedClient{
		orgURL:     u,
		sessionID:  sessionID,
		httpClient: cfg.HTTPClient(),
	}, nil
}

// SessionID the session this client rides on
func (c *AuthenticatedClient) SessionID() string { return c.sessionID }

func (c *AuthenticatedClient) get(ctx context.Context, fullURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(utils.Accept, utils.ApplicationJSON)
	req.Header.Set(utils.UserAgentHeader, "bmx/"+config.Version)
	req.AddCookie(&http.Cookie{Name: sidCookieName, Value: c.sessionID})
	return c.httpClient.Do(req)
}

// GetAwsAccountApps lists the user's app links filtered to the AWS federation
// app type. One app link per AWS account.
func (c *AuthenticatedClient) GetAwsAccountApps(_ context.Context) ([]ApplicationLink, error) {
	u := *c.orgURL
	u.Path = "/api/v1/users/me/appLinks"
	headers := map[string]string{
		utils.Accept:          utils.ApplicationJSON,
		utils.UserAgentHeader: "bmx/" + config.Version,
		"Cookie":              fmt.Sprintf("%s=%s", sidCookieName, c.sessionID),
	}

	links := []ApplicationLink{}
	pgntr := paginator.NewPaginator(c.httpClient, &u, &headers, nil)
	resp, err := pgntr.GetItems(&links)
	if err != nil {
		return nil, errors.Wrap(err, "request to retrieve AWS accounts from okta failed")
	}
	for resp.HasNextPage() {
		var page []ApplicationLink
		if resp, err = resp.Next(&page); err != nil {
			return nil, errors.Wrap(err, "request to retrieve AWS accounts from okta failed")
		}
		links = append(links, page...)
	}

	apps := make([]ApplicationLink, 0, len(links))
	for _, link := range links {
		if link.Name != amazonAWS {
			continue
		}
		apps = append(apps, link)
	}
	return apps, nil
}

// GetCurrentSession fetches the session the cookie belongs to, including its
// real expiry
func (c *AuthenticatedClient) GetCurrentSession(ctx context.Context) (*Session, error) {
	u := *c.orgURL
	u.Path = "/api/v1/sessions/me"
	resp, err := c.get(ctx, u.String())
	if err != nil {
		return nil, errors.Wrap(err, "request to retrieve okta session failed")
	}
	defer resp.Body.Close()
	if err = NewAPIError(resp); err != nil {
		return nil, err
	}

	var session Session
	if err = json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, errors.Wrap(err, "okta returned an invalid session response")
	}
	return &session, nil
}

// GetPage fetches an HTML page, typically an app link URL, under the session
// cookie
func (c *AuthenticatedClient) GetPage(ctx context.Context, pageURL string) (string, error) {
	resp, err := c.get(ctx, pageURL)
	if err != nil {
		return "", errors.Wrapf(err, "request for page %q failed", pageURL)
	}
	defer resp.Body.Close()
	if err = NewAPIError(resp); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
