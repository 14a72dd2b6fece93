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

// Package dsso attempts a passive desktop single sign-on against the Okta org
// by driving a headless browser and harvesting the existing session cookie.
// Every failure here is non-fatal; the caller falls back to interactive auth.
package dsso

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	cdpbackoff "github.com/cenkalti/backoff/v4"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/bmxcli/bmx/internal/backoff"
	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/logger"
)

const (
	// DefaultTimeout shared deadline for both probe signals
	DefaultTimeout = 10 * time.Second

	// maxNavRetries navigation attempts when the root path shows a login form
	maxNavRetries = 3

	cookiePollInterval = 500 * time.Millisecond
	sessionCookieName  = "sid"
)

// ErrUnavailable DSSO could not produce a session; fall back to interactive
var ErrUnavailable = errors.New("desktop SSO unavailable")

// Prober drives the headless browser probe
type Prober struct {
	cfg *config.Config
}

// NewProber Prober constructor
func NewProber(cfg *config.Config) *Prober {
	return &Prober{cfg: cfg}
}

// TryDsso navigates to the org home page and waits for two signals: the
// session cookie and the logged-in user's login from an intercepted API
// response. Both must arrive before the deadline and the login's local part
// must match user's, case-insensitively. Any failure returns ErrUnavailable.
func (p *Prober) TryDsso(ctx context.Context, orgURL *url.URL, user string) (string, error) {
	profileDir := filepath.Join(os.TempDir(), "bmx-dsso-"+uuid.New().String())
	defer os.RemoveAll(profileDir)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.UserDataDir(profileDir),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	probeCtx, cancelProbe := context.WithTimeout(browserCtx, DefaultTimeout)
	defer cancelProbe()

	// one-shot result slots
	sessionCh := make(chan string, 1)
	loginCh := make(chan string, 1)

	watchLoginResponses(probeCtx, loginCh)

	if err := chromedp.Run(probeCtx,
		network.Enable(),
		chromedp.Navigate(orgURL.String()),
	); err != nil {
		return "", fmt.Errorf("%w: browser launch failed: %v", ErrUnavailable, err)
	}

	go p.watchSessionCookie(probeCtx, orgURL, sessionCh)

	var sessionID, login string
	for sessionID == "" || login == "" {
		select {
		case sessionID = <-sessionCh:
		case login = <-loginCh:
		case <-probeCtx.Done():
			return "", fmt.Errorf("%w: timed out waiting for session", ErrUnavailable)
		}
	}

	if !localPartsMatch(login, user) {
		logger.Warning(p.cfg.Logger(), "desktop SSO session belongs to %q, not %q; ignoring it", login, user)
		return "", fmt.Errorf("%w: session user mismatch", ErrUnavailable)
	}
	return sessionID, nil
}

// watchSessionCookie polls for the Okta session cookie once the page settles.
// A login form at the root path means no ambient session; re-navigation is
// attempted up to maxNavRetries before giving up.
func (p *Prober) watchSessionCookie(ctx context.Context, orgURL *url.URL, sessionCh chan<- string) {
	navRetries := 0
	operation := func() error {
		var hasLoginForm bool
		err := chromedp.Run(ctx, chromedp.Evaluate(
			`!!document.querySelector('#okta-signin-submit, #okta-sign-in, form[data-se="o-form"]')`,
			&hasLoginForm,
		))
		if err != nil {
			return err
		}
		if hasLoginForm {
			navRetries++
			if navRetries >= maxNavRetries {
				return cdpbackoff.Permanent(errors.New("login form persisted"))
			}
			if err := chromedp.Run(ctx, chromedp.Navigate(orgURL.String())); err != nil {
				return err
			}
			return errors.New("login form shown, retrying navigation")
		}

		var sid string
		err = chromedp.Run(ctx, chromedp.ActionFunc(func(c context.Context) error {
			cookies, err := storage.GetCookies().Do(c)
			if err != nil {
				return err
			}
			for _, cookie := range cookies {
				if cookie.Name == sessionCookieName {
					sid = cookie.Value
					return nil
				}
			}
			return nil
		}))
		if err != nil {
			return err
		}
		if sid == "" {
			return errors.New("session cookie not present yet")
		}
		sessionCh <- sid
		return nil
	}
	_ = cdpbackoff.Retry(operation, backoff.NewBackoff(ctx, cookiePollInterval))
}

// watchLoginResponses intercepts background API responses on the home page
// and resolves the logged-in user's login from the first one that carries it.
func watchLoginResponses(ctx context.Context, loginCh chan<- string) {
	c := chromedp.FromContext(ctx)
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || !isUserInfoURL(resp.Response.URL) {
			return
		}
		requestID := resp.RequestID
		go func() {
			body, err := network.GetResponseBody(requestID).Do(cdp.WithExecutor(ctx, c.Target))
			if err != nil {
				return
			}
			if login := loginFromResponseBody(body); login != "" {
				select {
				case loginCh <- login:
				default:
				}
			}
		}()
	})
}

func isUserInfoURL(rawURL string) bool {
	return strings.Contains(rawURL, "/api/v1/users/me") ||
		strings.Contains(rawURL, "/enduser/api/v1/home")
}

// loginFromResponseBody pulls a login out of the user-info JSON, whether it
// sits at the top level or under profile.
func loginFromResponseBody(body []byte) string {
	var payload struct {
		Login   string `json:"login"`
		Profile struct {
			Login string `json:"login"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Login != "" {
		return payload.Login
	}
	return payload.Profile.Login
}

// localPartsMatch compares the part before @, case-insensitively
func localPartsMatch(a, b string) bool {
	return strings.EqualFold(localPart(a), localPart(b))
}

func localPart(login string) string {
	if idx := strings.Index(login, "@"); idx >= 0 {
		return login[:idx]
	}
	return login
}
