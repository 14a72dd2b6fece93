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

// Package console turns brokered AWS credentials into a federation sign-in
// URL for the AWS web console and opens or prints it.
package console

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	osexec "os/exec"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/mdp/qrterminal"
	"github.com/pkg/browser"
	"github.com/pkg/errors"

	"github.com/bmxcli/bmx/internal/aws"
	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/utils"
)

const (
	federationEndpoint = "https://signin.aws.amazon.com/federation"
	consoleDestination = "https://console.aws.amazon.com/"
	signinIssuer       = "bmx"
)

// Console builds and presents the sign-in URL
type Console struct {
	cfg      *config.Config
	endpoint string
}

// NewConsole Console constructor
func NewConsole(cfg *config.Config) *Console {
	return &Console{cfg: cfg, endpoint: federationEndpoint}
}

// GetSigninToken exchanges the credentials for a federation signin token
func (c *Console) GetSigninToken(ctx context.Context, creds *aws.Credentials) (string, error) {
	session, err := json.Marshal(map[string]string{
		"sessionId":    creds.AccessKeyID,
		"sessionKey":   creds.SecretAccessKey,
		"sessionToken": creds.SessionToken,
	})
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("Action", "getSigninToken")
	query.Set("SessionDuration", strconv.Itoa(c.cfg.Duration()*60))
	query.Set("Session", string(session))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set(utils.Accept, utils.ApplicationJSON)
	req.Header.Set(utils.UserAgentHeader, "bmx/"+config.Version)

	resp, err := c.cfg.HTTPClient().Do(req)
	if err != nil {
		return "", errors.Wrap(err, "federation signin token request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("federation endpoint returned %s", resp.Status)
	}

	var payload struct {
		SigninToken string `json:"SigninToken"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errors.Wrap(err, "federation endpoint returned an invalid response")
	}
	return payload.SigninToken, nil
}

// SigninURL the login URL for a signin token
func (c *Console) SigninURL(signinToken string) string {
	query := url.Values{}
	query.Set("Action", "login")
	query.Set("Issuer", signinIssuer)
	query.Set("Destination", consoleDestination)
	query.Set("SigninToken", signinToken)
	return c.endpoint + "?" + query.Encode()
}

// Open presents the sign-in URL per the configured options: QR code, custom
// browser command, default browser, or plain print.
func (c *Console) Open(ctx context.Context, creds *aws.Credentials) error {
	signinToken, err := c.GetSigninToken(ctx, creds)
	if err != nil {
		return err
	}
	signinURL := c.SigninURL(signinToken)

	if c.cfg.QRCode() {
		buf := bytes.NewBufferString("")
		qrterminal.GenerateHalfBlock(signinURL, qrterminal.L, buf)
		_, _ = c.cfg.Logger().Warn(utils.PassThroughStringNewLineFMT, buf.String())
	}

	switch {
	case c.cfg.OpenBrowserCommand() != "":
		return c.openWithCommand(signinURL)
	case c.cfg.OpenBrowser():
		if err := browser.OpenURL(signinURL); err != nil {
			return errors.Wrap(err, "failed to open browser")
		}
		return nil
	default:
		_, err = c.cfg.Logger().Info("%s\n", signinURL)
		return err
	}
}

func (c *Console) openWithCommand(signinURL string) error {
	bCmd := c.cfg.OpenBrowserCommand()
	bArgs, err := shlex.Split(bCmd)
	if err != nil {
		return errors.Wrapf(err, "browser command %q is invalid", bCmd)
	}
	bArgs = append(bArgs, signinURL)
	cmd := osexec.Command(bArgs[0], bArgs[1:]...)
	if _, err := cmd.Output(); err != nil {
		_, _ = c.cfg.Logger().Warn("failed to open sign-in URL with given browser: %v\n", err)
		_, _ = c.cfg.Logger().Warn("  %s\n", strings.Join(bArgs, " "))
		return err
	}
	return nil
}
