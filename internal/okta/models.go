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

package okta

import (
	"strings"
	"time"
)

// AuthStatus tag for the AuthResult variant
type AuthStatus string

const (
	// AuthStatusSuccess authentication produced a session token
	AuthStatusSuccess AuthStatus = "SUCCESS"
	// AuthStatusMfaRequired authentication needs a second factor
	AuthStatusMfaRequired AuthStatus = "MFA_REQUIRED"
	// AuthStatusFailure authentication failed
	AuthStatusFailure AuthStatus = "FAILURE"
)

// AuthResult outcome of an authn or MFA verify call. Exactly one variant's
// fields are populated, selected by Status.
type AuthResult struct {
	Status       AuthStatus
	StatusCode   int
	SessionToken string
	StateToken   string
	Factors      []MfaFactor
}

// MfaKind broad handling category for an MFA factor
type MfaKind string

const (
	// MfaKindChallenge user types a code from the factor
	MfaKindChallenge MfaKind = "challenge"
	// MfaKindVerify user approves out of band, e.g. a push notification
	MfaKindVerify MfaKind = "verify"
	// MfaKindQuestion user answers a security question, input is echoed
	MfaKindQuestion MfaKind = "question"
	// MfaKindSms code delivered by SMS
	MfaKindSms MfaKind = "sms"
	// MfaKindUnknown unsupported factor, must be rejected before use
	MfaKindUnknown MfaKind = "unknown"
)

// MfaFactor one enrolled MFA factor from an authn response
type MfaFactor struct {
	ID         string `json:"id"`
	FactorType string `json:"factorType"`
	Provider   string `json:"provider"`
	VendorName string `json:"vendorName"`
	Profile    struct {
		QuestionText string `json:"questionText"`
	} `json:"profile"`
}

// Kind classifies the raw factor type. The check order matters, a type string
// can contain more than one matchable substring.
func (f MfaFactor) Kind() MfaKind {
	t := strings.ToLower(f.FactorType)
	switch {
	case strings.Contains(t, "token") || strings.Contains(t, "sms"):
		return MfaKindChallenge
	case strings.Contains(t, "push"):
		return MfaKindVerify
	case t == "question":
		return MfaKindQuestion
	}
	return MfaKindUnknown
}

// RequiresChallengeIssue factors that deliver their challenge out of band need
// an issue call before the user can respond.
func (f MfaFactor) RequiresChallengeIssue() bool {
	switch f.FactorType {
	case "sms", "call", "email":
		return true
	}
	return false
}

var factorNames = map[string]string{
	"question":           "Security Question",
	"token":              "Hardware Token",
	"token:hardware":     "Hardware TOTP",
	"token:software:totp": "Software TOTP",
	"token:hotp":         "HOTP",
	"sms":                "SMS",
	"call":               "Call",
	"email":              "Email",
	"push":               "Push",
}

// Name display name for factor selection prompts
func (f MfaFactor) Name() string {
	if name, ok := factorNames[f.FactorType]; ok {
		if f.Provider != "" && f.Provider != "OKTA" {
			return f.Provider + " " + name
		}
		return name
	}
	return f.Provider + " " + f.FactorType
}

// Session an Okta session, from sessions create or sessions/me
type Session struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ApplicationLink Okta API application link object.
// See: https://developer.okta.com/docs/api/openapi/okta-management/management/tag/User/#tag/User/operation/listAppLinks
type ApplicationLink struct {
	ID      string `json:"appInstanceId"`
	Label   string `json:"label"`
	Name    string `json:"appName"`
	LinkURL string `json:"linkUrl"`
}

// authnResponse raw wire shape of authn and authn verify responses
type authnResponse struct {
	Status       string    `json:"status"`
	StateToken   string    `json:"stateToken"`
	SessionToken string    `json:"sessionToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Embedded     struct {
		Factors []MfaFactor `json:"factors"`
	} `json:"_embedded"`
}
