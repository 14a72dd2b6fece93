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

package prompter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bmxcli/bmx/internal/okta"
)

func testPrompter(input string) (*ConsolePrompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &ConsolePrompter{in: strings.NewReader(input), out: out}, out
}

func TestPromptOrg(t *testing.T) {
	p, out := testPrompter("acme\n")

	org, err := p.PromptOrg()
	require.NoError(t, err)
	require.Equal(t, "acme", org)
	require.Contains(t, out.String(), "Okta org:")
}

func TestPromptOrgEmptyInput(t *testing.T) {
	p, _ := testPrompter("\n")

	_, err := p.PromptOrg()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid org input")
}

func TestPromptUserTrimsWhitespace(t *testing.T) {
	p, _ := testPrompter("  bob@acme.com  \n")

	user, err := p.PromptUser()
	require.NoError(t, err)
	require.Equal(t, "bob@acme.com", user)
}

func TestPromptOptionalOrgAllowsBlank(t *testing.T) {
	p, out := testPrompter("\n")

	org, err := p.PromptOptionalOrg()
	require.NoError(t, err)
	require.Empty(t, org)
	require.Contains(t, out.String(), "Okta org (optional):")
}

func TestPromptOptionalUser(t *testing.T) {
	p, _ := testPrompter("bob@acme.com\n")

	user, err := p.PromptOptionalUser()
	require.NoError(t, err)
	require.Equal(t, "bob@acme.com", user)
}

func TestPromptDefaultDuration(t *testing.T) {
	p, _ := testPrompter("30\n")
	duration, err := p.PromptDefaultDuration(60)
	require.NoError(t, err)
	require.Equal(t, 30, duration)

	// blank input falls back
	p, _ = testPrompter("\n")
	duration, err = p.PromptDefaultDuration(60)
	require.NoError(t, err)
	require.Equal(t, 60, duration)

	// non-positive input falls back
	p, _ = testPrompter("-5\n")
	duration, err = p.PromptDefaultDuration(60)
	require.NoError(t, err)
	require.Equal(t, 60, duration)
}

func TestPromptAllowProjectConfig(t *testing.T) {
	p, _ := testPrompter("true\n")
	allow, err := p.PromptAllowProjectConfig()
	require.NoError(t, err)
	require.True(t, allow)

	p, _ = testPrompter("garbage\n")
	allow, err = p.PromptAllowProjectConfig()
	require.NoError(t, err)
	require.False(t, allow)
}

func TestSupportedMfaFactors(t *testing.T) {
	factors := []okta.MfaFactor{
		{ID: "a", FactorType: "token:software:totp", Provider: "OKTA"},
		{ID: "b", FactorType: "u2f", Provider: "OKTA"},
		{ID: "c", FactorType: "push", Provider: "OKTA"},
		{ID: "d", FactorType: "webauthn", Provider: "OKTA"},
	}

	supported := supportedMfaFactors(factors)
	require.Len(t, supported, 2)
	require.Equal(t, "a", supported[0].ID)
	require.Equal(t, "c", supported[1].ID)
}

func TestSelectMfaSingleSupportedFactor(t *testing.T) {
	// one usable factor needs no interaction at all
	p, _ := testPrompter("")
	factor, err := p.SelectMfa([]okta.MfaFactor{
		{ID: "a", FactorType: "u2f", Provider: "OKTA"},
		{ID: "b", FactorType: "push", Provider: "OKTA"},
	})
	require.NoError(t, err)
	require.Equal(t, "b", factor.ID)
}

func TestSelectMfaNoSupportedFactors(t *testing.T) {
	p, _ := testPrompter("")
	_, err := p.SelectMfa([]okta.MfaFactor{
		{ID: "a", FactorType: "u2f", Provider: "OKTA"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no supported MFA factors")
}

func TestGetMfaResponseUnmasked(t *testing.T) {
	p, out := testPrompter("first pet\n")

	answer, err := p.GetMfaResponse("What was your first pet's name?", false)
	require.NoError(t, err)
	require.Equal(t, "first pet", answer)
	require.Contains(t, out.String(), "What was your first pet's name?")
}
