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

// Package prompter is the interactive console input surface for the login
// flow. Everything here writes prompts to stderr so stdout stays clean for
// credential output.
package prompter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/bmxcli/bmx/internal/okta"
	"github.com/bmxcli/bmx/internal/picker"
)

// ErrNotInteractive stdin is not a terminal, prompting is impossible
var ErrNotInteractive = errors.New("stdin is not an interactive terminal")

// Prompter collects the inputs the login flow cannot resolve from flags,
// environment, or config files.
type Prompter interface {
	PromptOrg() (string, error)
	PromptUser() (string, error)
	PromptPassword(user, org string) (string, error)
	PromptAccount(accounts []string) (string, error)
	PromptRole(roles []string) (string, error)
	SelectMfa(factors []okta.MfaFactor) (okta.MfaFactor, error)
	GetMfaResponse(prompt string, masked bool) (string, error)
}

// ConsolePrompter Prompter over the process terminal
type ConsolePrompter struct {
	in  io.Reader
	out io.Writer
}

// NewConsolePrompter ConsolePrompter on stdin/stderr
func NewConsolePrompter() *ConsolePrompter {
	return &ConsolePrompter{in: os.Stdin, out: os.Stderr}
}

// StdinIsInteractive reports whether prompting can work at all
func StdinIsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func (p *ConsolePrompter) ensureInteractive() error {
	if p.in != os.Stdin {
		return nil
	}
	if !StdinIsInteractive() {
		return ErrNotInteractive
	}
	return nil
}

func (p *ConsolePrompter) readLine(label string) (string, error) {
	if err := p.ensureInteractive(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, label)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *ConsolePrompter) readRequired(label, what string) (string, error) {
	value, err := p.readLine(label)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", fmt.Errorf("invalid %s input", what)
	}
	return value, nil
}

// PromptOrg asks for the Okta org shortname or full URL
func (p *ConsolePrompter) PromptOrg() (string, error) {
	return p.readRequired("Okta org: ", "org")
}

// PromptUser asks for the Okta username
func (p *ConsolePrompter) PromptUser() (string, error) {
	return p.readRequired("Okta username: ", "user")
}

// PromptOptionalOrg asks for the Okta org, allowing blank to leave it unset
func (p *ConsolePrompter) PromptOptionalOrg() (string, error) {
	return p.readLine("Okta org (optional): ")
}

// PromptOptionalUser asks for the Okta username, allowing blank
func (p *ConsolePrompter) PromptOptionalUser() (string, error) {
	return p.readLine("Okta username (optional): ")
}

// PromptProfile asks for the AWS profile name used by bmx write
func (p *ConsolePrompter) PromptProfile() (string, error) {
	return p.readRequired("AWS profile: ", "profile")
}

// PromptDefaultDuration asks for a default session duration in minutes.
// Blank or unparsable input falls back to the given default.
func (p *ConsolePrompter) PromptDefaultDuration(fallback int) (int, error) {
	label := fmt.Sprintf("Default duration of session in minutes (optional, default: %d): ", fallback)
	value, err := p.readLine(label)
	if err != nil {
		return 0, err
	}
	duration, err := strconv.Atoi(value)
	if err != nil || duration <= 0 {
		return fallback, nil
	}
	return duration, nil
}

// PromptAllowProjectConfig asks whether project level .bmx files may be read.
// Anything other than a parsable true is false.
func (p *ConsolePrompter) PromptAllowProjectConfig() (bool, error) {
	value, err := p.readLine("Allow project configs? (true/false, default: false): ")
	if err != nil {
		return false, err
	}
	allow, err := strconv.ParseBool(value)
	if err != nil {
		return false, nil
	}
	return allow, nil
}

// PromptPassword asks for the Okta password, masked
func (p *ConsolePrompter) PromptPassword(user, org string) (string, error) {
	if err := p.ensureInteractive(); err != nil {
		return "", err
	}
	return p.readSecret(fmt.Sprintf("Okta password for %s@%s:", user, org))
}

// PromptAccount fuzzy-picks an AWS account label
func (p *ConsolePrompter) PromptAccount(accounts []string) (string, error) {
	if err := p.ensureInteractive(); err != nil {
		return "", err
	}
	return picker.Pick("Choose an Account:", accounts)
}

// PromptRole fuzzy-picks a role name
func (p *ConsolePrompter) PromptRole(roles []string) (string, error) {
	if err := p.ensureInteractive(); err != nil {
		return "", err
	}
	return picker.Pick("Choose a Role:", roles)
}

// supportedMfaFactors the subset of factors the verify flow can drive
func supportedMfaFactors(factors []okta.MfaFactor) []okta.MfaFactor {
	supported := make([]okta.MfaFactor, 0, len(factors))
	for _, f := range factors {
		if f.Kind() == okta.MfaKindUnknown {
			continue
		}
		supported = append(supported, f)
	}
	return supported
}

// SelectMfa picks one usable MFA factor. Factors whose type the verify flow
// cannot drive are filtered out before the pick.
func (p *ConsolePrompter) SelectMfa(factors []okta.MfaFactor) (okta.MfaFactor, error) {
	supported := supportedMfaFactors(factors)
	if len(supported) == 0 {
		return okta.MfaFactor{}, errors.New("no supported MFA factors are enrolled")
	}
	if len(supported) == 1 {
		return supported[0], nil
	}
	if err := p.ensureInteractive(); err != nil {
		return okta.MfaFactor{}, err
	}

	names := make([]string, len(supported))
	byName := make(map[string]okta.MfaFactor, len(supported))
	for i, f := range supported {
		names[i] = f.Name()
		byName[f.Name()] = f
	}
	name, err := picker.Pick("Choose an MFA factor:", names)
	if err != nil {
		return okta.MfaFactor{}, err
	}
	return byName[name], nil
}

// GetMfaResponse reads the challenge response. Security questions echo their
// answer, everything else is masked.
func (p *ConsolePrompter) GetMfaResponse(prompt string, masked bool) (string, error) {
	if masked {
		if err := p.ensureInteractive(); err != nil {
			return "", err
		}
		return p.readSecret(prompt)
	}
	return p.readRequired(prompt+" ", "MFA response")
}

type secretModel struct {
	textInput textinput.Model
	done      bool
	cancelled bool
}

func (m secretModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m secretModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m secretModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return m.textInput.View()
}

func (p *ConsolePrompter) readSecret(prompt string) (string, error) {
	ti := textinput.New()
	ti.Prompt = prompt + " "
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.CharLimit = 256
	ti.Focus()

	program := tea.NewProgram(secretModel{textInput: ti}, tea.WithOutput(p.out))
	finalModel, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	result := finalModel.(secretModel)
	if result.cancelled {
		return "", errors.New("input cancelled")
	}
	value := result.textInput.Value()
	if value == "" {
		return "", errors.New("invalid empty input")
	}
	return value, nil
}
