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

package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/bmxcli/bmx/internal/utils"
)

// AliasesFileName friendly label overrides file inside $HOME/.bmx
const AliasesFileName = "aliases.yaml"

// Aliases optional friendly labels shown in account and role prompts. Keys are
// matched case-insensitively against the account or role name.
type Aliases struct {
	Accounts map[string]string `yaml:"accounts"`
	Roles    map[string]string `yaml:"roles"`
}

// LoadAliases reads $HOME/.bmx/aliases.yaml. Missing or unreadable files yield
// empty aliases, never an error.
func LoadAliases() *Aliases {
	aliases := &Aliases{}
	dir, err := utils.DotBmxDirPath()
	if err != nil {
		return aliases
	}
	raw, err := os.ReadFile(filepath.Join(dir, AliasesFileName))
	if err != nil {
		return aliases
	}
	if err = yaml.Unmarshal(raw, aliases); err != nil {
		return &Aliases{}
	}
	return aliases
}

// AccountLabel the display label for an account name
func (a *Aliases) AccountLabel(name string) string {
	return labelFor(a.Accounts, name)
}

// RoleLabel the display label for a role name
func (a *Aliases) RoleLabel(name string) string {
	return labelFor(a.Roles, name)
}

func labelFor(m map[string]string, name string) string {
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return name
}
