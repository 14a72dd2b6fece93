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
	"bytes"
	"strconv"

	"gopkg.in/ini.v1"

	"github.com/bmxcli/bmx/internal/utils"
)

// FileSettings the values bmx configure persists to $HOME/.bmx/config
type FileSettings struct {
	Org                 string
	User                string
	Duration            int
	AllowProjectConfigs bool
}

// SaveConfigFile writes the global config file, replacing any existing one.
// Empty values are omitted so later prompts still fire for them.
func SaveConfigFile(settings FileSettings) error {
	file := ini.Empty()
	section := file.Section(ini.DefaultSection)
	if settings.Org != "" {
		section.Key(iniKeyOrg).SetValue(settings.Org)
	}
	if settings.User != "" {
		section.Key(iniKeyUser).SetValue(settings.User)
	}
	if settings.Duration > 0 {
		section.Key(iniKeyDuration).SetValue(strconv.Itoa(settings.Duration))
	}
	section.Key(iniKeyAllowProjectConfigs).SetValue(strconv.FormatBool(settings.AllowProjectConfigs))

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return err
	}
	return utils.WriteDotBmxFile(utils.ConfigFileName, buf.Bytes())
}
