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

package configure

import (
	"github.com/spf13/cobra"

	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/prompter"
)

// NewConfigureCommand Sets up the configure cobra sub command
func NewConfigureCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Create the global config file so Okta sessions can be cached",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.EvaluateSettings()
			if err != nil {
				return err
			}

			settings := config.FileSettings{
				Org:      cfg.Org(),
				User:     cfg.User(),
				Duration: cfg.Duration(),
			}
			if !cfg.NonInteractive() {
				p := prompter.NewConsolePrompter()
				if settings.Org == "" {
					if settings.Org, err = p.PromptOptionalOrg(); err != nil {
						return err
					}
				}
				if settings.User == "" {
					if settings.User, err = p.PromptOptionalUser(); err != nil {
						return err
					}
				}
				if settings.Duration, err = p.PromptDefaultDuration(cfg.Duration()); err != nil {
					return err
				}
				if settings.AllowProjectConfigs, err = p.PromptAllowProjectConfig(); err != nil {
					return err
				}
			}

			if err = config.SaveConfigFile(settings); err != nil {
				return err
			}
			_, err = cfg.Logger().Info("Your configuration has been created. Okta sessions will now also be cached.\n")
			return err
		},
	}
}
