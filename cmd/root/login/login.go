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

package login

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/oktaauth"
	"github.com/bmxcli/bmx/internal/prompter"
	"github.com/bmxcli/bmx/internal/utils"
)

// NewLoginCommand Sets up the login cobra sub command
func NewLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate against Okta and cache the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !utils.ConfigFileExists() {
				return errors.New("BMX global config file not found. Okta sessions will not be saved. Please run `bmx configure` first.")
			}
			cfg, err := config.EvaluateSettings()
			if err != nil {
				return err
			}
			p := prompter.NewConsolePrompter()

			authCtx, err := oktaauth.NewAuthenticator(cfg, p).Authenticate(cmd.Context())
			if err != nil {
				return err
			}
			_, err = cfg.Logger().Info("Logged into Okta as %s@%s\n", authCtx.User, authCtx.Org)
			return err
		},
	}
}
