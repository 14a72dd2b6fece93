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

package console

import (
	"github.com/spf13/cobra"

	"github.com/bmxcli/bmx/internal/awscreds"
	"github.com/bmxcli/bmx/internal/config"
	awsconsole "github.com/bmxcli/bmx/internal/console"
	cliFlag "github.com/bmxcli/bmx/internal/flag"
	"github.com/bmxcli/bmx/internal/oktaauth"
	"github.com/bmxcli/bmx/internal/prompter"
)

var flags = []cliFlag.Flag{
	{
		Name:   config.AccountFlag,
		Short:  "a",
		Value:  "",
		Usage:  "AWS account name",
		EnvVar: config.AccountEnvVar,
	},
	{
		Name:   config.RoleFlag,
		Short:  "r",
		Value:  "",
		Usage:  "AWS role name",
		EnvVar: config.RoleEnvVar,
	},
	{
		Name:   config.QRCodeFlag,
		Short:  "q",
		Value:  false,
		Usage:  "Print QR Code of the sign-in URL",
		EnvVar: config.QRCodeEnvVar,
	},
	{
		Name:   config.OpenBrowserFlag,
		Short:  "b",
		Value:  false,
		Usage:  "Automatically open the sign-in URL with the system web browser",
		EnvVar: config.OpenBrowserEnvVar,
	},
	{
		Name:   config.OpenBrowserCommandFlag,
		Short:  "m",
		Value:  "",
		Usage:  "Automatically open the sign-in URL with the given web browser command",
		EnvVar: config.OpenBrowserCommandEnvVar,
	},
	{
		Name:   config.CacheAWSCredentialsFlag,
		Value:  false,
		Usage:  "Cache the brokered AWS credentials for reuse",
		EnvVar: config.CacheAWSCredentialsEnvVar,
	},
}

// NewConsoleCommand Sets up the console cobra sub command
func NewConsoleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Open the AWS web console with brokered credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.EvaluateSettings()
			if err != nil {
				return err
			}
			p := prompter.NewConsolePrompter()

			authCtx, err := oktaauth.NewAuthenticator(cfg, p).Authenticate(cmd.Context())
			if err != nil {
				return err
			}
			result, err := awscreds.NewCreator(cfg, p).Create(cmd.Context(), authCtx, authCtx.Client)
			if err != nil {
				return err
			}

			return awsconsole.NewConsole(cfg).Open(cmd.Context(), &result.Credentials)
		},
	}

	cliFlag.MakeFlagBindings(cmd, flags, false)

	return cmd
}
