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

package write

import (
	"github.com/spf13/cobra"

	"github.com/bmxcli/bmx/internal/awscreds"
	"github.com/bmxcli/bmx/internal/config"
	cliFlag "github.com/bmxcli/bmx/internal/flag"
	"github.com/bmxcli/bmx/internal/oktaauth"
	"github.com/bmxcli/bmx/internal/output"
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
		Name:   config.ProfileFlag,
		Short:  "p",
		Value:  "",
		Usage:  "AWS credentials file profile to write",
		EnvVar: config.ProfileEnvVar,
	},
	{
		Name:   config.AWSCredentialsFlag,
		Value:  "",
		Usage:  "Path of the AWS credentials file (default: $HOME/.aws/credentials)",
		EnvVar: config.AWSCredentialsEnvVar,
	},
	{
		Name:   config.CacheAWSCredentialsFlag,
		Value:  false,
		Usage:  "Cache the brokered AWS credentials for reuse",
		EnvVar: config.CacheAWSCredentialsEnvVar,
	},
}

// NewWriteCommand Sets up the write cobra sub command
func NewWriteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write brokered AWS credentials to the AWS credentials file",
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

			if err = output.NewAWSCredentialsFile(cfg.Profile()).Output(cfg, &result.Credentials); err != nil {
				return err
			}
			_, err = cfg.Logger().Info("Credentials for %s/%s written under the [%s] profile\n",
				result.Account, result.Role, cfg.Profile())
			return err
		},
	}

	cliFlag.MakeFlagBindings(cmd, flags, false)

	return cmd
}
