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

package print

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bmxcli/bmx/internal/awscreds"
	"github.com/bmxcli/bmx/internal/config"
	"github.com/bmxcli/bmx/internal/exec"
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
		Name:   config.OutputFlag,
		Short:  "f",
		Value:  config.EnvVarFormat,
		Usage:  "Output format. Values: env-var | json | aws-credentials",
		EnvVar: config.OutputEnvVar,
	},
	{
		Name:   config.CacheAWSCredentialsFlag,
		Value:  false,
		Usage:  "Cache the brokered AWS credentials for reuse",
		EnvVar: config.CacheAWSCredentialsEnvVar,
	},
}

// NewPrintCommand Sets up the print cobra sub command
func NewPrintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print brokered AWS credentials, or run a command with them",
		Long: `Print brokered AWS credentials to the terminal in the configured format.

With a '--' terminator the credentials are not printed; everything after the
terminator runs as a child process with the credentials in its environment:

  bmx print -- aws s3 ls`,
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

			for _, arg := range os.Args {
				if arg == "--" {
					ex, err := exec.NewExec(os.Args)
					if err != nil {
						return err
					}
					return ex.Run(&result.Credentials)
				}
			}
			return output.RenderCredentials(cfg, &result.Credentials)
		},
	}

	cliFlag.MakeFlagBindings(cmd, flags, false)

	return cmd
}
