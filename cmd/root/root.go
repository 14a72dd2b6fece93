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

package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bmxcli/bmx/cmd/root/configure"
	"github.com/bmxcli/bmx/cmd/root/console"
	"github.com/bmxcli/bmx/cmd/root/login"
	"github.com/bmxcli/bmx/cmd/root/print"
	"github.com/bmxcli/bmx/cmd/root/write"
	"github.com/bmxcli/bmx/internal/config"
	cliFlag "github.com/bmxcli/bmx/internal/flag"
)

// flags shared by every subcommand that authenticates against Okta
var globalFlags = []cliFlag.Flag{
	{
		Name:   config.OrgFlag,
		Short:  "o",
		Value:  "",
		Usage:  "Okta org shortname or full URL",
		EnvVar: config.OrgEnvVar,
	},
	{
		Name:   config.UserFlag,
		Short:  "u",
		Value:  "",
		Usage:  "Okta username",
		EnvVar: config.UserEnvVar,
	},
	{
		Name:   config.DurationFlag,
		Short:  "d",
		Value:  0,
		Usage:  "AWS session duration in minutes",
		EnvVar: config.DurationEnvVar,
	},
	{
		Name:   config.NonInteractiveFlag,
		Value:  false,
		Usage:  "Fail instead of prompting for missing inputs",
		EnvVar: config.NonInteractiveEnvVar,
	},
	{
		Name:   config.IgnoreCacheFlag,
		Value:  false,
		Usage:  "Ignore cached Okta sessions and AWS credentials",
		EnvVar: config.IgnoreCacheEnvVar,
	},
	{
		Name:   config.NoDssoFlag,
		Value:  false,
		Usage:  "Skip the desktop SSO probe",
		EnvVar: config.NoDssoEnvVar,
	},
	{
		Name:   config.DebugAPICallsFlag,
		Short:  "x",
		Value:  false,
		Usage:  "Verbosely print all API calls/responses to the screen",
		EnvVar: config.DebugAPICallsEnvVar,
	},
}

var rootCmd = &cobra.Command{
	Use:     "bmx",
	Version: config.Version,
	Short:   "bmx - Okta federated identity for AWS",
	Long: `bmx - Okta federated identity for AWS

bmx authenticates against Okta with MFA or desktop SSO, picks an AWS account
and role from the Okta-issued SAML assertion, and exchanges the assertion with
AWS STS for temporary credentials.`,
}

func init() {
	cliFlag.MakeFlagBindings(rootCmd, globalFlags, true)
	rootCmd.AddCommand(print.NewPrintCommand())
	rootCmd.AddCommand(write.NewWriteCommand())
	rootCmd.AddCommand(login.NewLoginCommand())
	rootCmd.AddCommand(configure.NewConfigureCommand())
	rootCmd.AddCommand(console.NewConsoleCommand())
}

// Execute Execute the root bmx command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bmx experienced the following error '%s'\n", err)
		os.Exit(1)
	}
}
