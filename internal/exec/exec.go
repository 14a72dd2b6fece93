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

// Package exec runs a child process with the brokered AWS credentials
// injected into its environment, for `bmx print -- <cmd>`.
package exec

import (
	"fmt"
	"os"
	osexec "os/exec"
	"strings"

	"github.com/bmxcli/bmx/internal/aws"
	"github.com/bmxcli/bmx/internal/utils"
)

// Exec is a executor / a process runner
type Exec struct {
	name string
	args []string
}

// NewExec builds an executor from everything after the `--` terminator in
// argv
func NewExec(argv []string) (*Exec, error) {
	args := []string{}
	foundArgs := false
	for _, arg := range argv {
		if arg == "--" {
			foundArgs = true
			continue
		}
		if !foundArgs {
			continue
		}
		args = append(args, arg)
	}

	if len(args) < 1 {
		return nil, fmt.Errorf("there must be at least one additional argument after the '--' CLI argument terminator")
	}

	return &Exec{
		name: args[0],
		args: args[1:],
	}, nil
}

// Run executes the child with the credential env vars layered over any
// existing AWS_* variables. The child's stdout is passed through.
func (e *Exec) Run(creds *aws.Credentials) error {
	pairs := map[string]string{}
	for _, kv := range os.Environ() {
		pair := strings.SplitN(kv, "=", 2)
		if strings.HasPrefix(pair[0], "AWS_") {
			pairs[pair[0]] = pair[1]
		}
	}
	pairs["AWS_ACCESS_KEY_ID"] = creds.AccessKeyID
	pairs["AWS_SECRET_ACCESS_KEY"] = creds.SecretAccessKey
	pairs["AWS_SESSION_TOKEN"] = creds.SessionToken

	cmd := osexec.Command(e.name, e.args...)
	for k, v := range pairs {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	out, err := cmd.Output()
	if ee, ok := err.(*osexec.ExitError); ok {
		fmt.Fprintf(os.Stderr, "error running process\n")
		fmt.Fprintf(os.Stderr, "%s %s\n", e.name, strings.Join(e.args, " "))
		fmt.Fprintf(os.Stderr, utils.PassThroughStringNewLineFMT, ee.Stderr)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s", string(out))
	return nil
}
