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

package logger

import (
	"fmt"
	"os"

	"github.com/logrusorgru/aurora"
)

// Logger printf style logger interface. Info writes belong on stdout, they are
// the command's product (credential exports and the like). Everything meant for
// the human operator goes to stderr via Warn.
type Logger interface {
	Info(format string, a ...any) (int, error)
	Warn(format string, a ...any) (int, error)
}

// FullLogger logger for stderr (warn) and stdout (info) logging
type FullLogger struct{}

// NewFullLogger FullLogger constructor
func NewFullLogger() *FullLogger {
	return &FullLogger{}
}

// Info printf to stdout
func (l *FullLogger) Info(format string, a ...any) (int, error) {
	return fmt.Fprintf(os.Stdout, format, a...)
}

// Warn printf to stderr
func (l *FullLogger) Warn(format string, a ...any) (int, error) {
	return fmt.Fprintf(os.Stderr, format, a...)
}

// Warning printf formatted yellow warning message to stderr on any logger.
func Warning(l Logger, format string, a ...any) {
	_, _ = l.Warn("%s", aurora.Yellow(fmt.Sprintf(format, a...)))
}
