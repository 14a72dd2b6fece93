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
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"github.com/bmxcli/bmx/internal/logger"
	"github.com/bmxcli/bmx/internal/utils"
)

const (
	// Version app version
	Version = "4.0.0"

	// EnvVarFormat format const
	EnvVarFormat = "env-var"
	// JSONFormat format const
	JSONFormat = "json"
	// AWSCredentialsFormat format const
	AWSCredentialsFormat = "aws-credentials"

	// OrgFlag cli flag const
	OrgFlag = "org"
	// UserFlag cli flag const
	UserFlag = "user"
	// AccountFlag cli flag const
	AccountFlag = "account"
	// RoleFlag cli flag const
	RoleFlag = "role"
	// DurationFlag cli flag const
	DurationFlag = "duration"
	// ProfileFlag cli flag const
	ProfileFlag = "profile"
	// OutputFlag cli flag const
	OutputFlag = "output"
	// NonInteractiveFlag cli flag const
	NonInteractiveFlag = "non-interactive"
	// IgnoreCacheFlag cli flag const
	IgnoreCacheFlag = "ignore-cache"
	// NoDssoFlag cli flag const
	NoDssoFlag = "no-dsso"
	// CacheAWSCredentialsFlag cli flag const
	CacheAWSCredentialsFlag = "cache-aws-credentials"
	// DebugAPICallsFlag cli flag const
	DebugAPICallsFlag = "debug-api-calls"
	// QRCodeFlag cli flag const
	QRCodeFlag = "qr-code"
	// OpenBrowserFlag cli flag const
	OpenBrowserFlag = "open-browser"
	// OpenBrowserCommandFlag cli flag const
	OpenBrowserCommandFlag = "open-browser-command"
	// AWSCredentialsFlag cli flag const
	AWSCredentialsFlag = "aws-credentials"

	// OrgEnvVar env var const
	OrgEnvVar = "BMX_ORG"
	// UserEnvVar env var const
	UserEnvVar = "BMX_USER"
	// AccountEnvVar env var const
	AccountEnvVar = "BMX_ACCOUNT"
	// RoleEnvVar env var const
	RoleEnvVar = "BMX_ROLE"
	// DurationEnvVar env var const
	DurationEnvVar = "BMX_DURATION"
	// ProfileEnvVar env var const
	ProfileEnvVar = "BMX_PROFILE"
	// OutputEnvVar env var const
	OutputEnvVar = "BMX_OUTPUT"
	// NonInteractiveEnvVar env var const
	NonInteractiveEnvVar = "BMX_NON_INTERACTIVE"
	// IgnoreCacheEnvVar env var const
	IgnoreCacheEnvVar = "BMX_IGNORE_CACHE"
	// NoDssoEnvVar env var const
	NoDssoEnvVar = "BMX_NO_DSSO"
	// CacheAWSCredentialsEnvVar env var const
	CacheAWSCredentialsEnvVar = "BMX_CACHE_AWS_CREDENTIALS"
	// DebugAPICallsEnvVar env var const
	DebugAPICallsEnvVar = "BMX_DEBUG_API_CALLS"
	// QRCodeEnvVar env var const
	QRCodeEnvVar = "BMX_QR_CODE"
	// OpenBrowserEnvVar env var const
	OpenBrowserEnvVar = "BMX_OPEN_BROWSER"
	// OpenBrowserCommandEnvVar env var const
	OpenBrowserCommandEnvVar = "BMX_OPEN_BROWSER_COMMAND"
	// AWSCredentialsEnvVar env var const
	AWSCredentialsEnvVar = "BMX_AWS_CREDENTIALS"

	// DefaultDuration default credential duration in minutes
	DefaultDuration = 60

	projectConfigName = ".bmx"

	iniKeyOrg                 = "org"
	iniKeyUser                = "user"
	iniKeyAccount             = "account"
	iniKeyRole                = "role"
	iniKeyDuration            = "duration"
	iniKeyProfile             = "profile"
	iniKeyAllowProjectConfigs = "allow_project_configs"
)

// Clock interface to abstract time operations
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Attributes config construction attributes
type Attributes struct {
	Org                 string
	User                string
	Account             string
	Role                string
	Duration            int
	Profile             string
	Output              string
	NonInteractive      bool
	IgnoreCache         bool
	NoDsso              bool
	CacheAWSCredentials bool
	DebugAPICalls       bool
	QRCode              bool
	OpenBrowser         bool
	OpenBrowserCommand  string
	AWSCredentials      string
}

// Config A config object for the CLI
type Config struct {
	org                 string
	user                string
	account             string
	role                string
	duration            int
	profile             string
	output              string
	nonInteractive      bool
	ignoreCache         bool
	noDsso              bool
	cacheAWSCredentials bool
	debugAPICalls       bool
	qrCode              bool
	openBrowser         bool
	openBrowserCommand  string
	awsCredentials      string
	httpClient          *http.Client
	clock               Clock
	logger              logger.Logger
}

// EvaluateSettings Returns a new config gathering values in this order of
// precedence:
//  1. CLI flags
//  2. ENV variables
//  3. .env file variables
//  4. Project .bmx file found walking up from CWD (if allowed)
//  5. Global config file at $HOME/.bmx/config
func EvaluateSettings() (*Config, error) {
	cfgAttrs, err := readConfig()
	if err != nil {
		return nil, err
	}
	return NewConfig(&cfgAttrs)
}

// NewConfig create config from attributes
func NewConfig(attrs *Attributes) (*Config, error) {
	var err error
	cfg := &Config{
		org:                 attrs.Org,
		user:                attrs.User,
		account:             attrs.Account,
		role:                attrs.Role,
		duration:            attrs.Duration,
		profile:             attrs.Profile,
		output:              attrs.Output,
		nonInteractive:      attrs.NonInteractive,
		ignoreCache:         attrs.IgnoreCache,
		noDsso:              attrs.NoDsso,
		cacheAWSCredentials: attrs.CacheAWSCredentials,
		debugAPICalls:       attrs.DebugAPICalls,
		qrCode:              attrs.QRCode,
		openBrowser:         attrs.OpenBrowser,
		openBrowserCommand:  attrs.OpenBrowserCommand,
		awsCredentials:      attrs.AWSCredentials,
		clock:               realClock{},
		logger:              logger.NewFullLogger(),
	}
	if cfg.duration == 0 {
		cfg.duration = DefaultDuration
	}
	if cfg.output == "" {
		cfg.output = EnvVarFormat
	}
	if cfg.profile == "" {
		cfg.profile = "default"
	}
	if err = cfg.validate(); err != nil {
		return nil, err
	}

	cfg.httpClient = &http.Client{
		Transport: newConfigTransport(cfg.debugAPICalls),
		Timeout:   time.Second * time.Duration(60),
	}

	return cfg, nil
}

func readConfig() (Attributes, error) {
	attrs := Attributes{
		Org:                 viper.GetString(OrgFlag),
		User:                viper.GetString(UserFlag),
		Account:             viper.GetString(AccountFlag),
		Role:                viper.GetString(RoleFlag),
		Duration:            viper.GetInt(DurationFlag),
		Profile:             viper.GetString(ProfileFlag),
		Output:              viper.GetString(OutputFlag),
		NonInteractive:      viper.GetBool(NonInteractiveFlag),
		IgnoreCache:         viper.GetBool(IgnoreCacheFlag),
		NoDsso:              viper.GetBool(NoDssoFlag),
		CacheAWSCredentials: viper.GetBool(CacheAWSCredentialsFlag),
		DebugAPICalls:       viper.GetBool(DebugAPICallsFlag),
		QRCode:              viper.GetBool(QRCodeFlag),
		OpenBrowser:         viper.GetBool(OpenBrowserFlag),
		OpenBrowserCommand:  viper.GetString(OpenBrowserCommandFlag),
		AWSCredentials:      viper.GetString(AWSCredentialsFlag),
	}

	// Viper binds ENV VARs to a lower snake version, set the configs with them
	// if they haven't already been set by cli flag binding.
	if attrs.Org == "" {
		attrs.Org = viper.GetString(downCase(OrgEnvVar))
	}
	if attrs.User == "" {
		attrs.User = viper.GetString(downCase(UserEnvVar))
	}
	if attrs.Account == "" {
		attrs.Account = viper.GetString(downCase(AccountEnvVar))
	}
	if attrs.Role == "" {
		attrs.Role = viper.GetString(downCase(RoleEnvVar))
	}
	if attrs.Duration == 0 {
		attrs.Duration = viper.GetInt(downCase(DurationEnvVar))
	}
	if attrs.Profile == "" {
		attrs.Profile = viper.GetString(downCase(ProfileEnvVar))
	}
	if attrs.Output == "" {
		attrs.Output = viper.GetString(downCase(OutputEnvVar))
	}
	if attrs.OpenBrowserCommand == "" {
		attrs.OpenBrowserCommand = viper.GetString(downCase(OpenBrowserCommandEnvVar))
	}
	if attrs.AWSCredentials == "" {
		attrs.AWSCredentials = viper.GetString(downCase(AWSCredentialsEnvVar))
	}
	if !attrs.NonInteractive {
		attrs.NonInteractive = viper.GetBool(downCase(NonInteractiveEnvVar))
	}
	if !attrs.IgnoreCache {
		attrs.IgnoreCache = viper.GetBool(downCase(IgnoreCacheEnvVar))
	}
	if !attrs.NoDsso {
		attrs.NoDsso = viper.GetBool(downCase(NoDssoEnvVar))
	}
	if !attrs.CacheAWSCredentials {
		attrs.CacheAWSCredentials = viper.GetBool(downCase(CacheAWSCredentialsEnvVar))
	}
	if !attrs.DebugAPICalls {
		attrs.DebugAPICalls = viper.GetBool(downCase(DebugAPICallsEnvVar))
	}
	if !attrs.QRCode {
		attrs.QRCode = viper.GetBool(downCase(QRCodeEnvVar))
	}
	if !attrs.OpenBrowser {
		attrs.OpenBrowser = viper.GetBool(downCase(OpenBrowserEnvVar))
	}

	applyFileSettings(&attrs)

	if attrs.OpenBrowserCommand != "" {
		attrs.OpenBrowser = true
	}

	return attrs, nil
}

// applyFileSettings fills still-unset attributes from the project .bmx file
// (when the global config allows it) and then the global config file.
func applyFileSettings(attrs *Attributes) {
	globalPath, err := utils.ConfigPath()
	if err != nil {
		return
	}
	global := loadINISettings(globalPath)
	if global.allowProjectConfigs {
		if projectPath, ok := findProjectConfig(); ok {
			project := loadINISettings(projectPath)
			mergeFileSettings(attrs, project)
		}
	}
	mergeFileSettings(attrs, global)
}

type fileSettings struct {
	org                 string
	user                string
	account             string
	role                string
	duration            int
	profile             string
	allowProjectConfigs bool
}

func loadINISettings(path string) fileSettings {
	var fs fileSettings
	f, err := ini.Load(path)
	if err != nil {
		return fs
	}
	section := f.Section(ini.DefaultSection)
	fs.org = section.Key(iniKeyOrg).String()
	fs.user = section.Key(iniKeyUser).String()
	fs.account = section.Key(iniKeyAccount).String()
	fs.role = section.Key(iniKeyRole).String()
	fs.duration, _ = section.Key(iniKeyDuration).Int()
	fs.profile = section.Key(iniKeyProfile).String()
	fs.allowProjectConfigs, _ = section.Key(iniKeyAllowProjectConfigs).Bool()
	return fs
}

func mergeFileSettings(attrs *Attributes, fs fileSettings) {
	if attrs.Org == "" {
		attrs.Org = fs.org
	}
	if attrs.User == "" {
		attrs.User = fs.user
	}
	if attrs.Account == "" {
		attrs.Account = fs.account
	}
	if attrs.Role == "" {
		attrs.Role = fs.role
	}
	if attrs.Duration == 0 {
		attrs.Duration = fs.duration
	}
	if attrs.Profile == "" {
		attrs.Profile = fs.profile
	}
}

// findProjectConfig walks up from CWD looking for a .bmx file.
func findProjectConfig() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, projectConfigName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func (c *Config) validate() error {
	if c.duration < 1 || c.duration > 720 {
		return NewValidationError(DurationFlag, "duration must be between 1 and 720 minutes")
	}
	switch c.output {
	case EnvVarFormat, JSONFormat, AWSCredentialsFormat:
	default:
		return NewValidationError(OutputFlag, "output must be one of env-var, json, aws-credentials")
	}
	return nil
}

// Org --org flag value, BMX_ORG env var, or from config files
func (c *Config) Org() string { return c.org }

// SetOrg set org
func (c *Config) SetOrg(org string) { c.org = org }

// User --user flag value, BMX_USER env var, or from config files
func (c *Config) User() string { return c.user }

// SetUser set user
func (c *Config) SetUser(user string) { c.user = user }

// Account --account flag value, BMX_ACCOUNT env var, or from config files
func (c *Config) Account() string { return c.account }

// SetAccount set account
func (c *Config) SetAccount(account string) { c.account = account }

// Role --role flag value, BMX_ROLE env var, or from config files
func (c *Config) Role() string { return c.role }

// SetRole set role
func (c *Config) SetRole(role string) { c.role = role }

// Duration requested credential lifetime in minutes
func (c *Config) Duration() int { return c.duration }

// Profile AWS credentials file profile name
func (c *Config) Profile() string { return c.profile }

// Output output format
func (c *Config) Output() string { return c.output }

// SetOutput set output format
func (c *Config) SetOutput(output string) { c.output = output }

// NonInteractive prompting is disabled
func (c *Config) NonInteractive() bool { return c.nonInteractive }

// IgnoreCache skip the session and credential caches
func (c *Config) IgnoreCache() bool { return c.ignoreCache }

// DssoEnabled desktop single sign-on probe is allowed
func (c *Config) DssoEnabled() bool { return !c.noDsso }

// CacheAWSCredentials persist brokered AWS credentials to the cache file
func (c *Config) CacheAWSCredentials() bool { return c.cacheAWSCredentials }

// DebugAPICalls dump API requests and responses
func (c *Config) DebugAPICalls() bool { return c.debugAPICalls }

// QRCode render the console sign-in URL as a QR code
func (c *Config) QRCode() bool { return c.qrCode }

// OpenBrowser open the console sign-in URL in a browser
func (c *Config) OpenBrowser() bool { return c.openBrowser }

// OpenBrowserCommand custom browser command to open the sign-in URL with
func (c *Config) OpenBrowserCommand() string { return c.openBrowserCommand }

// AWSCredentials path to the AWS CLI credentials file
func (c *Config) AWSCredentials() string { return c.awsCredentials }

// HTTPClient the client for API calls
func (c *Config) HTTPClient() *http.Client { return c.httpClient }

// SetHTTPClient set the client for API calls
func (c *Config) SetHTTPClient(client *http.Client) { c.httpClient = client }

// Clock the config's clock
func (c *Config) Clock() Clock { return c.clock }

// SetClock set the config's clock
func (c *Config) SetClock(clock Clock) { c.clock = clock }

// Logger the config's logger
func (c *Config) Logger() logger.Logger { return c.logger }

// SetLogger set the config's logger
func (c *Config) SetLogger(l logger.Logger) { c.logger = l }

// downCase ToLower all alpha chars e.g. BMX_ORG -> bmx_org
func downCase(s string) string {
	return strings.ToLower(s)
}
