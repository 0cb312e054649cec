// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file implements hierarchical configuration loading: a base
// .env.toml is decoded first, then a runtime-specific .env.<runtime>.toml
// overrides it. The config directory and runtime name come from
// environment variables, so local, test, and production deployments
// share one code path.

package cloud

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	ConfigFileBaseName  = ".env"
	ConfigFileExtension = ".toml"
	ConfigSeparator     = "."
	// EnvConfigFilePrefix names the environment variable holding the
	// config directory path.
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX"
	// EnvConfigRuntime names the environment variable selecting the
	// runtime overlay (e.g. "local", "test", "prod").
	EnvConfigRuntime = "GCP_RUNTIME"
	// EnvAPIKey optionally supplies the generative media API key,
	// overriding the TOML value. Keys live more naturally in the
	// environment than in checked-in config files.
	EnvAPIKey = "GENMEDIA_API_KEY"
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig populates baseConfig from the base TOML file and then the
// runtime overlay, if either exists. Decode failures are fatal: running
// with half-applied configuration is worse than not starting.
func LoadConfig(baseConfig *Config) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}

	if key := os.Getenv(EnvAPIKey); key != "" {
		baseConfig.Application.APIKey = key
	}
}
