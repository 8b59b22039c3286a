/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/truetime-go/truetime"
)

// fileConfig is the on-disk shape of --config; it maps one-to-one onto
// truetime.Config, in the style of fbclock/daemon/config.go and
// ntp/responder/server/config.go.
type fileConfig struct {
	Pool              []string      `yaml:"pool"`
	Port              int           `yaml:"port"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	MaxConcurrency    int           `yaml:"max_concurrency"`
	MaxServers        int           `yaml:"max_servers"`
	SamplesPerAddress int           `yaml:"samples_per_address"`
	PollInterval      time.Duration `yaml:"poll_interval"`
}

func readFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc := fileConfig{}
	if err := yaml.UnmarshalStrict(data, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

// engineConfig converts fc into a truetime.Config, falling back to
// DefaultConfig for any zero-valued field.
func (fc *fileConfig) engineConfig() truetime.Config {
	cfg := truetime.DefaultConfig()
	if fc.Timeout > 0 {
		cfg.Timeout = fc.Timeout
	}
	if fc.MaxRetries > 0 {
		cfg.MaxRetries = fc.MaxRetries
	}
	if fc.MaxConcurrency > 0 {
		cfg.MaxConcurrency = fc.MaxConcurrency
	}
	if fc.MaxServers > 0 {
		cfg.MaxServers = fc.MaxServers
	}
	if fc.SamplesPerAddress > 0 {
		cfg.SamplesPerAddress = fc.SamplesPerAddress
	}
	if fc.PollInterval > 0 {
		cfg.PollInterval = fc.PollInterval
	}
	return cfg
}
