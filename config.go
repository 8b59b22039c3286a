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

/*
Package truetime implements a true-time client: a sampling engine that
queries one or more NTPv3 servers over UDP, validates and statistically
selects a best sample, and exposes a thread-safe reference time cell
callers read as "now".
*/
package truetime

import (
	"fmt"
	"time"
)

// maxDispersionMillis is the legacy maximum root delay/dispersion bound.
// Kept as a tunable constant rather than baked into the validator, per
// Open Question (b).
const maxDispersionMillis int64 = 100

// Config holds the tunables of the sampling engine. Zero value is invalid;
// use DefaultConfig() and override individual fields.
type Config struct {
	// Timeout bounds a single host resolution attempt and a single
	// connection exchange.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts a connection makes
	// after a non-timeout failure.
	MaxRetries int
	// MaxConcurrency bounds the number of not-yet-finished connections
	// the pool runs simultaneously.
	MaxConcurrency int
	// MaxServers bounds how many pool hosts the engine resolves and queries
	// per round; every address a queried host resolves to is sampled.
	MaxServers int
	// SamplesPerAddress is how many independent exchanges the pool
	// launches against each resolved address.
	SamplesPerAddress int
	// PollInterval is the minimum elapsed time after the last successful
	// round before a new round is automatically initiated.
	PollInterval time.Duration
}

// DefaultConfig returns the spec-mandated defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:           8 * time.Second,
		MaxRetries:        3,
		MaxConcurrency:    5,
		MaxServers:        5,
		SamplesPerAddress: 4,
		PollInterval:      512 * time.Second,
	}
}

// Validate checks the config's preconditions.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("truetime: timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("truetime: max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("truetime: max_concurrency must be >= 1, got %d", c.MaxConcurrency)
	}
	if c.MaxServers < 1 {
		return fmt.Errorf("truetime: max_servers must be >= 1, got %d", c.MaxServers)
	}
	if c.SamplesPerAddress < 1 {
		return fmt.Errorf("truetime: samples_per_address must be >= 1, got %d", c.SamplesPerAddress)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("truetime: poll_interval must be positive, got %s", c.PollInterval)
	}
	return nil
}
