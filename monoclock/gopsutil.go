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

package monoclock

import (
	"time"

	"github.com/shirou/gopsutil/host"
)

// GopsutilUptime is a cross-platform uptime source backed by
// github.com/shirou/gopsutil/host, for platforms without CLOCK_BOOTTIME.
// Grounded on the gopsutil usage pattern in
// ptp/sptp/client/sysstats.go's CollectRuntimeStats.
type GopsutilUptime struct{}

// Uptime returns the time elapsed since boot. Returns 0 on error, same
// degrade-to-zero behaviour as BootTime.
func (GopsutilUptime) Uptime() time.Duration {
	secs, err := host.Uptime()
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}
