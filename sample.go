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

package truetime

import (
	"net/netip"
	"time"

	"github.com/truetime-go/truetime/ntp/protocol"
)

// Sample is a single accepted (packet, timing) tuple from one UDP exchange.
// Immutable once constructed.
type Sample struct {
	Packet          *protocol.Packet
	StartTime       protocol.Time64
	RequestTicks    time.Duration
	ResponseTicks   time.Duration
	ResponseTimeMs  int64
	OffsetMs        int64
	DelayMs         int64
	ServerHost      string
	Address         netip.AddrPort
}

// NetworkTime is the wall-clock instant this sample asserts, derived from
// response_time_ms + offset_ms.
func (s Sample) NetworkTime() time.Time {
	return time.UnixMilli(s.ResponseTimeMs + s.OffsetMs)
}

// ReferenceTime is the publicly visible, thread-safe snapshot of the
// client's best current estimate of true wall time.
type ReferenceTime struct {
	WallTime        time.Time
	UptimeAtResponse time.Duration
	ServerHost      string
	StartTime       time.Time
	SampleSize      int
}

// UptimeInterval is the monotonic duration elapsed since the response that
// produced this reference, as of currentUptime.
func (r ReferenceTime) UptimeInterval(currentUptime time.Duration) time.Duration {
	return currentUptime - r.UptimeAtResponse
}

// Now computes the live instant this reference implies, given the current
// monotonic uptime. now() is allowed to step across successive reads during
// a reference update, per Open Question (c): no monotonicity is enforced
// here beyond what UptimeInterval naturally provides within one snapshot.
func (r ReferenceTime) Now(currentUptime time.Duration) time.Time {
	return r.WallTime.Add(r.UptimeInterval(currentUptime))
}
