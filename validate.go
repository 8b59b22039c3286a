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

// exchange bundles a decoded response packet with the local timing data
// collected around the wire exchange that produced it.
type exchange struct {
	packet         *protocol.Packet
	startTime      protocol.Time64
	requestTicks   time.Duration
	responseTicks  time.Duration
	responseTimeMs int64
	serverHost     string
	address        netip.AddrPort
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// accept implements the six predicates of the response validator. A packet
// is accepted iff every predicate holds.
func accept(e *exchange, maxDispersionMs int64) bool {
	p := e.packet
	if p.Stratum < 1 || p.Stratum >= 16 {
		return false
	}
	if p.RootDelay.DurationMilliseconds() >= maxDispersionMs {
		return false
	}
	if p.RootDispersion.DurationMilliseconds() >= maxDispersionMs {
		return false
	}
	if p.Mode() != protocol.ModeServer {
		return false
	}
	if p.Leap() == protocol.LeapNotInSync {
		return false
	}

	t0 := p.OriginTime.Milliseconds()
	t1 := p.ReceiveTime.Milliseconds()
	delayMs := computeDelay(t0, t1, p.TransmitTime.Milliseconds(), e.responseTimeMs)
	if abs64(t1-t0-delayMs) >= maxDispersionMs {
		return false
	}
	return true
}

// computeOffset implements offset_ms = ((T1-T0) + (T2-T3)) / 2.
func computeOffset(t0, t1, t2, t3 int64) int64 {
	return ((t1 - t0) + (t2 - t3)) / 2
}

// computeDelay implements delay_ms = (T3-T0) - (T2-T1).
func computeDelay(t0, t1, t2, t3 int64) int64 {
	return (t3 - t0) - (t2 - t1)
}

// toSample validates e and, if accepted, converts it into a Sample.
func toSample(e *exchange, maxDispersionMs int64) (Sample, bool) {
	if !accept(e, maxDispersionMs) {
		return Sample{}, false
	}
	p := e.packet
	t0 := p.OriginTime.Milliseconds()
	t1 := p.ReceiveTime.Milliseconds()
	t2 := p.TransmitTime.Milliseconds()
	t3 := e.responseTimeMs

	return Sample{
		Packet:         p,
		StartTime:      e.startTime,
		RequestTicks:   e.requestTicks,
		ResponseTicks:  e.responseTicks,
		ResponseTimeMs: t3,
		OffsetMs:       computeOffset(t0, t1, t2, t3),
		DelayMs:        computeDelay(t0, t1, t2, t3),
		ServerHost:     e.serverHost,
		Address:        e.address,
	}, true
}
