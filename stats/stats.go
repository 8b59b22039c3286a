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
Package stats implements metric collection for the sampling engine: a
small counter/gauge interface plus a running-variance tracker for
offset/delay jitter, reported by the engine on every completed round.

Grounded on ptp4u/stats's Stats interface (a narrow set of Inc and Set
methods backing a map-based counter store) and fbclock/daemon/math.go's use
of eclesh/welford for streaming mean/variance.
*/
package stats

import (
	"sync"

	"github.com/eclesh/welford"
)

// Recorder is the metric collection interface consumed by the engine. A
// nil Recorder is valid: every Client method that takes one treats nil as
// "do not record."
type Recorder interface {
	// IncCounter atomically adds 1 to the named counter.
	IncCounter(name string)
	// SetGauge atomically sets the named gauge.
	SetGauge(name string, value float64)
	// ObserveOffset feeds one round's selected offset (ms) into the
	// offset jitter tracker.
	ObserveOffset(ms float64)
	// ObserveDelay feeds one round's selected delay (ms) into the delay
	// jitter tracker.
	ObserveDelay(ms float64)
}

// Memory is an in-process Recorder: counters/gauges held in a sync.Mutex
// guarded map, and welford trackers for offset/delay jitter. Grounded on
// ptp4u/stats.syncMapInt64's lock-around-a-map pattern.
type Memory struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	offset   *welford.Stats
	delay    *welford.Stats
}

// NewMemory constructs an empty Memory recorder.
func NewMemory() *Memory {
	return &Memory{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		offset:   welford.New(),
		delay:    welford.New(),
	}
}

func (m *Memory) IncCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

func (m *Memory) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

func (m *Memory) ObserveOffset(ms float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset.Add(ms)
}

func (m *Memory) ObserveDelay(ms float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay.Add(ms)
}

// OffsetJitter returns the current standard deviation of observed offsets,
// in milliseconds.
func (m *Memory) OffsetJitter() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offset.Stddev()
}

// DelayJitter returns the current standard deviation of observed delays,
// in milliseconds.
func (m *Memory) DelayJitter() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delay.Stddev()
}

// Snapshot returns a point-in-time copy of every counter and gauge.
func (m *Memory) Snapshot() (counters map[string]int64, gauges map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counters = make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}
	gauges = make(map[string]float64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}
	return counters, gauges
}
