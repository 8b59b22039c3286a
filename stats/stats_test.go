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

package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryCounters(t *testing.T) {
	m := NewMemory()
	m.IncCounter("round.succeeded")
	m.IncCounter("round.succeeded")
	m.IncCounter("round.failed")

	counters, _ := m.Snapshot()
	require.Equal(t, int64(2), counters["round.succeeded"])
	require.Equal(t, int64(1), counters["round.failed"])
}

func TestMemoryGauges(t *testing.T) {
	m := NewMemory()
	m.SetGauge("pool.size", 3)
	_, gauges := m.Snapshot()
	require.Equal(t, float64(3), gauges["pool.size"])
}

func TestMemoryJitterTracksVariance(t *testing.T) {
	m := NewMemory()
	for _, v := range []float64{10, 10, 10} {
		m.ObserveOffset(v)
	}
	require.Equal(t, float64(0), m.OffsetJitter())

	m2 := NewMemory()
	for _, v := range []float64{0, 10, 20} {
		m2.ObserveOffset(v)
	}
	require.Greater(t, m2.OffsetJitter(), float64(0))
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncCounter("x")
			m.ObserveOffset(1)
		}()
	}
	wg.Wait()
	counters, _ := m.Snapshot()
	require.Equal(t, int64(100), counters["x"])
}
