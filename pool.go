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
	"context"
	"net/netip"
	"sync"

	"golang.org/x/sync/errgroup"
)

// progressEvent is delivered to the pool's progress callback on every
// connection terminal event, before the throttler launches its next batch.
type progressEvent struct {
	host    string
	address netip.AddrPort
	result  connResult
}

// runPool spawns addresses.len * samplesPerAddress connections, throttled
// to at most maxConcurrency running simultaneously, and streams progress to
// the caller. It returns once every connection has reached a terminal
// state.
//
// Grounded on sptp.go:runInternal's errgroup.Group fan-out over p.clients
// guarded by a sync.Mutex results map; the max_concurrency throttle is the
// buffered-channel semaphore idiom ptp4u/server/worker.go uses for its
// worker queue, since the teacher's own fan-out is unconditional over a
// small fixed set of GMs.
func runPool(ctx context.Context, targets map[string][]netip.AddrPort, cfg Config, clock MonotonicClock, progress func(progressEvent)) map[string][]Sample {
	type job struct {
		host    string
		address netip.AddrPort
	}

	var jobs []job
	for host, addrs := range targets {
		for _, addr := range addrs {
			for i := 0; i < cfg.SamplesPerAddress; i++ {
				jobs = append(jobs, job{host: host, address: addr})
			}
		}
	}

	sem := make(chan struct{}, cfg.MaxConcurrency)
	var mu sync.Mutex
	accepted := make(map[string][]Sample, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return nil
			}
			defer func() { <-sem }()

			conn := newConnection(j.host, j.address, cfg, clock)
			result := conn.run(gctx)

			mu.Lock()
			if result.err == nil {
				accepted[j.host] = append(accepted[j.host], result.sample)
			}
			mu.Unlock()

			if progress != nil {
				progress(progressEvent{host: j.host, address: j.address, result: result})
			}
			return nil
		})
	}
	_ = g.Wait()

	return accepted
}
