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
	"sync/atomic"
	"time"

	"github.com/truetime-go/truetime/ntp/protocol"
	"github.com/truetime-go/truetime/stats"
)

// engineState is one of Stopped | Running | WaitingForNetwork | Polling.
type engineState int

const (
	Stopped engineState = iota
	Running
	WaitingForNetwork
	Polling
)

func (s engineState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case WaitingForNetwork:
		return "waiting_for_network"
	case Polling:
		return "polling"
	default:
		return "unknown"
	}
}

// Callback is the shape of a first/completion callback: it receives a
// reference time snapshot on success, or an error from the taxonomy in
// errors.go.
type Callback func(*ReferenceTime, error)

// Client is the true-time engine: a state machine tying the resolver,
// connection pool, validator/selector and reference cell together. All
// mutable engine state is touched only by the single goroutine running
// loop(), the "single logical task queue per engine instance" the
// concurrency model calls for; the reference cell is the one exception,
// with its own lock, reachable from any goroutine.
//
// Grounded on ptp/sptp/client/sptp.go's Run/runInternal poll-timer loop and
// fbclock/daemon/daemon.go's Run ticker loop, combined with a reachability
// subscription modeled as a channel the way sptp.go:RunListener treats its
// announce channel as an input port.
type Client struct {
	cfg          Config
	resolver     Resolver
	reachability ReachabilitySource
	clock        MonotonicClock
	stats        stats.Recorder

	cmds    chan func()
	updates chan struct{}
	done    chan struct{}
	closeOnce sync.Once

	ref *referenceCell

	// everything below is only ever touched inside loop().
	state               engineState
	pool                []string
	port                int
	started             bool
	finished            bool
	reachStatus         ReachabilityStatus
	unsubscribe         func()
	roundCancel         context.CancelFunc
	pollTimer           *time.Timer
	firstCallbacks      []Callback
	completionCallbacks []Callback
}

// New constructs a Client. resolver, reachability and clock are the
// external collaborators spec.md carves out of the core's scope; callers
// typically wire the defaults from truetime/reachability and
// truetime/monoclock.
func New(cfg Config, resolver Resolver, reachability ReachabilitySource, clock MonotonicClock) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if resolver == nil {
		resolver = newDNSResolver()
	}
	c := &Client{
		cfg:          cfg,
		resolver:     resolver,
		reachability: reachability,
		clock:        clock,
		cmds:         make(chan func()),
		updates:      make(chan struct{}, 1),
		done:         make(chan struct{}),
		ref:          &referenceCell{},
	}
	go c.loop()
	return c, nil
}

// SetStats attaches a metrics recorder; pass nil to disable recording.
func (c *Client) SetStats(rec stats.Recorder) {
	c.post(func() { c.stats = rec })
}

// loop is the engine's serialisation domain: a single goroutine draining a
// command queue, so start/pause/reachability/round_complete/poll_timer_fired
// all observe and mutate state one at a time.
func (c *Client) loop() {
	for {
		select {
		case fn := <-c.cmds:
			fn()
		case <-c.done:
			return
		}
	}
}

func (c *Client) post(fn func()) {
	select {
	case c.cmds <- fn:
	case <-c.done:
	}
}

// Start subscribes to reachability and, once reachable, begins sampling
// pool at port (default 123 if port == 0). Returns immediately; work is
// enqueued onto the engine's serialisation domain.
func (c *Client) Start(pool []string, port int) {
	if port == 0 {
		port = 123
	}
	cp := append([]string(nil), pool...)
	c.post(func() { c.handleStart(cp, port) })
}

// Pause tears down any in-flight round, unsubscribes from reachability, and
// drops pending callbacks without firing them (B3).
func (c *Client) Pause() {
	c.post(c.handlePause)
}

// FetchIfNeeded requests delivery of the current reference (first) and/or
// the next completed round's result (completion). Either may be nil.
func (c *Client) FetchIfNeeded(first, completion Callback) {
	c.post(func() { c.handleFetchIfNeeded(first, completion) })
}

// ReferenceTime returns the latest accepted reference snapshot, or nil if
// none has been accepted yet.
func (c *Client) ReferenceTime() *ReferenceTime {
	return c.ref.get()
}

// Now returns the engine's current best estimate of wall time, or false if
// no reference has been established yet.
func (c *Client) Now() (time.Time, bool) {
	ref := c.ref.get()
	if ref == nil {
		return time.Time{}, false
	}
	return ref.Now(c.clock.Uptime()), true
}

// Updates publishes a value every time the reference transitions from
// absent to present, and on every subsequent final round completion: the
// idiomatic equivalent of spec.md's TrueTimeUpdated notification.
func (c *Client) Updates() <-chan struct{} {
	return c.updates
}

// Close tears the engine down. If wait, it blocks until the teardown has
// been processed by the serialisation domain.
func (c *Client) Close(wait bool) {
	c.closeOnce.Do(func() {
		if wait {
			drained := make(chan struct{})
			c.post(func() {
				c.handlePause()
				close(drained)
			})
			<-drained
		} else {
			c.post(c.handlePause)
		}
		close(c.done)
	})
}

// --- engine state machine, runs only inside loop() ---

func (c *Client) handleStart(pool []string, port int) {
	c.pool = pool
	c.port = port
	c.started = true

	if c.unsubscribe == nil && c.reachability != nil {
		c.unsubscribe = c.reachability.Subscribe(func(s ReachabilityStatus) {
			c.post(func() { c.handleReachability(s) })
		})
		c.reachStatus = c.reachability.Current()
	}

	if ref := c.ref.get(); ref != nil {
		c.armPollTimer()
	}

	log.Debugf("truetime: start pool=%v port=%d", pool, port)
	c.handleReachability(c.reachStatus)
}

func (c *Client) handlePause() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	if c.pollTimer != nil {
		c.pollTimer.Stop()
		c.pollTimer = nil
	}
	c.invalidate()
	c.firstCallbacks = nil
	c.completionCallbacks = nil
	c.started = false
	c.state = Stopped
	log.Debug("truetime: paused")
}

func (c *Client) handleReachability(status ReachabilityStatus) {
	c.reachStatus = status
	log.Debugf("truetime: reachability -> %s", status)

	if status == Unreachable {
		if c.pollTimer != nil {
			c.pollTimer.Stop()
		}
		c.invalidate()
		c.state = WaitingForNetwork
		c.fireCompletion(nil, ErrOffline)
		return
	}

	if !c.started {
		return
	}
	if c.roundCancel == nil && len(c.pool) > 0 && !c.finished {
		c.startRound()
	}
}

func (c *Client) handleFetchIfNeeded(first, completion Callback) {
	ref := c.ref.get()
	if ref != nil {
		if first != nil {
			go first(ref, nil)
		}
		if c.finished {
			if completion != nil {
				go completion(ref, nil)
			}
			return
		}
	}

	if c.reachStatus == Unreachable {
		if first != nil && ref == nil {
			go first(nil, ErrOffline)
		}
		if completion != nil {
			go completion(nil, ErrOffline)
		}
		return
	}

	if first != nil && ref == nil {
		c.firstCallbacks = append(c.firstCallbacks, first)
	}
	if completion != nil {
		c.completionCallbacks = append(c.completionCallbacks, completion)
	}
	if c.roundCancel == nil && len(c.pool) > 0 {
		c.startRound()
	}
}

func (c *Client) handlePollTimerFired() {
	log.Debug("truetime: poll timer fired")
	c.invalidate()
	if c.reachStatus != Unreachable {
		c.startRound()
	}
}

// invalidate tears down any running round state without touching the
// reference cell; it does not fire callbacks, since it only ever runs
// inside a transition (offline, poll, pause) that has its own callback
// handling.
func (c *Client) invalidate() {
	if c.roundCancel != nil {
		c.roundCancel()
		c.roundCancel = nil
	}
	c.finished = false
}

func (c *Client) armPollTimer() {
	if c.pollTimer != nil {
		c.pollTimer.Stop()
	}
	delay := c.cfg.PollInterval
	if ref := c.ref.get(); ref != nil {
		age := ref.UptimeInterval(c.clock.Uptime())
		delay = c.cfg.PollInterval - age
		if delay < 0 {
			delay = 0
		}
	}
	c.pollTimer = time.AfterFunc(delay, func() {
		c.post(c.handlePollTimerFired)
	})
	c.state = Polling
}

func (c *Client) fireFirst(ref *ReferenceTime, err error) {
	cbs := c.firstCallbacks
	c.firstCallbacks = nil
	for _, cb := range cbs {
		cb := cb
		go cb(ref, err)
	}
}

func (c *Client) fireCompletion(ref *ReferenceTime, err error) {
	cbs := c.completionCallbacks
	c.completionCallbacks = nil
	for _, cb := range cbs {
		cb := cb
		go cb(ref, err)
	}
}

func (c *Client) publishUpdate() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// startRound resolves the first cfg.MaxServers hosts in pool, launches the connection pool
// against their addresses, and posts first/final results back onto the
// serialisation domain. Exactly one round runs at a time (I1): callers must
// check roundCancel == nil before calling this.
func (c *Client) startRound() {
	ctx, cancel := context.WithCancel(context.Background())
	c.roundCancel = cancel
	c.state = Running
	go c.runRound(ctx)
}

func (c *Client) runRound(ctx context.Context) {
	hosts := c.pool
	if len(hosts) > c.cfg.MaxServers {
		hosts = hosts[:c.cfg.MaxServers]
	}

	targets := make(map[string][]netip.AddrPort, len(hosts))
	hostOrder := make([]string, 0, len(hosts))
	var resolveErr error
	for _, h := range hosts {
		res := c.resolver.Resolve(ctx, []hostPort{{host: h, port: c.port}}, c.cfg.Timeout)
		if res.Err != nil {
			resolveErr = res.Err
			continue
		}
		targets[h] = res.Addresses
		hostOrder = append(hostOrder, h)
	}
	if len(targets) == 0 {
		if resolveErr == nil {
			resolveErr = ErrCannotFindHost
		}
		c.post(func() { c.handleRoundComplete(nil, 0, resolveErr) })
		return
	}

	var mu sync.Mutex
	firstFired := false
	var completed atomic.Int64

	accepted := runPool(ctx, targets, c.cfg, c.clock, func(ev progressEvent) {
		completed.Add(1)
		if ev.result.err != nil {
			return
		}
		mu.Lock()
		already := firstFired
		firstFired = true
		mu.Unlock()
		if !already {
			sample := ev.result.sample
			c.post(func() { c.handleFirstSample(sample) })
		}
	})

	sample, ok := selectSample(accepted, hostOrder)
	if !ok {
		c.post(func() { c.handleRoundComplete(nil, int(completed.Load()), ErrNoValidPacket) })
		return
	}
	c.post(func() { c.handleRoundComplete(&sample, int(completed.Load()), nil) })
}

func (c *Client) handleFirstSample(s Sample) {
	ref := referenceFromSample(s, 1)
	c.ref.set(ref)
	c.fireFirst(&ref, nil)
	c.publishUpdate()
}

// handleRoundComplete implements round_complete(success) and
// round_complete(failure). sampleCount is the number of connections that
// reached a terminal state during the round (Open Question (a): sample_size
// reports all completed attempts, not just accepted ones).
func (c *Client) handleRoundComplete(sample *Sample, sampleCount int, err error) {
	c.roundCancel = nil

	if err != nil || sample == nil {
		log.Warningf("truetime: round failed: %v", err)
		if c.stats != nil {
			c.stats.IncCounter("round.failed")
		}
		c.fireCompletion(nil, err)
		c.state = Running
		return
	}

	if c.stats != nil {
		c.stats.IncCounter("round.succeeded")
		c.stats.ObserveOffset(float64(sample.OffsetMs))
		c.stats.ObserveDelay(float64(sample.DelayMs))
	}

	ref := referenceFromSample(*sample, sampleCount)
	c.ref.set(ref)
	c.finished = true
	c.fireCompletion(&ref, nil)
	c.publishUpdate()
	c.armPollTimer()
}

func referenceFromSample(s Sample, sampleSize int) ReferenceTime {
	return ReferenceTime{
		WallTime:         s.NetworkTime(),
		UptimeAtResponse: s.ResponseTicks,
		ServerHost:       s.ServerHost,
		StartTime:        protocol.Unix(s.StartTime),
		SampleSize:       sampleSize,
	}
}
