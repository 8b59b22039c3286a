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
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/truetime-go/truetime/ntp/protocol"
)

// connResult is what a connection's terminal state produces: a Sample on
// success, or one of the error-taxonomy sentinels.
type connResult struct {
	sample Sample
	err    error
}

// connection is one UDP exchange with one address, with its own retry
// policy. State machine: Idle -> Sending -> AwaitingReply -> (Completed |
// Failed -> Sending | TimedOut). Grounded on
// ntp/responder/server/server.go's UDP send/receive cycle for the wire
// exchange and ptp/sptp/client/client.go's per-server exchange object for
// the retry/timeout shape.
type connection struct {
	host    string
	address netip.AddrPort
	cfg     Config
	clock   MonotonicClock
}

func newConnection(host string, address netip.AddrPort, cfg Config, clock MonotonicClock) *connection {
	return &connection{host: host, address: address, cfg: cfg, clock: clock}
}

// run drives the connection to a terminal state, retrying up to
// cfg.MaxRetries times on non-timeout failures. A TimedOut or Offline
// result is terminal and is never retried by the connection itself (the
// pool may still count it for progress accounting).
func (c *connection) run(ctx context.Context) connResult {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return connResult{err: ErrOffline}
		}

		sample, err := c.attempt(ctx)
		if err == nil {
			return connResult{sample: sample}
		}
		if errors.Is(err, ErrTimedOut) || errors.Is(err, ErrOffline) {
			return connResult{err: err}
		}
		lastErr = err
	}
	return connResult{err: lastErr}
}

// attempt performs exactly one send/receive cycle: capture start_time and
// request_ticks, send the request, wait for one datagram, compute
// response_ticks and response_time_ms, decode, and validate.
func (c *connection) attempt(ctx context.Context) (Sample, error) {
	udpAddr := net.UDPAddrFromAddrPort(c.address)
	sock, err := net.DialUDP(udpNetwork(c.address), nil, udpAddr)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: dial: %v", ErrBadServerResponse, err)
	}
	defer sock.Close()

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > c.cfg.Timeout {
		deadline = time.Now().Add(c.cfg.Timeout)
	}
	if err := sock.SetDeadline(deadline); err != nil {
		return Sample{}, fmt.Errorf("%w: deadline: %v", ErrBadServerResponse, err)
	}

	// Non-blocking tear-down (spec.md §5): if the round is cancelled while
	// this exchange is parked in sock.Read, force it to return immediately
	// instead of waiting out the per-exchange deadline.
	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			sock.SetReadDeadline(time.Now())
		case <-watcherDone:
		}
	}()

	startTime := protocol.Time(time.Now())
	requestTicks := c.clock.Uptime()

	if _, err := sock.Write(protocol.EncodeRequest(startTime)); err != nil {
		return Sample{}, fmt.Errorf("%w: send: %v", ErrBadServerResponse, err)
	}

	buf := make([]byte, protocol.PacketSizeBytes+32)
	n, err := sock.Read(buf)
	responseTicks := c.clock.Uptime()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			if ctx.Err() != nil {
				// The watcher goroutine forced this read to return by
				// moving the deadline, not the wire exchange itself timing
				// out: report the round's own cancellation instead.
				return Sample{}, ErrOffline
			}
			return Sample{}, ErrTimedOut
		}
		return Sample{}, fmt.Errorf("%w: recv: %v", ErrBadServerResponse, err)
	}

	packet, err := protocol.DecodeResponse(buf[:n])
	if err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrBadServerResponse, err)
	}

	responseTimeMs := startTime.Milliseconds() + (responseTicks - requestTicks).Milliseconds()
	e := &exchange{
		packet:         packet,
		startTime:      startTime,
		requestTicks:   requestTicks,
		responseTicks:  responseTicks,
		responseTimeMs: responseTimeMs,
		serverHost:     c.host,
		address:        c.address,
	}

	sample, accepted := toSample(e, maxDispersionMillis)
	if !accepted {
		return Sample{}, ErrBadServerResponse
	}
	return sample, nil
}

func udpNetwork(addr netip.AddrPort) string {
	if addr.Addr().Is4() {
		return "udp4"
	}
	return "udp6"
}
