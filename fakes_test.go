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
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/truetime-go/truetime/ntp/protocol"
)

// fakeClock is a MonotonicClock whose uptime advances only when told to,
// giving tests control over response_ticks/age computations. Grounded on
// ptp/sptp/client/clock_mock_test.go's MockClock, simplified here to a
// hand-rolled atomic counter since the engine's interface surface is a
// single method.
type fakeClock struct {
	nanos atomic.Int64
}

func newFakeClock(start time.Duration) *fakeClock {
	c := &fakeClock{}
	c.nanos.Store(int64(start))
	return c
}

func (c *fakeClock) Uptime() time.Duration {
	return time.Duration(c.nanos.Load())
}

func (c *fakeClock) advance(d time.Duration) {
	c.nanos.Add(int64(d))
}

// fakeReachability is a ReachabilitySource test double with manual
// transitions, grounded on the Subscribe/Current shape of
// reachability.ICMPProber.
type fakeReachability struct {
	mu        sync.Mutex
	current   ReachabilityStatus
	listeners map[int]func(ReachabilityStatus)
	nextID    int
}

func newFakeReachability(initial ReachabilityStatus) *fakeReachability {
	return &fakeReachability{current: initial, listeners: map[int]func(ReachabilityStatus){}}
}

func (f *fakeReachability) Subscribe(fn func(ReachabilityStatus)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *fakeReachability) Current() ReachabilityStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeReachability) set(status ReachabilityStatus) {
	f.mu.Lock()
	f.current = status
	listeners := make([]func(ReachabilityStatus), 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(status)
	}
}

// fakeResolver resolves every configured host to a fixed address, or fails
// it if absent from the map.
type fakeResolver struct {
	addrs map[string]netip.AddrPort
}

func (r *fakeResolver) Resolve(ctx context.Context, list []hostPort, timeout time.Duration) ResolveResult {
	for _, entry := range list {
		if addr, ok := r.addrs[entry.host]; ok {
			return ResolveResult{Host: entry.host, Addresses: []netip.AddrPort{addr}}
		}
	}
	return ResolveResult{Err: ErrCannotFindHost}
}

// testServerOpts configures one fake NTP responder's behaviour.
type testServerOpts struct {
	stratum        uint8
	leap           protocol.LeapIndicator
	rootDelayMs    int64
	rootDispMs     int64
	offset         time.Duration // added to the server's notion of "now"
	dropAll        bool
	dropFirstNOnly int32 // drop exactly this many requests, then answer
}

// testNTPServer is a deterministic, in-process UDP NTP responder used to
// back end-to-end engine tests without reaching real network servers.
// Grounded on ntp/responder/server/server.go's ReadFromUDP/WriteToUDP
// request loop.
type testNTPServer struct {
	conn     *net.UDPConn
	opts     testServerOpts
	dropped  atomic.Int32
	requests atomic.Int32
	closed   chan struct{}
}

// requestCount returns the number of datagrams the server has received so
// far, dropped or answered.
func (s *testNTPServer) requestCount() int {
	return int(s.requests.Load())
}

func startTestNTPServer(opts testServerOpts) (*testNTPServer, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		return nil, err
	}
	s := &testNTPServer{conn: conn, opts: opts, closed: make(chan struct{})}
	go s.serve()
	return s, nil
}

func (s *testNTPServer) addrPort() netip.AddrPort {
	udpAddr := s.conn.LocalAddr().(*net.UDPAddr)
	ip, _ := netip.AddrFromSlice(udpAddr.IP.To4())
	return netip.AddrPortFrom(ip, uint16(udpAddr.Port))
}

func (s *testNTPServer) port() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port
}

func (s *testNTPServer) close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
		s.conn.Close()
	}
}

func (s *testNTPServer) serve() {
	buf := make([]byte, 256)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		s.requests.Add(1)
		if s.opts.dropAll {
			continue
		}
		if s.opts.dropFirstNOnly > 0 && s.dropped.Add(1) <= s.opts.dropFirstNOnly {
			continue
		}

		req, err := protocol.DecodeResponse(buf[:n])
		if err != nil {
			continue
		}

		now := time.Now().Add(s.opts.offset)
		resp := &protocol.Packet{
			Settings:       testSettings(s.opts.leap, 3, protocol.ModeServer),
			Stratum:        s.opts.stratum,
			RootDelay:      millisToTime32(s.opts.rootDelayMs),
			RootDispersion: millisToTime32(s.opts.rootDispMs),
			OriginTime:     req.TransmitTime,
			ReceiveTime:    protocol.Time(now),
			TransmitTime:   protocol.Time(now),
		}
		out, err := resp.Bytes()
		if err != nil {
			continue
		}
		_, _ = s.conn.WriteToUDP(out, addr)
	}
}

func testSettings(li protocol.LeapIndicator, version int, mode uint8) uint8 {
	return uint8(li)<<6 | uint8(version)<<3 | mode
}

func millisToTime32(ms int64) protocol.Time32 {
	return protocol.Time32{
		Whole:    uint16(ms / 1000),
		Fraction: uint16((ms % 1000) * 65536 / 1000),
	}
}
