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
Package reachability provides default truetime.ReachabilitySource
implementations: an ICMP-based prober (cross-platform) and, on Linux, a
netlink link-state watcher.
*/
package reachability

import (
	"net"
	"sync"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/truetime-go/truetime"
)

// ICMPProber periodically pings a configured set of addresses and derives
// a three-valued reachability status from whether any of them answer.
// Grounded on calnex/verify/checks/ping.go's icmp.ListenPacket/echo-request
// round trip.
type ICMPProber struct {
	targets  []string
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	subs    map[int]func(truetime.ReachabilityStatus)
	nextID  int
	current truetime.ReachabilityStatus
	stop    chan struct{}
	once    sync.Once
}

// NewICMPProber constructs a prober over targets (IPv4 addresses or host
// names, each resolved to an IPv4 address on every probe), pinging every
// interval with timeout per echo.
func NewICMPProber(targets []string, interval, timeout time.Duration) *ICMPProber {
	p := &ICMPProber{
		targets:  targets,
		interval: interval,
		timeout:  timeout,
		subs:     make(map[int]func(truetime.ReachabilityStatus)),
		current:  truetime.Unreachable,
		stop:     make(chan struct{}),
	}
	p.probeOnce()
	go p.loop()
	return p
}

// Subscribe registers fn for every reachability transition.
func (p *ICMPProber) Subscribe(fn func(truetime.ReachabilityStatus)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Current returns the last observed status.
func (p *ICMPProber) Current() truetime.ReachabilityStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Close stops the probe loop.
func (p *ICMPProber) Close() {
	p.once.Do(func() { close(p.stop) })
}

func (p *ICMPProber) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.probeOnce()
		}
	}
}

func (p *ICMPProber) probeOnce() {
	status := truetime.Unreachable
	for _, target := range p.targets {
		if pingOnce(target, p.timeout) {
			status = truetime.ReachableWiFi
			break
		}
	}
	p.transition(status)
}

func (p *ICMPProber) transition(status truetime.ReachabilityStatus) {
	p.mu.Lock()
	if p.current == status {
		p.mu.Unlock()
		return
	}
	p.current = status
	subs := make([]func(truetime.ReachabilityStatus), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(status)
	}
}

// pingOnce sends a single ICMP echo request to target and reports whether
// a reply arrived within timeout.
func pingOnce(target string, timeout time.Duration) bool {
	ip, err := net.ResolveIPAddr("ip4", target)
	if err != nil {
		return false
	}

	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		return false
	}
	defer conn.Close()

	msg := &icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: int(time.Now().UnixNano() & 0xffff), Seq: 1, Data: []byte("truetime")},
	}
	b, err := msg.Marshal(nil)
	if err != nil {
		return false
	}

	if _, err := conn.WriteTo(b, &net.UDPAddr{IP: ip.IP}); err != nil {
		return false
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return false
	}

	resp := make([]byte, 128)
	n, _, err := conn.ReadFrom(resp)
	if err != nil {
		return false
	}

	reply, err := icmp.ParseMessage(1, resp[:n]) // protocol 1 == ICMP
	if err != nil {
		return false
	}
	return reply.Type == ipv4.ICMPTypeEchoReply
}
