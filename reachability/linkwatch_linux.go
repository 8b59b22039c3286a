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

package reachability

import (
	"net"
	"sync"
	"time"

	"github.com/jsimonetti/rtnetlink/rtnl"
	"github.com/sirupsen/logrus"

	"github.com/truetime-go/truetime"
)

// LinkWatcher polls a single Linux network interface's operational state
// over netlink and derives a reachability status from whether it is
// administratively and operationally up. Grounded on
// responder/server/ip.go's rtnl.Dial/addIfaceIP use of the rtnl connection
// to manipulate interface addresses; here we read link state instead of
// mutating addresses.
type LinkWatcher struct {
	iface    string
	interval time.Duration

	mu      sync.Mutex
	subs    map[int]func(truetime.ReachabilityStatus)
	nextID  int
	current truetime.ReachabilityStatus
	stop    chan struct{}
	once    sync.Once
}

// NewLinkWatcher polls iface's state every interval.
func NewLinkWatcher(iface string, interval time.Duration) *LinkWatcher {
	w := &LinkWatcher{
		iface:    iface,
		interval: interval,
		subs:     make(map[int]func(truetime.ReachabilityStatus)),
		current:  truetime.Unreachable,
		stop:     make(chan struct{}),
	}
	w.pollOnce()
	go w.loop()
	return w
}

func (w *LinkWatcher) Subscribe(fn func(truetime.ReachabilityStatus)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

func (w *LinkWatcher) Current() truetime.ReachabilityStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *LinkWatcher) Close() {
	w.once.Do(func() { close(w.stop) })
}

func (w *LinkWatcher) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.pollOnce()
		}
	}
}

func (w *LinkWatcher) pollOnce() {
	status := truetime.Unreachable
	if up, err := linkIsUp(w.iface); err != nil {
		logrus.Debugf("truetime/reachability: link check %s: %v", w.iface, err)
	} else if up {
		status = truetime.ReachableWiFi
	}
	w.transition(status)
}

func (w *LinkWatcher) transition(status truetime.ReachabilityStatus) {
	w.mu.Lock()
	if w.current == status {
		w.mu.Unlock()
		return
	}
	w.current = status
	subs := make([]func(truetime.ReachabilityStatus), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	for _, fn := range subs {
		fn(status)
	}
}

func linkIsUp(name string) (bool, error) {
	conn, err := rtnl.Dial(nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	iface, err := conn.LinkByName(name)
	if err != nil {
		return false, err
	}
	return iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagRunning != 0, nil
}
