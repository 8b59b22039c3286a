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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConnectionAcceptsGoodResponse exercises one full request/response
// cycle end to end against the in-process responder.
func TestConnectionAcceptsGoodResponse(t *testing.T) {
	srv, err := startTestNTPServer(testServerOpts{stratum: 1})
	require.NoError(t, err)
	defer srv.close()

	cfg := DefaultConfig()
	cfg.Timeout = time.Second
	conn := newConnection("ntp.test", srv.addrPort(), cfg, newFakeClock(0))

	result := conn.run(context.Background())
	require.NoError(t, result.err)
	require.Equal(t, "ntp.test", result.sample.ServerHost)
}

// TestConnectionTimeoutIsTerminal is boundary B1: a connection that times
// out never retries and reports exactly one terminal TimedOut result.
func TestConnectionTimeoutIsTerminal(t *testing.T) {
	srv, err := startTestNTPServer(testServerOpts{dropAll: true})
	require.NoError(t, err)
	defer srv.close()

	cfg := DefaultConfig()
	cfg.Timeout = 100 * time.Millisecond
	cfg.MaxRetries = 3
	conn := newConnection("ntp.test", srv.addrPort(), cfg, newFakeClock(0))

	start := time.Now()
	result := conn.run(context.Background())
	elapsed := time.Since(start)

	require.ErrorIs(t, result.err, ErrTimedOut)
	// a retried timeout would take MaxRetries+1 multiples of Timeout; a
	// terminal one takes roughly one.
	require.Less(t, elapsed, 2*cfg.Timeout)
}

// TestConnectionMaxRetriesZero is boundary B2: with max_retries=0, a
// connection that fails for a retryable reason makes at most one attempt.
func TestConnectionMaxRetriesZero(t *testing.T) {
	srv, err := startTestNTPServer(testServerOpts{stratum: 0}) // stratum 0 is rejected by the validator
	require.NoError(t, err)
	defer srv.close()

	cfg := DefaultConfig()
	cfg.Timeout = time.Second
	cfg.MaxRetries = 0
	conn := newConnection("ntp.test", srv.addrPort(), cfg, newFakeClock(0))

	result := conn.run(context.Background())
	require.True(t, errors.Is(result.err, ErrBadServerResponse))
	require.Equal(t, 1, srv.requestCount())
}
