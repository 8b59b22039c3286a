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

import "errors"

// Error taxonomy surfaced by the engine to completion callbacks.
var (
	ErrCannotFindHost    = errors.New("truetime: cannot find host")
	ErrDNSLookupFailed   = errors.New("truetime: dns lookup failed")
	ErrTimedOut          = errors.New("truetime: timed out")
	ErrOffline           = errors.New("truetime: offline")
	ErrBadServerResponse = errors.New("truetime: bad server response")
	ErrNoValidPacket     = errors.New("truetime: no valid packet")
)
