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

package protocol

import "time"

// Time converts a time.Time into its Time64 NTP representation.
func Time(t time.Time) Time64 {
	usec := t.UnixMicro() - t.Unix()*1_000_000
	return Time64FromUnix(t.Unix(), usec)
}

// Unix converts an NTP Time64 value into a time.Time.
func Unix(t Time64) time.Time {
	ms := t.Milliseconds()
	return time.UnixMilli(ms)
}
