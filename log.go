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

import "github.com/sirupsen/logrus"

// log is the package-level logger, in the style of
// ptp/sptp/client/sptp.go and fbclock/daemon/daemon.go. Callers embedding
// this library may redirect it with SetLogger.
var log = logrus.StandardLogger()

// SetLogger redirects the package's logging output.
func SetLogger(l *logrus.Logger) {
	log = l
}
