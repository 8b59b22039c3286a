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
	"sort"

	"golang.org/x/exp/constraints"
)

// minByKey returns the element of items whose key(item) is smallest,
// breaking ties by original order. items must be non-empty.
//
// Generalized from the generic ordering helper cmd/ptpcheck/cmd/diag.go
// builds on top of golang.org/x/exp/constraints.
func minByKey[T any, K constraints.Ordered](items []T, key func(T) K) T {
	best := items[0]
	bestKey := key(best)
	for _, it := range items[1:] {
		if k := key(it); k < bestKey {
			best, bestKey = it, k
		}
	}
	return best
}

// selectSample is pure and stateless: given a mapping from host to its
// accepted samples, it picks the per-host minimum-delay winner, then the
// median winner across hosts by offset. Returns false if samples is empty.
//
// Grounded on the best-master selection shape of sptp.go's processResults:
// pick a per-source winner, then pick one overall winner among sources.
func selectSample(samples map[string][]Sample, hostOrder []string) (Sample, bool) {
	winners := make([]Sample, 0, len(hostOrder))
	for _, host := range hostOrder {
		hostSamples := samples[host]
		if len(hostSamples) == 0 {
			continue
		}
		winners = append(winners, minByKey(hostSamples, func(s Sample) int64 { return s.DelayMs }))
	}
	if len(winners) == 0 {
		return Sample{}, false
	}

	sort.SliceStable(winners, func(i, j int) bool {
		return winners[i].OffsetMs < winners[j].OffsetMs
	})
	return winners[len(winners)/2], true
}
