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

package stats

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// PrometheusExporter periodically scrapes a Memory recorder's counters and
// gauges into a Prometheus registry, served over HTTP. Grounded on
// ptp/sptp/stats/prom_exporter.go.
type PrometheusExporter struct {
	registry   *prometheus.Registry
	source     *Memory
	listenPort int
	interval   time.Duration
}

// NewPrometheusExporter constructs an exporter that scrapes source every
// interval and serves /metrics on listenPort.
func NewPrometheusExporter(source *Memory, listenPort int, interval time.Duration) *PrometheusExporter {
	return &PrometheusExporter{
		registry:   prometheus.NewRegistry(),
		source:     source,
		listenPort: listenPort,
		interval:   interval,
	}
}

// Start runs the scrape loop and the metrics HTTP server; it blocks until
// the HTTP server returns (normally never, on a listen failure).
func (e *PrometheusExporter) Start() error {
	go func() {
		for {
			e.scrape()
			time.Sleep(e.interval)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	return http.ListenAndServe(fmt.Sprintf(":%d", e.listenPort), mux)
}

func (e *PrometheusExporter) scrape() {
	counters, gauges := e.source.Snapshot()
	for name, v := range counters {
		e.set(name, float64(v))
	}
	for name, v := range gauges {
		e.set(name, v)
	}
	e.set("offset_jitter_ms", e.source.OffsetJitter())
	e.set("delay_jitter_ms", e.source.DelayJitter())
}

func (e *PrometheusExporter) set(name string, value float64) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: flattenKey(name), Help: name})
	if err := e.registry.Register(g); err != nil {
		are := &prometheus.AlreadyRegisteredError{}
		if errors.As(err, are) {
			g = are.ExistingCollector.(prometheus.Gauge)
		} else {
			logrus.Errorf("truetime/stats: failed to register metric %s: %v", name, err)
			return
		}
	}
	g.Set(value)
}

func flattenKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, "/", "_")
	return key
}
