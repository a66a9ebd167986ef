package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tua",
		Subsystem: "server",
		Name:      "record_fetches_total",
		Help:      "Record fetches served, by outcome.",
	}, []string{"outcome"})
	pushesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tua",
		Subsystem: "server",
		Name:      "record_pushes_total",
		Help:      "Record pushes served, by outcome.",
	}, []string{"outcome"})
	lastPushGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tua",
		Subsystem: "server",
		Name:      "last_record_push_timestamp_seconds",
		Help:      "Unix timestamp of the most recent accepted record push.",
	})
)

func init() {
	prometheus.MustRegister(fetchesTotal, pushesTotal, lastPushGauge)
}

func recordFetch(outcome string) { fetchesTotal.WithLabelValues(outcome).Inc() }
func recordPush(outcome string)  { pushesTotal.WithLabelValues(outcome).Inc() }

func recordPushAccepted(t time.Time) {
	recordPush("ok")
	lastPushGauge.Set(float64(t.Unix()))
}
