// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan results recorded in ScansTotal.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultRepeat   = "already_checked_in"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

var (
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkin_scans_total",
		Help: "Check-in scans by result",
	}, []string{"result"})

	BulkOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkin_bulk_operations_total",
		Help: "Administrative bulk operations by kind",
	}, []string{"op"})

	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_clients",
		Help: "Currently connected realtime clients",
	})

	RealtimeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_total",
		Help: "Realtime events queued for delivery, by event name",
	}, []string{"event"})

	RealtimeEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "realtime_events_dropped_total",
		Help: "Realtime events dropped because a client's send queue was full",
	})
)
