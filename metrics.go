package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	riskUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evacuation_risk_updates_total",
		Help: "Number of risk snapshots published",
	})

	facilityHazard = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evacuation_facility_hazard",
		Help: "Normalized facility-wide hazard of the latest snapshot",
	})

	pathSearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evacuation_path_searches_total",
		Help: "A* searches by result",
	}, []string{"result"}) // found, not_found, aborted

	pathSearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evacuation_path_search_duration_seconds",
		Help:    "A* search latency",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~80ms
	})

	pathSearchIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evacuation_path_search_iterations",
		Help:    "Nodes expanded per A* search",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	replansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evacuation_replans_total",
		Help: "Replan attempts by outcome",
	}, []string{"outcome"}) // replanned, no_route

	alertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evacuation_alerts_total",
		Help: "Hazard alerts raised",
	})

	displayClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evacuation_display_clients",
		Help: "Connected display WebSocket clients",
	})
)
