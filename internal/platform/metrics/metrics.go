// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics declares the Prometheus collectors exported on /metrics.
//
// Collectors are registered on the default registry at package init through
// promauto. Route labels use chi route patterns, never raw paths, so label
// cardinality stays bounded.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "yomira_id"

// # HTTP

var (
	// HTTPRequestsTotal counts finished HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// # Token Issuance

var (
	// TokensIssued counts ID token + refresh token pairs by grant ("password" or "refresh").
	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "ID token and refresh token pairs issued, by grant.",
		},
		[]string{"grant"},
	)

	// LoginFailures counts rejected credential checks.
	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_failures_total",
		Help:      "Rejected username/password verifications.",
	})

	// RefreshRejected counts failed refresh redemptions by reason ("not_found", "expired", "client").
	RefreshRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_rejected_total",
			Help:      "Refresh token redemptions that did not succeed, by reason.",
		},
		[]string{"reason"},
	)

	// RefreshTokensPruned counts expired refresh-token rows removed by the cleanup task.
	RefreshTokensPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_tokens_pruned_total",
		Help:      "Expired refresh-token records deleted.",
	})
)

// # Blind Signatures

var (
	// BlindSignatures counts blind signatures produced.
	BlindSignatures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blind_signatures_total",
		Help:      "Blind signatures issued.",
	})

	// BlindSignRejected counts rejected blind-sign requests by reason ("protocol", "quota").
	BlindSignRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blind_sign_rejected_total",
			Help:      "Blind-sign requests rejected before signing, by reason.",
		},
		[]string{"reason"},
	)

	// BlindKeyRotations counts rotation attempts by result ("success" or "failure").
	BlindKeyRotations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blind_key_rotations_total",
			Help:      "Blind-signature key rotation attempts, by result.",
		},
		[]string{"result"},
	)

	// BlindKeysPublished reports the number of blind public keys currently published.
	BlindKeysPublished = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "blind_keys_published",
		Help:      "Active plus retired blind-signature keys.",
	})
)
