// Copyright 2026 The PraxHub Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps the OpenTelemetry meter and the authorization instruments.
type Meter struct {
	meter metric.Meter

	decisions    metric.Int64Counter
	revocations  metric.Int64Counter
	contextBuild metric.Float64Histogram
}

// New creates a new meter instance
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	name := serviceName
	if !cfg.Enabled {
		name = "noop"
	}
	meter := otel.Meter(name)

	decisions, err := meter.Int64Counter(
		"authz_decisions_total",
		metric.WithDescription("Authorization decisions by outcome and scope"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create decisions counter: %w", err)
	}

	revocations, err := meter.Int64Counter(
		"revocation_users_total",
		metric.WithDescription("Users processed by the session invalidator, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create revocations counter: %w", err)
	}

	contextBuild, err := meter.Float64Histogram(
		"authz_context_build_seconds",
		metric.WithDescription("User context build latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create context build histogram: %w", err)
	}

	return &Meter{
		meter:        meter,
		decisions:    decisions,
		revocations:  revocations,
		contextBuild: contextBuild,
	}, nil
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

// RecordDecision counts one authorization decision.
func (m *Meter) RecordDecision(ctx context.Context, granted bool, scope string) {
	outcome := "deny"
	if granted {
		outcome = "grant"
	}
	m.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("scope", scope),
	))
}

// RecordRevocation counts users processed by an invalidation fan-out.
func (m *Meter) RecordRevocation(ctx context.Context, processed, failed int) {
	m.revocations.Add(ctx, int64(processed), metric.WithAttributes(
		attribute.String("outcome", "processed"),
	))
	if failed > 0 {
		m.revocations.Add(ctx, int64(failed), metric.WithAttributes(
			attribute.String("outcome", "failed"),
		))
	}
}

// RecordContextBuild records one user context build duration in seconds.
func (m *Meter) RecordContextBuild(ctx context.Context, seconds float64) {
	m.contextBuild.Record(ctx, seconds)
}
