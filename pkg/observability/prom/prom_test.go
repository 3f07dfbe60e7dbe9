package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	m := New(prometheus.NewRegistry())

	m.OnBuildComplete(ctx, "top", 10, 9, time.Millisecond, nil)
	m.OnBuildComplete(ctx, "top", 0, 0, time.Millisecond, errors.New("boom"))
	m.OnViolation(ctx, "top", "n1", "ambiguous driver")
	m.OnViolation(ctx, "top", "n2", "ambiguous driver")
	m.OnCacheHit(ctx, "graph")
	m.OnCacheSet(ctx, "graph", 512)
	m.OnResponse(ctx, "POST", "/v1/graphs", 422, time.Millisecond)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"builds ok", testutil.ToFloat64(m.buildTotal.WithLabelValues("ok")), 1},
		{"builds error", testutil.ToFloat64(m.buildTotal.WithLabelValues("error")), 1},
		{"violations", testutil.ToFloat64(m.violations.WithLabelValues("ambiguous driver")), 2},
		{"cache hits", testutil.ToFloat64(m.cacheOps.WithLabelValues("graph", "hit")), 1},
		{"cache bytes", testutil.ToFloat64(m.cacheBytes), 512},
		{"http 422", testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/v1/graphs", "422")), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering the same collectors twice should panic")
		}
	}()
	New(reg)
}
