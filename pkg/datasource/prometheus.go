package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"github.com/sirupsen/logrus"
)

// PrometheusSource answers instant utilization queries for usage hints
type PrometheusSource struct {
	client v1.API
	url    string
}

// NewPrometheusSource creates a source against the given Prometheus base URL
func NewPrometheusSource(url string) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{
		Address: url,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &PrometheusSource{
		client: v1.NewAPI(client),
		url:    url,
	}, nil
}

// WorkloadUsage returns the summed instant CPU (millicores) and memory (bytes)
// usage of pods whose names start with the workload name in the namespace.
func (p *PrometheusSource) WorkloadUsage(ctx context.Context, namespace, workload string) (int64, int64, error) {
	cpuQuery := fmt.Sprintf(
		`sum(rate(container_cpu_usage_seconds_total{namespace="%s",pod=~"%s-.*"}[5m]))`,
		namespace, workload)
	cpu, err := p.querySingle(ctx, cpuQuery)
	if err != nil {
		return 0, 0, fmt.Errorf("CPU query failed: %w", err)
	}

	memQuery := fmt.Sprintf(
		`sum(container_memory_working_set_bytes{namespace="%s",pod=~"%s-.*"})`,
		namespace, workload)
	mem, err := p.querySingle(ctx, memQuery)
	if err != nil {
		return 0, 0, fmt.Errorf("memory query failed: %w", err)
	}

	return int64(cpu * 1000), int64(mem), nil
}

func (p *PrometheusSource) querySingle(ctx context.Context, query string) (float64, error) {
	result, warnings, err := p.client.Query(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}

	if len(warnings) > 0 {
		logrus.Warnf("Prometheus: %v", warnings)
	}

	vector, ok := result.(model.Vector)
	if !ok || len(vector) == 0 {
		return 0, fmt.Errorf("no data for query: %s", query)
	}

	sum := 0.0
	for _, sample := range vector {
		sum += float64(sample.Value)
	}

	return sum, nil
}

// IsAvailable checks whether the Prometheus endpoint answers queries
func (p *PrometheusSource) IsAvailable(ctx context.Context) bool {
	_, _, err := p.client.Query(ctx, "up", time.Now())
	return err == nil
}

// Name identifies the source in log output
func (p *PrometheusSource) Name() string {
	return "Prometheus"
}
