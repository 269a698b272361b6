package usage

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/opscart/k8s-hpa-auditor/pkg/datasource"
	"github.com/opscart/k8s-hpa-auditor/pkg/models"
)

// Enricher annotates findings with current pod utilization. Hints are
// advisory: every failure is logged and skipped, never propagated, so the
// scan outcome does not depend on a metrics pipeline being healthy.
type Enricher struct {
	metricsClient metricsv.Interface
	prometheus    *datasource.PrometheusSource
}

// New creates an enricher. Either source may be nil; with both nil the
// enricher is a no-op.
func New(metricsClient metricsv.Interface, prometheus *datasource.PrometheusSource) *Enricher {
	return &Enricher{metricsClient: metricsClient, prometheus: prometheus}
}

// Enrich returns the findings with usage hints attached where a source had
// data. The input slice is not modified.
func (e *Enricher) Enrich(ctx context.Context, findings []models.Finding) []models.Finding {
	if e == nil || (e.metricsClient == nil && e.prometheus == nil) {
		return findings
	}

	out := make([]models.Finding, len(findings))
	copy(out, findings)

	for i := range out {
		hint := e.lookup(ctx, out[i].Namespace, out[i].Name)
		out[i].Usage = hint
	}
	return out
}

func (e *Enricher) lookup(ctx context.Context, namespace, workload string) *models.UsageHint {
	if e.metricsClient != nil {
		if hint := e.fromMetricsServer(ctx, namespace, workload); hint != nil {
			return hint
		}
	}
	if e.prometheus != nil {
		cpu, mem, err := e.prometheus.WorkloadUsage(ctx, namespace, workload)
		if err != nil {
			logrus.Debugf("prometheus usage lookup for %s/%s failed: %v", namespace, workload, err)
			return nil
		}
		return &models.UsageHint{CPUMillicores: cpu, MemoryBytes: mem}
	}
	return nil
}

// fromMetricsServer sums live usage over the workload's pods, matched by the
// workload-name prefix the controllers use when naming pods
func (e *Enricher) fromMetricsServer(ctx context.Context, namespace, workload string) *models.UsageHint {
	podMetrics, err := e.metricsClient.MetricsV1beta1().PodMetricses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		logrus.Debugf("metrics-server lookup in %s failed: %v", namespace, err)
		return nil
	}

	var cpu, mem int64
	matched := false
	for _, pod := range podMetrics.Items {
		if !strings.HasPrefix(pod.Name, workload+"-") {
			continue
		}
		matched = true
		for _, container := range pod.Containers {
			cpu += container.Usage.Cpu().MilliValue()
			mem += container.Usage.Memory().Value()
		}
	}

	if !matched {
		return nil
	}
	return &models.UsageHint{CPUMillicores: cpu, MemoryBytes: mem}
}
