package usage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsfake "k8s.io/metrics/pkg/client/clientset/versioned/fake"

	"github.com/opscart/k8s-hpa-auditor/pkg/models"
)

func podMetrics(namespace, name, cpu, memory string) *metricsv1beta1.PodMetrics {
	return &metricsv1beta1.PodMetrics{
		ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name},
		Containers: []metricsv1beta1.ContainerMetrics{{
			Name: "app",
			Usage: corev1.ResourceList{
				corev1.ResourceCPU:    resource.MustParse(cpu),
				corev1.ResourceMemory: resource.MustParse(memory),
			},
		}},
	}
}

// newMetricsClient seeds the fake clientset's tracker under the "pods"
// resource that the generated fake client reads from; NewSimpleClientset
// stores objects under the guessed "podmetricses" resource instead, so
// objects passed to it are invisible to List.
func newMetricsClient(t *testing.T, objects ...*metricsv1beta1.PodMetrics) *metricsfake.Clientset {
	t.Helper()
	c := metricsfake.NewSimpleClientset()
	gvr := metricsv1beta1.SchemeGroupVersion.WithResource("pods")
	for _, obj := range objects {
		if err := c.Tracker().Create(gvr, obj, obj.Namespace); err != nil {
			t.Fatal(err)
		}
	}
	return c
}

func TestEnrichFromMetricsServer(t *testing.T) {
	metricsClient := newMetricsClient(t,
		podMetrics("default", "web-app-7d9f8b-abcde", "150m", "128Mi"),
		podMetrics("default", "web-app-7d9f8b-fghij", "100m", "64Mi"),
		podMetrics("default", "unrelated-0", "500m", "512Mi"),
	)

	enricher := New(metricsClient, nil)
	findings := []models.Finding{
		{Namespace: "default", Kind: models.KindDeployment, Name: "web-app", Replicas: 2, HasResourceRequests: true},
	}

	enriched := enricher.Enrich(context.Background(), findings)

	require.Len(t, enriched, 1)
	require.NotNil(t, enriched[0].Usage)
	assert.Equal(t, int64(250), enriched[0].Usage.CPUMillicores)
	assert.Equal(t, int64(192*1024*1024), enriched[0].Usage.MemoryBytes)

	// Input slice stays untouched
	assert.Nil(t, findings[0].Usage)
}

func TestEnrichNoMatchingPods(t *testing.T) {
	metricsClient := newMetricsClient(t,
		podMetrics("default", "unrelated-0", "500m", "512Mi"),
	)

	enricher := New(metricsClient, nil)
	enriched := enricher.Enrich(context.Background(), []models.Finding{
		{Namespace: "default", Kind: models.KindDeployment, Name: "web-app", HasResourceRequests: true},
	})

	require.Len(t, enriched, 1)
	assert.Nil(t, enriched[0].Usage)
}

func TestEnrichNilEnricherIsNoop(t *testing.T) {
	var enricher *Enricher

	findings := []models.Finding{
		{Namespace: "default", Kind: models.KindDeployment, Name: "web-app", HasResourceRequests: true},
	}
	enriched := enricher.Enrich(context.Background(), findings)

	assert.Equal(t, findings, enriched)
}
