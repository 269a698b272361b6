package e2e

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/version"
	fakediscovery "k8s.io/client-go/discovery/fake"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/opscart/k8s-hpa-auditor/pkg/analyzer"
	"github.com/opscart/k8s-hpa-auditor/pkg/collector"
	"github.com/opscart/k8s-hpa-auditor/pkg/kube"
	"github.com/opscart/k8s-hpa-auditor/pkg/models"
	"github.com/opscart/k8s-hpa-auditor/pkg/reporter"
	"github.com/opscart/k8s-hpa-auditor/pkg/scanner"
)

func int32Ptr(v int32) *int32 { return &v }

func requestsTemplate() corev1.PodTemplateSpec {
	return corev1.PodTemplateSpec{
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{
				Name: "app",
				Resources: corev1.ResourceRequirements{
					Requests: corev1.ResourceList{
						corev1.ResourceCPU:    resource.MustParse("100m"),
						corev1.ResourceMemory: resource.MustParse("128Mi"),
					},
				},
			}},
		},
	}
}

func bareTemplate() corev1.PodTemplateSpec {
	return corev1.PodTemplateSpec{
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{Name: "app"}},
		},
	}
}

func newScanner(objects ...runtime.Object) (*scanner.Scanner, *fake.Clientset) {
	clientset := fake.NewSimpleClientset(objects...)
	if discovery, ok := clientset.Discovery().(*fakediscovery.FakeDiscovery); ok {
		discovery.FakedServerVersion = &version.Info{GitVersion: "v1.31.0"}
	}
	scan := scanner.New(clientset, scanner.Options{
		Filter: analyzer.NamespaceFilter{SystemPrefixes: []string{"kube-", "system-"}},
		Info:   kube.ClusterInfo{Context: "e2e", Cluster: "e2e-cluster", User: "e2e"},
	})
	return scan, clientset
}

// Scenario A: one Deployment with requests and no policies yields one finding
func TestScanUncoveredDeployment(t *testing.T) {
	scan, _ := newScanner(
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "web-app"},
			Spec: appsv1.DeploymentSpec{
				Replicas: int32Ptr(3),
				Template: requestsTemplate(),
			},
		},
	)

	report, err := scan.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, report.Summary.TotalFindings)
	require.Len(t, report.Groups, 1)
	finding := report.Groups[0].Findings[0]
	assert.Equal(t, "default", finding.Namespace)
	assert.Equal(t, models.KindDeployment, finding.Kind)
	assert.Equal(t, "web-app", finding.Name)
	assert.Equal(t, int32(3), finding.Replicas)

	var text strings.Builder
	require.NoError(t, reporter.Generate(report, reporter.FormatText, &text))
	assert.Contains(t, text.String(), "Deployment/web-app (replicas=3)")
}

// Scenario B: the same Deployment with a covering policy yields zero findings
func TestScanCoveredDeployment(t *testing.T) {
	scan, _ := newScanner(
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "web-app"},
			Spec: appsv1.DeploymentSpec{
				Replicas: int32Ptr(3),
				Template: requestsTemplate(),
			},
		},
		&autoscalingv2.HorizontalPodAutoscaler{
			ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "web-app-hpa"},
			Spec: autoscalingv2.HorizontalPodAutoscalerSpec{
				ScaleTargetRef: autoscalingv2.CrossVersionObjectReference{
					Kind: "Deployment", Name: "web-app",
				},
			},
		},
	)

	report, err := scan.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Summary.TotalFindings)
	assert.Empty(t, report.Groups)
	assert.Equal(t, 1, report.Summary.ScannedPerKind[models.KindDeployment])
}

// Scenario C: a StatefulSet without resource requests never appears
func TestScanStatefulSetWithoutRequests(t *testing.T) {
	scan, _ := newScanner(
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		&appsv1.StatefulSet{
			ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "cache"},
			Spec: appsv1.StatefulSetSpec{
				Replicas: int32Ptr(2),
				Template: bareTemplate(),
			},
		},
	)

	report, err := scan.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Summary.TotalFindings)
	assert.Equal(t, 1, report.Summary.ScannedPerKind[models.KindStatefulSet])
}

// Scenario D: a denied ReplicaSet list terminates the scan with no report
func TestScanReplicaSetListDenied(t *testing.T) {
	scan, clientset := newScanner(
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "web-app"},
			Spec: appsv1.DeploymentSpec{
				Replicas: int32Ptr(3),
				Template: requestsTemplate(),
			},
		},
	)
	clientset.PrependReactor("list", "replicasets",
		func(action k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, errors.New("replicasets.apps is forbidden")
		})

	report, err := scan.Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, scanner.PhaseFailed, scan.Phase())

	var collectionErr *collector.CollectionError
	require.ErrorAs(t, err, &collectionErr)
	assert.Equal(t, "ReplicaSet", collectionErr.Kind)
}

// Mixed cluster: determinism and the summation invariant hold end to end
func TestScanMixedClusterDeterministic(t *testing.T) {
	objects := []runtime.Object{
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "prod"}},
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "kube-system"}},
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Namespace: "prod", Name: "api"},
			Spec:       appsv1.DeploymentSpec{Replicas: int32Ptr(5), Template: requestsTemplate()},
		},
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "web-app"},
			Spec:       appsv1.DeploymentSpec{Replicas: int32Ptr(3), Template: requestsTemplate()},
		},
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Namespace: "kube-system", Name: "coredns"},
			Spec:       appsv1.DeploymentSpec{Replicas: int32Ptr(2), Template: requestsTemplate()},
		},
		&appsv1.StatefulSet{
			ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "db"},
			Spec:       appsv1.StatefulSetSpec{Replicas: int32Ptr(1), Template: requestsTemplate()},
		},
		&appsv1.ReplicaSet{
			ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "standalone-rs"},
			Spec:       appsv1.ReplicaSetSpec{Replicas: int32Ptr(1), Template: bareTemplate()},
		},
		&autoscalingv2.HorizontalPodAutoscaler{
			ObjectMeta: metav1.ObjectMeta{Namespace: "prod", Name: "api-hpa"},
			Spec: autoscalingv2.HorizontalPodAutoscalerSpec{
				ScaleTargetRef: autoscalingv2.CrossVersionObjectReference{
					Kind: "Deployment", Name: "api",
				},
			},
		},
	}

	scanA, _ := newScanner(objects...)
	reportA, err := scanA.Run(context.Background())
	require.NoError(t, err)

	scanB, _ := newScanner(objects...)
	reportB, err := scanB.Run(context.Background())
	require.NoError(t, err)

	// kube-system excluded, prod/api covered: findings are web-app and db
	assert.Equal(t, 2, reportA.Summary.TotalFindings)
	assert.Equal(t, reportA.FindingCount(), reportA.Summary.TotalFindings)
	assert.Equal(t, 2, reportA.Summary.ScannedPerKind[models.KindDeployment])
	assert.Equal(t, 1, reportA.Summary.ScannedPerKind[models.KindStatefulSet])
	assert.Equal(t, 1, reportA.Summary.ScannedPerKind[models.KindReplicaSet])

	var textA, textB strings.Builder
	require.NoError(t, reporter.Generate(reportA, reporter.FormatText, &textA))
	require.NoError(t, reporter.Generate(reportB, reporter.FormatText, &textB))
	assert.Equal(t, textA.String(), textB.String(), "identical clusters must render identically")
}
