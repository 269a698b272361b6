package collector

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/opscart/k8s-hpa-auditor/pkg/analyzer"
	"github.com/opscart/k8s-hpa-auditor/pkg/models"
)

// CollectionError reports a failed list call, tagged with the resource kind
// being fetched. Any collection failure is fatal to the scan: a coverage
// conclusion computed from partial data is worse than no conclusion.
type CollectionError struct {
	Kind string
	Err  error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("failed to list %s: %v", e.Kind, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// Snapshot is the complete collected input for one scan
type Snapshot struct {
	Namespaces []string
	Workloads  []models.WorkloadRecord
	Policies   []models.AutoscalePolicyRecord
}

// Collector fetches workloads and autoscaling policies from the cluster
type Collector struct {
	clientset kubernetes.Interface
	filter    analyzer.NamespaceFilter
}

// New creates a collector scoped by the given namespace filter
func New(clientset kubernetes.Interface, filter analyzer.NamespaceFilter) *Collector {
	return &Collector{clientset: clientset, filter: filter}
}

// Collect issues one cluster-wide list call per resource kind and filters the
// results client-side to the selected namespaces. It returns on the first
// failed call; there is no partial result.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	listOpts := metav1.ListOptions{}
	snapshot := &Snapshot{}

	nsList, err := c.clientset.CoreV1().Namespaces().List(ctx, listOpts)
	if err != nil {
		return nil, &CollectionError{Kind: "Namespace", Err: err}
	}
	names := make([]string, 0, len(nsList.Items))
	for _, ns := range nsList.Items {
		names = append(names, ns.Name)
	}
	snapshot.Namespaces = c.filter.Filter(names)
	logrus.Debugf("scanning %d of %d namespaces", len(snapshot.Namespaces), len(names))

	deployments, err := c.clientset.AppsV1().Deployments("").List(ctx, listOpts)
	if err != nil {
		return nil, &CollectionError{Kind: string(models.KindDeployment), Err: err}
	}
	for _, item := range deployments.Items {
		if !c.filter.Keep(item.Namespace) {
			continue
		}
		snapshot.Workloads = append(snapshot.Workloads, models.WorkloadRecord{
			Kind:                models.KindDeployment,
			Namespace:           item.Namespace,
			Name:                item.Name,
			Replicas:            replicaCount(item.Spec.Replicas),
			HasResourceRequests: templateHasResourceRequests(item.Spec.Template),
			Labels:              item.Labels,
		})
	}

	statefulSets, err := c.clientset.AppsV1().StatefulSets("").List(ctx, listOpts)
	if err != nil {
		return nil, &CollectionError{Kind: string(models.KindStatefulSet), Err: err}
	}
	for _, item := range statefulSets.Items {
		if !c.filter.Keep(item.Namespace) {
			continue
		}
		snapshot.Workloads = append(snapshot.Workloads, models.WorkloadRecord{
			Kind:                models.KindStatefulSet,
			Namespace:           item.Namespace,
			Name:                item.Name,
			Replicas:            replicaCount(item.Spec.Replicas),
			HasResourceRequests: templateHasResourceRequests(item.Spec.Template),
			Labels:              item.Labels,
		})
	}

	replicaSets, err := c.clientset.AppsV1().ReplicaSets("").List(ctx, listOpts)
	if err != nil {
		return nil, &CollectionError{Kind: string(models.KindReplicaSet), Err: err}
	}
	for _, item := range replicaSets.Items {
		if !c.filter.Keep(item.Namespace) {
			continue
		}
		snapshot.Workloads = append(snapshot.Workloads, models.WorkloadRecord{
			Kind:                models.KindReplicaSet,
			Namespace:           item.Namespace,
			Name:                item.Name,
			Replicas:            replicaCount(item.Spec.Replicas),
			HasResourceRequests: templateHasResourceRequests(item.Spec.Template),
			Labels:              item.Labels,
		})
	}

	hpas, err := c.clientset.AutoscalingV2().HorizontalPodAutoscalers("").List(ctx, listOpts)
	if err != nil {
		return nil, &CollectionError{Kind: "HorizontalPodAutoscaler", Err: err}
	}
	for _, item := range hpas.Items {
		if !c.filter.Keep(item.Namespace) {
			continue
		}
		snapshot.Policies = append(snapshot.Policies, models.AutoscalePolicyRecord{
			Namespace:  item.Namespace,
			Name:       item.Name,
			TargetKind: item.Spec.ScaleTargetRef.Kind,
			TargetName: item.Spec.ScaleTargetRef.Name,
		})
	}

	logrus.Debugf("collected %d workloads and %d autoscaling policies",
		len(snapshot.Workloads), len(snapshot.Policies))

	return snapshot, nil
}

func replicaCount(replicas *int32) int32 {
	if replicas == nil {
		return 1
	}
	return *replicas
}

// templateHasResourceRequests reports whether any container in the pod
// template declares a CPU or memory request or limit
func templateHasResourceRequests(template corev1.PodTemplateSpec) bool {
	for _, container := range template.Spec.Containers {
		if len(container.Resources.Requests) > 0 || len(container.Resources.Limits) > 0 {
			return true
		}
	}
	return false
}
