package preflight

import (
	"context"
	"fmt"
	"sort"
	"strings"

	authorizationv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// check describes one list permission the scan requires
type check struct {
	group    string
	resource string
	kind     string
}

var requiredChecks = []check{
	{group: "", resource: "namespaces", kind: "Namespace"},
	{group: "apps", resource: "deployments", kind: "Deployment"},
	{group: "apps", resource: "statefulsets", kind: "StatefulSet"},
	{group: "apps", resource: "replicasets", kind: "ReplicaSet"},
	{group: "autoscaling", resource: "horizontalpodautoscalers", kind: "HorizontalPodAutoscaler"},
}

// DeniedError reports the resource kinds the current identity may not list
type DeniedError struct {
	Kinds []string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("list permission denied for: %s", strings.Join(e.Kinds, ", "))
}

// Run verifies cluster-wide list authorization for every resource kind the
// scan touches, via SelfSubjectAccessReview. A denial for any kind aborts
// before the scan pipeline starts, so the collector never has to reason about
// authorization.
func Run(ctx context.Context, clientset kubernetes.Interface) error {
	var denied []string

	for _, c := range requiredChecks {
		review := &authorizationv1.SelfSubjectAccessReview{
			Spec: authorizationv1.SelfSubjectAccessReviewSpec{
				ResourceAttributes: &authorizationv1.ResourceAttributes{
					Verb:     "list",
					Group:    c.group,
					Resource: c.resource,
				},
			},
		}

		result, err := clientset.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, review, metav1.CreateOptions{})
		if err != nil {
			return fmt.Errorf("access review for %s failed: %w", c.kind, err)
		}
		if !result.Status.Allowed {
			denied = append(denied, c.kind)
		}
	}

	if len(denied) > 0 {
		sort.Strings(denied)
		return &DeniedError{Kinds: denied}
	}

	return nil
}
