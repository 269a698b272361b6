package models

// WorkloadKind identifies a scalable workload resource type
type WorkloadKind string

const (
	KindDeployment  WorkloadKind = "Deployment"
	KindStatefulSet WorkloadKind = "StatefulSet"
	KindReplicaSet  WorkloadKind = "ReplicaSet"
)

// ScannedKinds is the fixed set of workload kinds the scan covers, in report order
var ScannedKinds = []WorkloadKind{KindDeployment, KindStatefulSet, KindReplicaSet}

// KindRank returns the position of a kind in the report ordering.
// Unknown kinds sort after the supported ones.
func KindRank(kind WorkloadKind) int {
	for i, k := range ScannedKinds {
		if k == kind {
			return i
		}
	}
	return len(ScannedKinds)
}

// ResourceKey uniquely identifies a workload within the cluster
type ResourceKey struct {
	Namespace string
	Kind      WorkloadKind
	Name      string
}

// WorkloadRecord is an immutable snapshot of a scalable workload
type WorkloadRecord struct {
	Kind                WorkloadKind
	Namespace           string
	Name                string
	Replicas            int32
	HasResourceRequests bool
	Labels              map[string]string
}

// Key returns the identity used for coverage matching and deduplication
func (w WorkloadRecord) Key() ResourceKey {
	return ResourceKey{Namespace: w.Namespace, Kind: w.Kind, Name: w.Name}
}

// AutoscalePolicyRecord is an immutable snapshot of an HPA and its target
type AutoscalePolicyRecord struct {
	Namespace  string
	Name       string
	TargetKind string
	TargetName string
}

// TargetKey returns the workload key this policy covers. Policies whose target
// name is empty or whose kind is outside the scanned set cover nothing.
func (p AutoscalePolicyRecord) TargetKey() (ResourceKey, bool) {
	if p.TargetName == "" {
		return ResourceKey{}, false
	}
	kind := WorkloadKind(p.TargetKind)
	if KindRank(kind) >= len(ScannedKinds) {
		return ResourceKey{}, false
	}
	return ResourceKey{Namespace: p.Namespace, Kind: kind, Name: p.TargetName}, true
}

// CoverageIndex records which workload keys are targeted by some autoscaling
// policy. Built once per scan, read-only afterward.
type CoverageIndex map[ResourceKey]bool

// Covered reports whether any policy targets the given key
func (c CoverageIndex) Covered(key ResourceKey) bool {
	return c[key]
}
