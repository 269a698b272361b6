package models

import "time"

// UsageHint carries advisory utilization data for a finding. Hints come from
// metrics-server or Prometheus and may be absent when neither is reachable.
type UsageHint struct {
	CPUMillicores int64
	MemoryBytes   int64
}

// Finding is one uncovered autoscaling candidate.
// HasResourceRequests is always true by construction.
type Finding struct {
	Namespace           string
	Kind                WorkloadKind
	Name                string
	Replicas            int32
	HasResourceRequests bool
	Usage               *UsageHint
}

// NamespaceGroup holds the ordered findings of a single namespace
type NamespaceGroup struct {
	Namespace string
	Findings  []Finding
}

// Summary holds the per-scan totals computed over all collected workloads
type Summary struct {
	ScannedPerKind map[WorkloadKind]int
	TotalWorkloads int
	TotalFindings  int
}

// ScanReport is the ordered, immutable result of a single scan.
// Invariant: the finding counts of all groups sum to Summary.TotalFindings.
type ScanReport struct {
	ClusterName string
	Context     string
	User        string
	Version     string
	GeneratedAt time.Time
	Groups      []NamespaceGroup
	Summary     Summary
}

// FindingCount returns the number of findings across all namespace groups
func (r *ScanReport) FindingCount() int {
	total := 0
	for _, g := range r.Groups {
		total += len(g.Findings)
	}
	return total
}
