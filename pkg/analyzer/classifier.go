package analyzer

import (
	"github.com/opscart/k8s-hpa-auditor/pkg/models"
)

// BuildCoverageIndex marks the target key of every autoscaling policy as
// covered. Targets that name a kind outside the scanned set, or carry an empty
// name, cover nothing; a policy may legitimately point at a custom resource.
func BuildCoverageIndex(policies []models.AutoscalePolicyRecord) models.CoverageIndex {
	index := make(models.CoverageIndex, len(policies))
	for _, policy := range policies {
		if key, ok := policy.TargetKey(); ok {
			index[key] = true
		}
	}
	return index
}

// Classify determines which workloads are findings: candidates (workloads that
// declare resource requests) with no covering autoscaling policy.
//
// Workloads without resource requests cannot meaningfully autoscale and are
// excluded from consideration entirely. Zero-replica workloads are still
// evaluated; the missing policy is the condition being flagged, not the scale.
// Duplicate (namespace, kind, name) keys are collapsed to the first record so
// the report's summation invariant holds.
func Classify(workloads []models.WorkloadRecord, index models.CoverageIndex) []models.Finding {
	seen := make(map[models.ResourceKey]bool, len(workloads))
	var findings []models.Finding

	for _, workload := range workloads {
		key := workload.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		if !workload.HasResourceRequests {
			continue
		}
		if index.Covered(key) {
			continue
		}

		findings = append(findings, models.Finding{
			Namespace:           workload.Namespace,
			Kind:                workload.Kind,
			Name:                workload.Name,
			Replicas:            workload.Replicas,
			HasResourceRequests: true,
		})
	}

	return findings
}

// Dedupe collapses duplicate workload records by key, keeping the first.
// List calls should never return duplicates, but the summary totals must not
// double-count if they do.
func Dedupe(workloads []models.WorkloadRecord) []models.WorkloadRecord {
	seen := make(map[models.ResourceKey]bool, len(workloads))
	out := make([]models.WorkloadRecord, 0, len(workloads))
	for _, workload := range workloads {
		key := workload.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, workload)
	}
	return out
}
