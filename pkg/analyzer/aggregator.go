package analyzer

import (
	"sort"
	"time"

	"github.com/opscart/k8s-hpa-auditor/pkg/models"
)

// Aggregate builds the ordered scan report from the findings and the full set
// of collected workloads. Namespaces sort ascending; within a namespace,
// findings sort by kind (Deployment, StatefulSet, ReplicaSet) then name, so
// identical input always renders identically and report diffs stay meaningful.
func Aggregate(workloads []models.WorkloadRecord, findings []models.Finding) *models.ScanReport {
	summary := models.Summary{
		ScannedPerKind: make(map[models.WorkloadKind]int, len(models.ScannedKinds)),
	}
	for _, kind := range models.ScannedKinds {
		summary.ScannedPerKind[kind] = 0
	}
	for _, workload := range workloads {
		summary.ScannedPerKind[workload.Kind]++
		summary.TotalWorkloads++
	}
	summary.TotalFindings = len(findings)

	byNamespace := make(map[string][]models.Finding)
	for _, finding := range findings {
		byNamespace[finding.Namespace] = append(byNamespace[finding.Namespace], finding)
	}

	namespaces := make([]string, 0, len(byNamespace))
	for ns := range byNamespace {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	groups := make([]models.NamespaceGroup, 0, len(namespaces))
	for _, ns := range namespaces {
		group := byNamespace[ns]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Kind != group[j].Kind {
				return models.KindRank(group[i].Kind) < models.KindRank(group[j].Kind)
			}
			return group[i].Name < group[j].Name
		})
		groups = append(groups, models.NamespaceGroup{Namespace: ns, Findings: group})
	}

	return &models.ScanReport{
		GeneratedAt: time.Now(),
		Groups:      groups,
		Summary:     summary,
	}
}
