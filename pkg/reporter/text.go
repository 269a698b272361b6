package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/opscart/k8s-hpa-auditor/pkg/models"
)

const divider = "============================================================"

// GenerateText writes the grouped finding listing and summary as plain text.
// Output is byte-identical for identical report models.
func GenerateText(report *models.ScanReport, writer io.Writer) error {
	var b strings.Builder

	b.WriteString(divider + "\n")
	b.WriteString("RESOURCES WITHOUT HPA ENABLED\n")
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "Context: %s\n", report.Context)
	fmt.Fprintf(&b, "Cluster: %s\n", report.ClusterName)
	if report.Version != "" {
		fmt.Fprintf(&b, "Kubernetes version: %s\n", report.Version)
	}
	b.WriteString(divider + "\n\n")

	if report.Summary.TotalFindings == 0 {
		b.WriteString("All eligible resources have HPA enabled.\n\n")
	} else {
		fmt.Fprintf(&b, "Found %d resources without HPA:\n\n", report.Summary.TotalFindings)
		for _, group := range report.Groups {
			fmt.Fprintf(&b, "Namespace: %s\n", group.Namespace)
			for _, finding := range group.Findings {
				fmt.Fprintf(&b, "  - %s/%s (replicas=%d%s)\n",
					finding.Kind, finding.Name, finding.Replicas, usageSuffix(finding.Usage))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(divider + "\n")
	b.WriteString("SUMMARY\n")
	b.WriteString(divider + "\n")
	for _, kind := range models.ScannedKinds {
		fmt.Fprintf(&b, "Total %ss: %d\n", kind, report.Summary.ScannedPerKind[kind])
	}
	fmt.Fprintf(&b, "Resources without HPA: %d\n", report.Summary.TotalFindings)

	_, err := io.WriteString(writer, b.String())
	return err
}

func usageSuffix(hint *models.UsageHint) string {
	if hint == nil {
		return ""
	}
	return fmt.Sprintf(", usage: cpu=%dm mem=%dMi",
		hint.CPUMillicores, hint.MemoryBytes/(1024*1024))
}
