package reporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/opscart/k8s-hpa-auditor/pkg/models"
)

// GenerateCSV creates a CSV report, one row per finding
func GenerateCSV(report *models.ScanReport, writer io.Writer) error {
	w := csv.NewWriter(writer)
	defer w.Flush()

	header := []string{
		"Namespace",
		"Kind",
		"Name",
		"Replicas",
		"Has Resource Requests",
		"CPU Usage (m)",
		"Memory Usage (Mi)",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, group := range report.Groups {
		for _, finding := range group.Findings {
			cpu, mem := "", ""
			if finding.Usage != nil {
				cpu = fmt.Sprintf("%d", finding.Usage.CPUMillicores)
				mem = fmt.Sprintf("%d", finding.Usage.MemoryBytes/(1024*1024))
			}
			row := []string{
				finding.Namespace,
				string(finding.Kind),
				finding.Name,
				fmt.Sprintf("%d", finding.Replicas),
				"Yes",
				cpu,
				mem,
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	return nil
}
