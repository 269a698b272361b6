package reporter

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/opscart/k8s-hpa-auditor/pkg/models"
)

// GeneratePDF creates a paginated PDF report: header with cluster identity,
// summary statistics table, and the grouped finding listing.
func GeneratePDF(report *models.ScanReport, writer io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Title
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 0, 128)
	pdf.CellFormat(0, 12, "Kubernetes HPA Audit Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Report info
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Cluster: %s", report.ClusterName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Context: %s", report.Context), "", 1, "L", false, 0, "")
	if report.Version != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Kubernetes version: %s", report.Version), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Summary table
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	summaryRow(pdf, "Metric", "Count", true)
	for _, kind := range models.ScannedKinds {
		summaryRow(pdf, fmt.Sprintf("Total %ss", kind),
			fmt.Sprintf("%d", report.Summary.ScannedPerKind[kind]), false)
	}
	summaryRow(pdf, "Resources without HPA",
		fmt.Sprintf("%d", report.Summary.TotalFindings), false)
	pdf.Ln(8)

	// Findings grouped by namespace
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Resources Without HPA", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	if report.Summary.TotalFindings == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, "All eligible resources have HPA enabled.", "", 1, "L", false, 0, "")
	} else {
		for _, group := range report.Groups {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, 7, fmt.Sprintf("Namespace: %s", group.Namespace), "", 1, "L", false, 0, "")
			findingTable(pdf, group.Findings)
			pdf.Ln(4)
		}
	}

	// Recommendations
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Recommendations", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	recommendations := []string{
		"- Enable HPA for resources with multiple replicas to handle traffic spikes",
		"- Monitor CPU and memory usage to set appropriate HPA thresholds",
		"- Consider custom metrics for more sophisticated scaling decisions",
		"- Test HPA behavior in staging environments before production rollout",
	}
	for _, rec := range recommendations {
		pdf.CellFormat(0, 6, rec, "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(writer); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func summaryRow(pdf *gofpdf.Fpdf, label, value string, header bool) {
	if header {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(128, 128, 128)
		pdf.SetTextColor(255, 255, 255)
	} else {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetFillColor(245, 245, 220)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.CellFormat(80, 8, label, "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, value, "1", 1, "C", true, 0, "")
}

func findingTable(pdf *gofpdf.Fpdf, findings []models.Finding) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(173, 216, 230)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(30, 7, "Kind", "1", 0, "C", true, 0, "")
	pdf.CellFormat(80, 7, "Name", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Replicas", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "CPU (m)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Mem (Mi)", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, finding := range findings {
		cpu, mem := "-", "-"
		if finding.Usage != nil {
			cpu = fmt.Sprintf("%d", finding.Usage.CPUMillicores)
			mem = fmt.Sprintf("%d", finding.Usage.MemoryBytes/(1024*1024))
		}
		pdf.CellFormat(30, 7, string(finding.Kind), "1", 0, "C", false, 0, "")
		pdf.CellFormat(80, 7, finding.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", finding.Replicas), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 7, cpu, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 7, mem, "1", 1, "C", false, 0, "")
	}
}
