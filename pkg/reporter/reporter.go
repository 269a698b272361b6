package reporter

import (
	"fmt"
	"io"

	"github.com/opscart/k8s-hpa-auditor/pkg/models"
)

// Format represents the output format
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// Generate writes the report in the requested format. Renderers only format
// the report model; they never re-derive counts or reorder findings.
func Generate(report *models.ScanReport, format Format, writer io.Writer) error {
	switch format {
	case FormatText:
		return GenerateText(report, writer)
	case FormatCSV:
		return GenerateCSV(report, writer)
	case FormatPDF:
		return GeneratePDF(report, writer)
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// DefaultFilename returns the conventional output filename for a format
func DefaultFilename(format Format, timestamp string) string {
	switch format {
	case FormatPDF:
		return fmt.Sprintf("hpa-scan-report_%s.pdf", timestamp)
	case FormatCSV:
		return fmt.Sprintf("hpa-scan-report_%s.csv", timestamp)
	default:
		return fmt.Sprintf("hpa-scan-report_%s.txt", timestamp)
	}
}
