package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opscart/k8s-hpa-auditor/pkg/analyzer"
	"github.com/opscart/k8s-hpa-auditor/pkg/collector"
	"github.com/opscart/k8s-hpa-auditor/pkg/config"
	"github.com/opscart/k8s-hpa-auditor/pkg/datasource"
	"github.com/opscart/k8s-hpa-auditor/pkg/kube"
	"github.com/opscart/k8s-hpa-auditor/pkg/models"
	"github.com/opscart/k8s-hpa-auditor/pkg/preflight"
	"github.com/opscart/k8s-hpa-auditor/pkg/reporter"
	"github.com/opscart/k8s-hpa-auditor/pkg/scanner"
	"github.com/opscart/k8s-hpa-auditor/pkg/storage"
	"github.com/opscart/k8s-hpa-auditor/pkg/usage"
)

// Exit codes: 0 = no findings, 1 = findings present, 2 = scan could not run
const (
	exitClean    = 0
	exitFindings = 1
	exitError    = 2
)

var (
	// Scan flags
	namespaces    []string
	includeSystem bool
	reportFormat  string
	reportOutput  string
	saveResults   bool
	clusterID     string
	skipPreflight bool
	noUsageHints  bool
	verbose       bool

	// Global config
	cfg *config.Config

	// History command vars
	historyLimit int
)

func main() {
	cfg = config.NewConfig()

	var rootCmd = &cobra.Command{
		Use:   "hpa-scan",
		Short: "Kubernetes HPA coverage auditor",
		Long:  `Scan Kubernetes clusters for Deployments, StatefulSets and ReplicaSets that declare resource requests but have no HorizontalPodAutoscaler.`,
		Run:   runScan,
	}

	rootCmd.Flags().StringSliceVarP(&namespaces, "namespace", "n", nil, "Namespaces to scan (default: all non-system namespaces)")
	rootCmd.Flags().BoolVar(&includeSystem, "include-system", false, "Scan system namespaces (kube-*, system-*) as well")
	rootCmd.Flags().StringVarP(&reportFormat, "output", "o", "", "Report format: text, csv, pdf (default: text)")
	rootCmd.Flags().StringVar(&reportOutput, "report-output", "", "Write the report to this file instead of stdout")
	rootCmd.Flags().BoolVar(&saveResults, "save", false, "Save scan results to the database")
	rootCmd.Flags().StringVar(&clusterID, "cluster-id", "default", "Cluster identifier used in the archive")
	rootCmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip the permission preflight check")
	rootCmd.Flags().BoolVar(&noUsageHints, "no-usage-hints", false, "Disable utilization hints on findings")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	preflightCmd := &cobra.Command{
		Use:   "preflight",
		Short: "Verify list permissions for all scanned resource kinds",
		Run:   runPreflight,
	}

	historyCmd := &cobra.Command{
		Use:   "history <namespace>",
		Short: "View archived findings for a namespace",
		Args:  cobra.ExactArgs(1),
		Run:   runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of findings to show")

	rootCmd.AddCommand(preflightCmd)
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}
}

func setupLogging() {
	logrus.SetOutput(os.Stderr)
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}

func buildFilter() analyzer.NamespaceFilter {
	return analyzer.NamespaceFilter{
		SystemPrefixes: cfg.SystemNamespacePrefixes,
		Excluded:       cfg.ExcludedNamespaces,
		IncludeSystem:  includeSystem || cfg.IncludeSystem,
		Allowed:        namespaces,
	}
}

func runScan(cmd *cobra.Command, args []string) {
	setupLogging()

	if reportFormat != "" {
		cfg.ReportFormat = reportFormat
	}
	if reportOutput != "" {
		cfg.ReportOutput = reportOutput
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}

	client, err := kube.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing cluster client: %v\n", err)
		os.Exit(exitError)
	}

	fmt.Printf("[INFO] K8s HPA Auditor - Starting scan\n")
	fmt.Printf("[INFO] Context: %s\n", client.Info.Context)
	fmt.Printf("[INFO] Cluster: %s\n", client.Info.Cluster)

	ctx := context.Background()

	if !skipPreflight {
		if err := preflight.Run(ctx, client.Clientset); err != nil {
			var denied *preflight.DeniedError
			if errors.As(err, &denied) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", denied)
				fmt.Fprintln(os.Stderr, "Grant list permission for the kinds above, or run with --skip-preflight")
			} else {
				fmt.Fprintf(os.Stderr, "Error: preflight check failed: %v\n", err)
			}
			os.Exit(exitError)
		}
		fmt.Println("[INFO] Preflight permission check passed")
	}

	scan := scanner.New(client.Clientset, scanner.Options{
		Filter:   buildFilter(),
		Info:     client.Info,
		Timeout:  cfg.ListTimeout,
		Enricher: buildEnricher(ctx, client),
	})

	report, err := scan.Run(ctx)
	if err != nil {
		var collectionErr *collector.CollectionError
		if errors.As(err, &collectionErr) {
			fmt.Fprintf(os.Stderr, "Error: could not list %s: %v\n", collectionErr.Kind, collectionErr.Unwrap())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitError)
	}

	fmt.Printf("[INFO] Connected to cluster (version: %s)\n", report.Version)
	fmt.Printf("[INFO] Scanned %d workloads across %d kinds\n",
		report.Summary.TotalWorkloads, len(report.Summary.ScannedPerKind))

	if err := renderReport(report); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
		os.Exit(exitError)
	}
	scan.Finish()

	if saveResults {
		if err := archiveScan(ctx, report); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to save scan: %v\n", err)
		}
	}

	if report.Summary.TotalFindings > 0 {
		fmt.Printf("\n[INFO] Consider enabling HPA for the %d resources listed above\n", report.Summary.TotalFindings)
		os.Exit(exitFindings)
	}
	fmt.Println("\n[INFO] All eligible resources have HPA enabled")
	os.Exit(exitClean)
}

func buildEnricher(ctx context.Context, client *kube.Client) *usage.Enricher {
	if noUsageHints || !cfg.UsageHintsEnabled {
		return nil
	}

	var promDS *datasource.PrometheusSource
	if cfg.PrometheusURL != "" {
		var err error
		promDS, err = datasource.NewPrometheusSource(cfg.PrometheusURL)
		if err != nil {
			logrus.Warnf("Prometheus initialization failed: %v", err)
			promDS = nil
		} else if !promDS.IsAvailable(ctx) {
			logrus.Warnf("Prometheus at %s not reachable, relying on metrics-server only", cfg.PrometheusURL)
			promDS = nil
		}
	}

	return usage.New(client.MetricsClient, promDS)
}

func renderReport(report *models.ScanReport) error {
	format := reporter.Format(cfg.ReportFormat)

	output := cfg.ReportOutput
	if output == "" && format == reporter.FormatPDF {
		// PDF is binary, never sent to stdout
		output = reporter.DefaultFilename(format, time.Now().Format("20060102_150405"))
	}

	if output == "" {
		return reporter.Generate(report, format, os.Stdout)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := reporter.Generate(report, format, file); err != nil {
		return err
	}
	fmt.Printf("[INFO] Report written to %s\n", output)
	return nil
}

func archiveScan(ctx context.Context, report *models.ScanReport) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not configured")
	}

	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	scanID, err := store.SaveScan(ctx, clusterID, report)
	if err != nil {
		return err
	}
	fmt.Printf("[INFO] Scan saved to archive (ID: %s)\n", scanID)
	return nil
}

func runPreflight(cmd *cobra.Command, args []string) {
	setupLogging()

	client, err := kube.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing cluster client: %v\n", err)
		os.Exit(exitError)
	}

	if err := preflight.Run(context.Background(), client.Clientset); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}

	fmt.Println("[INFO] List permission verified for all scanned resource kinds")
}

func runHistory(cmd *cobra.Command, args []string) {
	setupLogging()
	namespace := args[0]

	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: DATABASE_URL must be set for the history command")
		os.Exit(exitError)
	}

	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
	defer store.Close()

	findings, err := store.ListFindings(context.Background(), namespace, historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}

	if len(findings) == 0 {
		fmt.Printf("No archived findings for namespace: %s\n", namespace)
		return
	}

	fmt.Printf("Archived findings for namespace '%s':\n\n", namespace)
	for i, finding := range findings {
		fmt.Printf("%d. %s/%s (replicas=%d)\n", i+1, finding.Kind, finding.Name, finding.Replicas)
		fmt.Printf("   Scan: %s\n", finding.ScanID)
		fmt.Printf("   Recorded: %s\n", finding.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}
