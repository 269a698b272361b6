package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/client-go/kubernetes"

	"github.com/opscart/k8s-hpa-auditor/pkg/analyzer"
	"github.com/opscart/k8s-hpa-auditor/pkg/collector"
	"github.com/opscart/k8s-hpa-auditor/pkg/kube"
	"github.com/opscart/k8s-hpa-auditor/pkg/models"
	"github.com/opscart/k8s-hpa-auditor/pkg/usage"
)

// Phase is the scan pipeline state
type Phase string

const (
	PhaseIdle           Phase = "Idle"
	PhaseAuthenticating Phase = "Authenticating"
	PhaseCollecting     Phase = "Collecting"
	PhaseClassifying    Phase = "Classifying"
	PhaseAggregating    Phase = "Aggregating"
	PhaseRendering      Phase = "Rendering"
	PhaseDone           Phase = "Done"
	PhaseFailed         Phase = "Failed"
)

// Options configures a Scanner
type Options struct {
	Filter   analyzer.NamespaceFilter
	Info     kube.ClusterInfo
	Timeout  time.Duration
	Enricher *usage.Enricher
}

// Scanner runs the scan pipeline: collect, classify, aggregate. Only the
// authenticating and collecting stages can fail; the stages after them are
// total functions over the collected snapshot.
type Scanner struct {
	clientset kubernetes.Interface
	collector *collector.Collector
	opts      Options
	phase     Phase
}

// New creates a scanner over an established clientset
func New(clientset kubernetes.Interface, opts Options) *Scanner {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Scanner{
		clientset: clientset,
		collector: collector.New(clientset, opts.Filter),
		opts:      opts,
		phase:     PhaseIdle,
	}
}

// Phase returns the current pipeline state
func (s *Scanner) Phase() Phase {
	return s.phase
}

// Run executes a single scan and returns the report. A collection failure is
// fatal: no partial report is ever produced, and no retry is attempted.
func (s *Scanner) Run(ctx context.Context) (*models.ScanReport, error) {
	s.phase = PhaseAuthenticating
	version, err := s.clientset.Discovery().ServerVersion()
	if err != nil {
		s.phase = PhaseFailed
		return nil, fmt.Errorf("failed to connect to cluster: %w", err)
	}
	info := s.opts.Info
	info.Version = version.GitVersion
	logrus.Debugf("connected to cluster %s (version %s)", info.Cluster, info.Version)

	s.phase = PhaseCollecting
	listCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	snapshot, err := s.collector.Collect(listCtx)
	if err != nil {
		s.phase = PhaseFailed
		return nil, err
	}

	s.phase = PhaseClassifying
	workloads := analyzer.Dedupe(snapshot.Workloads)
	index := analyzer.BuildCoverageIndex(snapshot.Policies)
	findings := analyzer.Classify(workloads, index)
	findings = s.opts.Enricher.Enrich(ctx, findings)

	s.phase = PhaseAggregating
	report := analyzer.Aggregate(workloads, findings)
	report.ClusterName = info.Cluster
	report.Context = info.Context
	report.User = info.User
	report.Version = info.Version

	s.phase = PhaseRendering
	return report, nil
}

// Finish marks the pipeline complete once the report has been rendered
func (s *Scanner) Finish() {
	if s.phase == PhaseRendering {
		s.phase = PhaseDone
	}
}
