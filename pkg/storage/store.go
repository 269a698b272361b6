package storage

import (
	"context"
	"time"

	"github.com/opscart/k8s-hpa-auditor/pkg/models"
)

// ArchivedScan is a persisted scan summary
type ArchivedScan struct {
	ID            string
	ClusterID     string
	Context       string
	Version       string
	TotalPerKind  map[models.WorkloadKind]int
	TotalFindings int
	CreatedAt     time.Time
}

// ArchivedFinding is a persisted finding row
type ArchivedFinding struct {
	ScanID    string
	Namespace string
	Kind      string
	Name      string
	Replicas  int32
	CreatedAt time.Time
}

// Store defines the interface for the optional scan archive. The archive is a
// sink only; nothing in the scan pipeline reads from it.
type Store interface {
	SaveScan(ctx context.Context, clusterID string, report *models.ScanReport) (string, error)
	ListScans(ctx context.Context, clusterID string, limit int) ([]*ArchivedScan, error)
	ListFindings(ctx context.Context, namespace string, limit int) ([]*ArchivedFinding, error)

	Ping(ctx context.Context) error
	Close() error
}
