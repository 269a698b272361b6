package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/opscart/k8s-hpa-auditor/pkg/models"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db  *sql.DB
	dsn string
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		db:  db,
		dsn: dsn,
	}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate runs database migrations
func (s *PostgresStore) migrate() error {
	schema, err := postgresFS.ReadFile("migrations/001_postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// SaveScan persists a scan summary and its findings in one transaction and
// returns the scan ID
func (s *PostgresStore) SaveScan(ctx context.Context, clusterID string, report *models.ScanReport) (string, error) {
	scanID := uuid.New().String()
	createdAt := report.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scans (
			id, cluster_id, context, k8s_version,
			total_deployments, total_statefulsets, total_replicasets,
			total_findings, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		scanID, clusterID, report.Context, report.Version,
		report.Summary.ScannedPerKind[models.KindDeployment],
		report.Summary.ScannedPerKind[models.KindStatefulSet],
		report.Summary.ScannedPerKind[models.KindReplicaSet],
		report.Summary.TotalFindings, createdAt,
	)
	if err != nil {
		return "", err
	}

	for _, group := range report.Groups {
		for _, finding := range group.Findings {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO findings (
					id, scan_id, namespace, kind, name, replicas, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7)
			`,
				uuid.New().String(), scanID,
				finding.Namespace, string(finding.Kind), finding.Name,
				finding.Replicas, createdAt,
			)
			if err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	return scanID, nil
}

// ListScans retrieves recent scan summaries for a cluster
func (s *PostgresStore) ListScans(ctx context.Context, clusterID string, limit int) ([]*ArchivedScan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cluster_id, context, k8s_version,
			total_deployments, total_statefulsets, total_replicasets,
			total_findings, created_at
		FROM scans
		WHERE cluster_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, clusterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []*ArchivedScan
	for rows.Next() {
		var scan ArchivedScan
		var deployments, statefulSets, replicaSets int

		err := rows.Scan(
			&scan.ID, &scan.ClusterID, &scan.Context, &scan.Version,
			&deployments, &statefulSets, &replicaSets,
			&scan.TotalFindings, &scan.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		scan.TotalPerKind = map[models.WorkloadKind]int{
			models.KindDeployment:  deployments,
			models.KindStatefulSet: statefulSets,
			models.KindReplicaSet:  replicaSets,
		}
		scans = append(scans, &scan)
	}

	return scans, rows.Err()
}

// ListFindings retrieves archived findings for a namespace
func (s *PostgresStore) ListFindings(ctx context.Context, namespace string, limit int) ([]*ArchivedFinding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scan_id, namespace, kind, name, replicas, created_at
		FROM findings
		WHERE namespace = $1
		ORDER BY created_at DESC, kind, name
		LIMIT $2
	`, namespace, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var findings []*ArchivedFinding
	for rows.Next() {
		var finding ArchivedFinding
		err := rows.Scan(
			&finding.ScanID, &finding.Namespace, &finding.Kind,
			&finding.Name, &finding.Replicas, &finding.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		findings = append(findings, &finding)
	}

	return findings, rows.Err()
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
