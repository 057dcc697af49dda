package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/truthlens/internal/domain/usage"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage_ledger (
  id          VARCHAR(36)  NOT NULL PRIMARY KEY,
  provider    VARCHAR(64)  NOT NULL,
  model       VARCHAR(128) NOT NULL,
  kind        VARCHAR(32)  NOT NULL,
  outcome     VARCHAR(16)  NOT NULL,
  category    VARCHAR(32)  NOT NULL,
  duration_ms BIGINT       NOT NULL,
  created_at  DATETIME(3)  NOT NULL,
  KEY idx_usage_created (created_at)
)`

type UsageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// EnsureSchema creates the ledger table when missing
func (r *UsageRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save inserts one ledger row
func (r *UsageRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO usage_ledger
  (id, provider, model, kind, outcome, category, duration_ms, created_at)
VALUES (?,?,?,?,?,?,?,?)`
	id := string(rec.ID)
	if id == "" {
		id = uuid.NewString()
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		id,
		stringOrDash(rec.Provider),
		stringOrDash(rec.Model),
		stringOrDash(rec.Kind),
		stringOrDash(string(rec.Outcome)),
		stringOrDash(rec.Category),
		rec.DurationMS,
		created.UTC(),
	)
	return err
}

// Summary aggregates ledger rows per provider since N days
func (r *UsageRepository) Summary(ctx context.Context, sinceDays int) ([]domain.ProviderSummary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().UTC().AddDate(0, 0, -sinceDays)
	const q = `
SELECT provider,
       COUNT(*) AS total,
       COALESCE(SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END),0) AS failed,
       COALESCE(CAST(AVG(duration_ms) AS SIGNED),0) AS avg_ms
FROM usage_ledger
WHERE created_at >= ?
GROUP BY provider
ORDER BY total DESC, provider ASC`
	rows, err := r.db.QueryContext(ctx, q, cut)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ProviderSummary
	for rows.Next() {
		var s domain.ProviderSummary
		if err := rows.Scan(&s.Provider, &s.Total, &s.Failed, &s.AvgMS); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
