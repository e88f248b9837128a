package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
)

// CaseRepository stores each case as one JSONB document next to the columns
// operators filter on.
type CaseRepository struct {
	db *sql.DB
}

var _ ports.CaseRepository = (*CaseRepository)(nil)

func NewCaseRepository(db *sql.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2024103001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS cases (
	id TEXT PRIMARY KEY,
	notary_name TEXT NOT NULL DEFAULT '',
	signing_date DATE,
	repertory_number TEXT NOT NULL DEFAULT '',
	clause_count INTEGER NOT NULL DEFAULT 0,
	document JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cases_signing_date ON cases(signing_date DESC);
CREATE INDEX IF NOT EXISTS idx_cases_updated_at ON cases(updated_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CaseRepository) Create(ctx context.Context, c *domain.Case) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO cases (
	id, notary_name, signing_date, repertory_number, clause_count, document, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		c.ID, c.Notary.Name, signingDate(c), c.Signing.RepertoryNumber, len(c.ProcessedClauses), doc, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (r *CaseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT document
FROM cases
WHERE id = $1
`, id)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCaseNotFound, "get case", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("select case: %w", err)
	}

	var c domain.Case
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("unmarshal case %s: %w", id, err)
	}
	return &c, nil
}

func (r *CaseRepository) Update(ctx context.Context, c *domain.Case) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE cases
SET notary_name = $2,
	signing_date = $3,
	repertory_number = $4,
	clause_count = $5,
	document = $6,
	updated_at = $7
WHERE id = $1
`,
		c.ID, c.Notary.Name, signingDate(c), c.Signing.RepertoryNumber, len(c.ProcessedClauses), doc, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrCaseNotFound, "update case", fmt.Errorf("id %s", c.ID))
	}
	return nil
}

func signingDate(c *domain.Case) any {
	if c.Signing.Date.IsZero() {
		return nil
	}
	return c.Signing.Date
}
