package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) Load(ctx context.Context) (*Catalog, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin catalog read: %w", err)
	}
	defer tx.Rollback(ctx)

	c := &Catalog{}
	if err := tx.QueryRow(ctx, `SELECT version FROM guideline_catalog_version WHERE id = 1`).Scan(&c.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("catalog has not been seeded")
		}
		return nil, fmt.Errorf("read catalog version: %w", err)
	}
	if c.Screenings, err = loadScreenings(ctx, tx); err != nil {
		return nil, err
	}
	if c.Immunizations, err = loadImmunizations(ctx, tx); err != nil {
		return nil, err
	}
	if c.ChronicCare, err = loadChronicCare(ctx, tx); err != nil {
		return nil, err
	}
	if c.Interactions, err = loadInteractions(ctx, tx); err != nil {
		return nil, err
	}
	if c.CrossReactivity, err = loadCrossReactivity(ctx, tx); err != nil {
		return nil, err
	}
	return c, tx.Commit(ctx)
}

const screeningCols = `id, name, min_age, max_age, sex, requires_conditions, satisfied_by,
	interval_months, order_code, description`

func loadScreenings(ctx context.Context, q queryable) ([]ScreeningRule, error) {
	rows, err := q.Query(ctx, `SELECT `+screeningCols+` FROM guideline_screening ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("query screenings: %w", err)
	}
	defer rows.Close()
	var items []ScreeningRule
	for rows.Next() {
		var s ScreeningRule
		if err := rows.Scan(&s.ID, &s.Name, &s.MinAge, &s.MaxAge, &s.Sex, &s.RequiresConditions, &s.SatisfiedBy,
			&s.IntervalMonths, &s.OrderCode, &s.Description); err != nil {
			return nil, fmt.Errorf("scan screening: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func loadImmunizations(ctx context.Context, q queryable) ([]ImmunizationRule, error) {
	rows, err := q.Query(ctx, `SELECT `+screeningCols+` FROM guideline_immunization ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("query immunizations: %w", err)
	}
	defer rows.Close()
	var items []ImmunizationRule
	for rows.Next() {
		var s ImmunizationRule
		if err := rows.Scan(&s.ID, &s.Name, &s.MinAge, &s.MaxAge, &s.Sex, &s.RequiresConditions, &s.SatisfiedBy,
			&s.IntervalMonths, &s.OrderCode, &s.Description); err != nil {
			return nil, fmt.Errorf("scan immunization: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func loadChronicCare(ctx context.Context, q queryable) ([]ChronicCareRule, error) {
	rows, err := q.Query(ctx, `SELECT id, name, lab_id, requires_conditions, interval_months, order_code, description
		FROM guideline_chronic_care ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("query chronic care: %w", err)
	}
	defer rows.Close()
	var items []ChronicCareRule
	for rows.Next() {
		var s ChronicCareRule
		if err := rows.Scan(&s.ID, &s.Name, &s.LabID, &s.RequiresConditions, &s.IntervalMonths, &s.OrderCode, &s.Description); err != nil {
			return nil, fmt.Errorf("scan chronic care: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func loadInteractions(ctx context.Context, q queryable) ([]InteractionRule, error) {
	rows, err := q.Query(ctx, `SELECT id, drug1, drug2, severity, description, recommendation
		FROM guideline_interaction ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()
	var items []InteractionRule
	for rows.Next() {
		var s InteractionRule
		if err := rows.Scan(&s.ID, &s.Drug1, &s.Drug2, &s.Severity, &s.Description, &s.Recommendation); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func loadCrossReactivity(ctx context.Context, q queryable) ([]CrossReactivityClass, error) {
	rows, err := q.Query(ctx, `SELECT id, name, allergens, members, description
		FROM guideline_cross_reactivity ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("query cross reactivity: %w", err)
	}
	defer rows.Close()
	var items []CrossReactivityClass
	for rows.Next() {
		var s CrossReactivityClass
		if err := rows.Scan(&s.ID, &s.Name, &s.Allergens, &s.Members, &s.Description); err != nil {
			return nil, fmt.Errorf("scan cross reactivity: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *repoPG) Replace(ctx context.Context, c *Catalog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin catalog replace: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"guideline_screening", "guideline_immunization", "guideline_chronic_care",
		"guideline_interaction", "guideline_cross_reactivity"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, s := range c.Screenings {
		if _, err := tx.Exec(ctx, `
			INSERT INTO guideline_screening (`+screeningCols+`, sort_order)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			s.ID, s.Name, s.MinAge, s.MaxAge, s.Sex, nonNil(s.RequiresConditions), nonNil(s.SatisfiedBy),
			s.IntervalMonths, s.OrderCode, s.Description, i); err != nil {
			return fmt.Errorf("insert screening %s: %w", s.ID, err)
		}
	}
	for i, s := range c.Immunizations {
		if _, err := tx.Exec(ctx, `
			INSERT INTO guideline_immunization (`+screeningCols+`, sort_order)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			s.ID, s.Name, s.MinAge, s.MaxAge, s.Sex, nonNil(s.RequiresConditions), nonNil(s.SatisfiedBy),
			s.IntervalMonths, s.OrderCode, s.Description, i); err != nil {
			return fmt.Errorf("insert immunization %s: %w", s.ID, err)
		}
	}
	for i, s := range c.ChronicCare {
		if _, err := tx.Exec(ctx, `
			INSERT INTO guideline_chronic_care (id, name, lab_id, requires_conditions, interval_months, order_code, description, sort_order)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			s.ID, s.Name, s.LabID, nonNil(s.RequiresConditions), s.IntervalMonths, s.OrderCode, s.Description, i); err != nil {
			return fmt.Errorf("insert chronic care %s: %w", s.ID, err)
		}
	}
	for i, s := range c.Interactions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO guideline_interaction (id, drug1, drug2, severity, description, recommendation, sort_order)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			s.ID, s.Drug1, s.Drug2, s.Severity, s.Description, s.Recommendation, i); err != nil {
			return fmt.Errorf("insert interaction %s: %w", s.ID, err)
		}
	}
	for i, s := range c.CrossReactivity {
		if _, err := tx.Exec(ctx, `
			INSERT INTO guideline_cross_reactivity (id, name, allergens, members, description, sort_order)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			s.ID, s.Name, nonNil(s.Allergens), nonNil(s.Members), s.Description, i); err != nil {
			return fmt.Errorf("insert cross reactivity %s: %w", s.ID, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO guideline_catalog_version (id, version, updated_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version, updated_at = NOW()`, c.Version); err != nil {
		return fmt.Errorf("record catalog version: %w", err)
	}
	return tx.Commit(ctx)
}

// nonNil keeps NOT NULL text[] columns from receiving SQL NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
