package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/septivank/stockflow-worker/internal/db"
	"github.com/septivank/stockflow-worker/internal/inventory"
)

var (
	// ErrRecordNotFound is returned when a record id does not exist
	ErrRecordNotFound = errors.New("record not found")
	// ErrProductNotFound is returned when a product has no records or settings
	ErrProductNotFound = errors.New("product not found")
	// ErrProductExists is returned when a rename target is already in use
	ErrProductExists = errors.New("product already exists")
)

// RecordFilter narrows ListRecords. Empty fields do not filter.
type RecordFilter struct {
	Product string
	Start   string
	End     string
}

// Repository handles database operations
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertRecord stores a record, assigning an id when it has none. Inserting
// an id that already exists is a no-op so redelivered messages stay idempotent.
func (r *Repository) InsertRecord(ctx context.Context, record inventory.Record) (inventory.Record, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	query := `
		INSERT INTO inventory_records (id, record_date, recorded_at, product_name, ingress_qty, usage_qty)
		VALUES ($1, $2::date, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.Date,
		record.Timestamp,
		record.ProductName,
		record.IngressQty,
		record.UsageQty,
	)
	if err != nil {
		return inventory.Record{}, fmt.Errorf("failed to insert record: %w", err)
	}

	return record, nil
}

// DeleteRecord removes a record by id
func (r *Repository) DeleteRecord(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrRecordNotFound)
	}
	return nil
}

// ListRecords returns records in insertion order, which is the order the
// "last record of the day" is taken from
func (r *Repository) ListRecords(ctx context.Context, filter RecordFilter) ([]inventory.Record, error) {
	query := `
		SELECT seq, id, record_date::text, recorded_at, product_name, ingress_qty, usage_qty, created_at
		FROM inventory_records
		WHERE ($1::text = '' OR product_name = $1)
		  AND ($2::text = '' OR record_date >= $2::date)
		  AND ($3::text = '' OR record_date <= $3::date)
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query, filter.Product, filter.Start, filter.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []inventory.Record
	for rows.Next() {
		var row db.RecordRow
		if err := rows.Scan(
			&row.Seq,
			&row.ID,
			&row.RecordDate,
			&row.RecordedAt,
			&row.ProductName,
			&row.IngressQty,
			&row.UsageQty,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, row.ToRecord())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

// GetSettingsMap loads the settings of every configured product
func (r *Repository) GetSettingsMap(ctx context.Context) (inventory.SettingsMap, error) {
	query := `
		SELECT product_name, target_average, tolerance_percent, updated_at
		FROM product_settings
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := inventory.SettingsMap{}
	for rows.Next() {
		var row db.SettingsRow
		if err := rows.Scan(&row.ProductName, &row.TargetAverage, &row.TolerancePercent, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settings: %w", err)
		}
		settings[row.ProductName] = row.ToSettings()
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return settings, nil
}

// UpsertSettings creates or replaces the settings of a product
func (r *Repository) UpsertSettings(ctx context.Context, product string, settings inventory.ProductSettings) error {
	query := `
		INSERT INTO product_settings (product_name, target_average, tolerance_percent, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_name) DO UPDATE
		SET target_average = EXCLUDED.target_average,
		    tolerance_percent = EXCLUDED.tolerance_percent,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query, product, settings.TargetAverage, settings.TolerancePercent)
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}

	return nil
}

// RenameProduct moves the records and settings of oldName to newName in one
// transaction. It fails with ErrProductExists when newName is in use and with
// ErrProductNotFound when oldName is unknown.
func (r *Repository) RenameProduct(ctx context.Context, oldName, newName string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	oldExists, err := productExistsTx(ctx, tx, oldName)
	if err != nil {
		return err
	}
	if !oldExists {
		return fmt.Errorf("%w: %s", ErrProductNotFound, oldName)
	}
	newExists, err := productExistsTx(ctx, tx, newName)
	if err != nil {
		return err
	}
	if newExists {
		return fmt.Errorf("%w: %s", ErrProductExists, newName)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE inventory_records SET product_name = $2 WHERE product_name = $1`,
		oldName, newName,
	); err != nil {
		return fmt.Errorf("failed to rename records: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE product_settings SET product_name = $2, updated_at = now() WHERE product_name = $1`,
		oldName, newName,
	); err != nil {
		return fmt.Errorf("failed to rename settings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rename: %w", err)
	}
	return nil
}

func productExistsTx(ctx context.Context, tx pgx.Tx, product string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM inventory_records WHERE product_name = $1)
		    OR EXISTS (SELECT 1 FROM product_settings WHERE product_name = $1)
	`

	var exists bool
	if err := tx.QueryRow(ctx, query, product).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product %s: %w", product, err)
	}
	return exists, nil
}
